package main

import "github.com/pandodao/coin-wallet/cmd/coinwallet-cli/cmd"

func main() {
	cmd.Execute()
}
