/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bufio"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var transferOpt struct {
	yes bool
}

type transferView struct {
	State      string `json:"state"`
	Outcome    string `json:"outcome"`
	Amount     string `json:"amount"`
	InputError string `json:"input_error"`
	Message    string `json:"message"`
	Request    *struct {
		Amount       string `json:"amount"`
		TargetAmount int64  `json:"target_amount"`
		Rate         struct {
			Rate               string `json:"rate"`
			TargetCurrencyName string `json:"target_currency_name"`
			Game               *struct {
				IngameCurrencyName string `json:"ingame_currency_name"`
			} `json:"game"`
		} `json:"rate"`
	} `json:"request"`
}

// transferCmd represents the transfer command
var transferCmd = &cobra.Command{
	Use:   "transfer <game> <amount>",
	Short: "transfer Coin into a game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gameID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid game id %q", args[0])
		}

		var view transferView
		if err := call(cmd, http.MethodPost, "/transfer/start", map[string]any{"game_id": gameID}, &view); err != nil {
			return err
		}

		if view.State != "awaiting_amount" {
			return fmt.Errorf("start transfer: %s", view.Message)
		}

		if err := call(cmd, http.MethodPost, "/transfer/amount", map[string]any{"amount": args[1]}, &view); err != nil {
			return err
		}

		if err := call(cmd, http.MethodPost, "/transfer/submit", nil, &view); err != nil {
			return err
		}

		if view.State != "confirm_pending" || view.Request == nil {
			_ = call(cmd, http.MethodDelete, "/transfer", nil, nil)
			return fmt.Errorf("invalid amount: %s", view.InputError)
		}

		currency := view.Request.Rate.TargetCurrencyName
		if g := view.Request.Rate.Game; g != nil && g.IngameCurrencyName != "" {
			currency = g.IngameCurrencyName
		}

		cmd.Printf("Transfer %s Coin, receive %d %s (rate %s)\n",
			view.Request.Amount, view.Request.TargetAmount, currency, view.Request.Rate.Rate)

		if !transferOpt.yes && !confirm(cmd) {
			return call(cmd, http.MethodPost, "/transfer/cancel", nil, nil)
		}

		if err := call(cmd, http.MethodPost, "/transfer/confirm", nil, &view); err != nil {
			return err
		}

		cmd.Println(view.Message)
		if view.Outcome != "success" {
			_ = call(cmd, http.MethodDelete, "/transfer", nil, nil)
			return fmt.Errorf("transfer failed")
		}

		return call(cmd, http.MethodPost, "/transfer/ack", nil, nil)
	},
}

func confirm(cmd *cobra.Command) bool {
	cmd.Print("Confirm? [y/N] ")
	line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func init() {
	rootCmd.AddCommand(transferCmd)

	transferCmd.Flags().BoolVarP(&transferOpt.yes, "yes", "y", false, "skip confirmation")
}
