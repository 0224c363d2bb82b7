package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "list active games",
	RunE: func(cmd *cobra.Command, args []string) error {
		var games []map[string]any
		if err := call(cmd, http.MethodGet, "/games", nil, &games); err != nil {
			return err
		}

		return printJson(cmd, games)
	},
}

var ratesCmd = &cobra.Command{
	Use:   "rates <game>",
	Short: "show exchange rates of a game",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rates []map[string]any
		if err := call(cmd, http.MethodGet, fmt.Sprintf("/games/%s/rates", args[0]), nil, &rates); err != nil {
			return err
		}

		return printJson(cmd, rates)
	},
}

var historyCmd = &cobra.Command{
	Use:       "history transfers|deposits",
	Short:     "show transfer or deposit history",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"transfers", "deposits"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] != "transfers" && args[0] != "deposits" {
			return fmt.Errorf("unknown history %q", args[0])
		}

		var histories []map[string]any
		if err := call(cmd, http.MethodGet, "/histories/"+args[0], nil, &histories); err != nil {
			return err
		}

		return printJson(cmd, histories)
	},
}

func init() {
	rootCmd.AddCommand(gamesCmd, ratesCmd, historyCmd)
}
