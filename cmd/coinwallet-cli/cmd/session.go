package cmd

import (
	"net/http"

	"github.com/spf13/cobra"
)

var loginOpt struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "login with username and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		var session map[string]any
		if err := call(cmd, http.MethodPost, "/session/login", &loginOpt, &session); err != nil {
			return err
		}

		return printJson(cmd, session)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "drop the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		return call(cmd, http.MethodPost, "/session/logout", nil, nil)
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "show the current session with identity and balances",
	RunE: func(cmd *cobra.Command, args []string) error {
		var session map[string]any
		if err := call(cmd, http.MethodGet, "/session", nil, &session); err != nil {
			return err
		}

		return printJson(cmd, session)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, meCmd)

	loginCmd.Flags().StringVarP(&loginOpt.Username, "username", "u", "", "username")
	loginCmd.Flags().StringVarP(&loginOpt.Password, "password", "p", "", "password")
	_ = loginCmd.MarkFlagRequired("username")
	_ = loginCmd.MarkFlagRequired("password")
}
