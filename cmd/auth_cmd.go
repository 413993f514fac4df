package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bearer token used for server requests",
	}
	cmd.AddCommand(authLoginCmd())
	cmd.AddCommand(authLogoutCmd())
	cmd.AddCommand(authStatusCmd())
	return cmd
}

func authLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <token>",
		Short: "Store a bearer token",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			app.tokens.SetToken(args[0])
			fmt.Println("Token stored.")
		},
	}
}

func authLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored bearer token",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			app.tokens.Clear()
			fmt.Println("Token removed.")
		},
	}
}

func authStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a token is stored",
		Run: func(cmd *cobra.Command, args []string) {
			app := buildApp()
			defer app.close()
			token := app.tokens.Token()
			if token == "" {
				fmt.Println("No token stored.")
				return
			}
			masked := "****"
			if len(token) > 8 {
				masked = token[:4] + "****" + token[len(token)-4:]
			}
			fmt.Printf("Token stored: %s\n", masked)
		},
	}
}
