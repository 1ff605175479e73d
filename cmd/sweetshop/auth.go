package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func loginCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in to the sweet shop",
		Long: `Log in to the sweet shop and save the session.

The password is read from the terminal, or from the
SWEETSHOP_PASSWORD environment variable when set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()

			password := os.Getenv("SWEETSHOP_PASSWORD")
			if password == "" {
				fmt.Print("Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Println()
				if err != nil {
					return fmt.Errorf("read password: %w", err)
				}
				password = string(raw)
			}

			if err := stores.session.Login(cmd.Context(), args[0], password); err != nil {
				return err
			}
			session, _ := stores.session.Current()
			success("Logged in as %s", session.Username)
			if session.IsAdmin {
				info("admin privileges detected")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	return cmd
}

func logoutCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()

			if err := stores.session.Logout(cmd.Context()); err != nil {
				return err
			}
			success("Logged out")
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	return cmd
}

func whoamiCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := openStores(cmd.Context(), apiURL)
			if err != nil {
				return err
			}
			defer stores.Close()

			session, ok := stores.session.Current()
			if !ok {
				return fmt.Errorf("not logged in; run %q first", "sweetshop login")
			}
			role := "customer"
			if session.IsAdmin {
				role = "admin"
			}
			fmt.Printf("%s (%s)\n", session.Username, role)
			return nil
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Backend API base URL (overrides config)")
	return cmd
}

// requireLogin returns an error telling the user to log in when no
// session survived the restore.
func requireLogin(stores *cliStores) error {
	if _, ok := stores.session.Current(); !ok {
		return fmt.Errorf("not logged in; run %q first", "sweetshop login")
	}
	return nil
}
