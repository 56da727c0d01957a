package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsync/fieldsync/internal/config"
)

// LoginCmd exchanges credentials for a persisted session.
func LoginCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Sign in and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			if password == "" {
				return fmt.Errorf("the --password flag is required")
			}

			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.Session.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			fmt.Printf("Logged in as %s (%s)\n", snap.Name, snap.Role)
			return nil
		},
	}
	cmd.Flags().String("password", "", "Account password")
	return cmd
}

// LogoutCmd clears the persisted session.
func LogoutCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Session.Logout(cmd.Context()); err != nil {
				return err
			}

			fmt.Println("Logged out")
			return nil
		},
	}
}

// WhoamiCmd prints the restored session identity.
func WhoamiCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			snap, err := app.RequireSession(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("%s <%s>\n", snap.Name, snap.Email)
			fmt.Printf("Role:    %s\n", snap.Role)
			if snap.TechnicianID != "" {
				fmt.Printf("Tech ID: %s\n", snap.TechnicianID)
			}
			if snap.CustomerID != "" {
				fmt.Printf("Cust ID: %s\n", snap.CustomerID)
			}
			fmt.Printf("Expires: %s\n", snap.ExpiresAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}
