// Package user implements local user management commands.
//
// These commands operate directly on the accounts database from the
// configuration file, so they work without a running server (and without
// an admin token). Run them on the host that owns the database.
package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/internal/cli/prompt"
	"github.com/telimanlogistique/telimanshare/pkg/accounts"
	"github.com/telimanlogistique/telimanshare/pkg/config"
)

// Cmd is the parent command for user management.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "User management",
	Long: `Manage TelimanShare accounts.

User commands operate directly on the accounts database, so they must run
on the server host. These operations do not require a running server.

Examples:
  # List all users
  telimanshare user list

  # Create a new user interactively
  telimanshare user add

  # Approve a pending signup
  telimanshare user approve aminata@teliman.ml

  # Reset a password
  telimanshare user passwd aminata@teliman.ml

  # Delete a user
  telimanshare user delete aminata@teliman.ml`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(passwdCmd)
}

// openStore loads the configuration and opens the accounts database.
// Callers must Close the returned store.
func openStore(cmd *cobra.Command) (*accounts.GORMStore, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return nil, err
	}

	store, err := accounts.New(&cfg.Accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to open accounts database: %w", err)
	}
	return store, nil
}

// handleAbort converts a prompt cancellation into a quiet error.
func handleAbort(err error) error {
	if prompt.IsAborted(err) {
		return fmt.Errorf("aborted")
	}
	return err
}
