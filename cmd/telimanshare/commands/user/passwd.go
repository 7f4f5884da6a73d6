package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/internal/cli/prompt"
	"github.com/telimanlogistique/telimanshare/pkg/models"
)

var passwdPassword string

var passwdCmd = &cobra.Command{
	Use:   "passwd <email>",
	Short: "Reset a user's password",
	Long: `Reset the password of a TelimanShare account.

Prompts for the new password unless --password is given. Existing
sessions stay valid until their tokens expire.

Examples:
  # Reset interactively
  telimanshare user passwd aminata@teliman.ml

  # Reset from a flag (visible in shell history; prefer the prompt)
  telimanshare user passwd aminata@teliman.ml --password newsecret`,
	Args: cobra.ExactArgs(1),
	RunE: runPasswd,
}

func init() {
	passwdCmd.Flags().StringVarP(&passwdPassword, "password", "p", "", "New password (prompts if not provided)")
}

func runPasswd(cmd *cobra.Command, args []string) error {
	email := args[0]

	password := passwdPassword
	if password == "" {
		var err error
		password, err = prompt.PasswordWithConfirmation("New password", "Confirm password", 8)
		if err != nil {
			return handleAbort(err)
		}
	}

	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.UpdatePassword(cmd.Context(), email, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Printf("Password updated for %s\n", email)
	return nil
}
