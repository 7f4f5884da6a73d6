package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/internal/cli/prompt"
	"github.com/telimanlogistique/telimanshare/pkg/models"
)

var (
	addEmail    string
	addPassword string
	addRole     string
	addApproved bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a new user",
	Long: `Create a new TelimanShare account.

If email or password are not provided via flags, you will be prompted
to enter them interactively. Accounts created here are approved by
default; pass --approved=false to leave them pending.

Examples:
  # Create user interactively
  telimanshare user add

  # Create user with flags
  telimanshare user add --email aminata@teliman.ml --password secret

  # Create an admin
  telimanshare user add --email ops@teliman.ml --password secret --role admin

  # Create a pending account (must be approved before use)
  telimanshare user add --email guest@partner.com --password secret --approved=false`,
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addEmail, "email", "e", "", "Email address (required)")
	addCmd.Flags().StringVarP(&addPassword, "password", "p", "", "Password (prompts if not provided)")
	addCmd.Flags().StringVar(&addRole, "role", "user", "Role (user|admin)")
	addCmd.Flags().BoolVar(&addApproved, "approved", true, "Approve the account immediately")
}

func runAdd(cmd *cobra.Command, args []string) error {
	// Check if running interactively (no flags provided)
	interactive := !cmd.Flags().Changed("email")

	email := addEmail
	if email == "" {
		var err error
		email, err = prompt.InputRequired("Email")
		if err != nil {
			return handleAbort(err)
		}
	}

	password := addPassword
	if password == "" {
		var err error
		password, err = prompt.PasswordWithConfirmation("Password", "Confirm password", 8)
		if err != nil {
			return handleAbort(err)
		}
	}

	role := addRole
	if interactive && !cmd.Flags().Changed("role") {
		var err error
		role, err = prompt.Select("Role", []prompt.SelectOption{
			{Label: "user", Value: "user", Description: "Regular user with access gated by sharing"},
			{Label: "admin", Value: "admin", Description: "Administrator with full access"},
		})
		if err != nil {
			return handleAbort(err)
		}
	}
	if !models.UserRole(role).IsValid() {
		return fmt.Errorf("invalid role %q (valid: user, admin)", role)
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

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		Approved:     addApproved,
	}
	if _, err := store.CreateUser(cmd.Context(), user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("User %s created (role: %s, approved: %t)\n", user.Email, user.Role, user.Approved)
	return nil
}
