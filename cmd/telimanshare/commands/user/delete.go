package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/internal/cli/prompt"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:   "delete <email>",
	Short: "Delete a user",
	Long: `Delete a TelimanShare account.

Files owned by the user stay in place; their sharing records keep the
owner email and an admin can reassign them via the API.

Examples:
  # Delete with confirmation prompt
  telimanshare user delete aminata@teliman.ml

  # Delete without prompting
  telimanshare user delete aminata@teliman.ml --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	email := args[0]

	confirmed, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete user %s?", email), deleteForce)
	if err != nil {
		return handleAbort(err)
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.DeleteUser(cmd.Context(), email); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Printf("User %s deleted\n", email)
	return nil
}
