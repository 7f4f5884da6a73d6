package user

import (
	"fmt"

	"github.com/spf13/cobra"
)

var approveCmd = &cobra.Command{
	Use:   "approve <email>",
	Short: "Approve a pending signup",
	Long: `Approve a pending TelimanShare signup.

Approving an already-approved account is a no-op. Note that approvals
done here bypass the server, so no approval email is sent; use the API
for that.

Examples:
  # Approve a pending account
  telimanshare user approve aminata@teliman.ml`,
	Args: cobra.ExactArgs(1),
	RunE: runApprove,
}

func runApprove(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := store.ApproveUser(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to approve user: %w", err)
	}

	fmt.Printf("User %s approved\n", user.Email)
	return nil
}
