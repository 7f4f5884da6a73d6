package user

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/telimanlogistique/telimanshare/internal/cli/output"
	"github.com/telimanlogistique/telimanshare/internal/cli/timeutil"
	"github.com/telimanlogistique/telimanshare/pkg/models"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	Long: `List all TelimanShare accounts.

Examples:
  # List users as table
  telimanshare user list

  # List as JSON
  telimanshare user list -o json

  # List as YAML
  telimanshare user list -o yaml`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

// UserList is a list of users for table rendering.
type UserList []*models.User

// Headers implements TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"EMAIL", "ROLE", "APPROVED", "LAST LOGIN", "CREATED"}
}

// Rows implements TableRenderer.
func (ul UserList) Rows() [][]string {
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		approved := "no"
		if u.Approved {
			approved = "yes"
		}
		lastLogin := "-"
		if u.LastLogin != nil {
			lastLogin = timeutil.FormatTime(u.LastLogin.Format(time.RFC3339))
		}
		rows = append(rows, []string{
			u.Email,
			u.Role,
			approved,
			lastLogin,
			timeutil.FormatTime(u.CreatedAt.Format(time.RFC3339)),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	users, err := store.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	format, err := output.ParseFormat(listOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, users)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, users)
	default:
		if len(users) == 0 {
			fmt.Println("No users found.")
			return nil
		}
		return output.PrintTable(os.Stdout, UserList(users))
	}
}
