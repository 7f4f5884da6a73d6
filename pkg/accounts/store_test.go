package accounts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telimanlogistique/telimanshare/pkg/models"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	store, err := New(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "accounts.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func createTestUser(t *testing.T, store *GORMStore, email string) *models.User {
	t.Helper()
	hash, err := models.HashPassword("secret123")
	require.NoError(t, err)

	user := &models.User{Email: email, PasswordHash: hash, Role: string(models.RoleUser)}
	_, err = store.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestCreateAndGetUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := createTestUser(t, store, "Alice@Teliman.ML")

	// Emails are normalized to lowercase on the way in and on lookup.
	assert.Equal(t, "alice@teliman.ml", created.Email)
	assert.NotEmpty(t, created.ID)

	got, err := store.GetUser(ctx, "ALICE@teliman.ml")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.False(t, got.Approved)
}

func TestCreateDuplicateUser(t *testing.T) {
	store := newTestStore(t)

	createTestUser(t, store, "alice@teliman.ml")

	hash, err := models.HashPassword("other")
	require.NoError(t, err)
	_, err = store.CreateUser(context.Background(), &models.User{Email: "alice@teliman.ml", PasswordHash: hash})
	assert.ErrorIs(t, err, models.ErrDuplicateUser)
}

func TestCreateUserInvalidEmail(t *testing.T) {
	store := newTestStore(t)

	_, err := store.CreateUser(context.Background(), &models.User{Email: "not-an-email", PasswordHash: "x"})
	assert.Error(t, err)
}

func TestApproveUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "alice@teliman.ml")

	user, err := store.ApproveUser(ctx, "alice@teliman.ml")
	require.NoError(t, err)
	assert.True(t, user.Approved)

	// Idempotent.
	user, err = store.ApproveUser(ctx, "alice@teliman.ml")
	require.NoError(t, err)
	assert.True(t, user.Approved)

	_, err = store.ApproveUser(ctx, "nobody@teliman.ml")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestDeleteUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "alice@teliman.ml")
	require.NoError(t, store.DeleteUser(ctx, "alice@teliman.ml"))

	_, err := store.GetUser(ctx, "alice@teliman.ml")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	assert.ErrorIs(t, store.DeleteUser(ctx, "alice@teliman.ml"), models.ErrUserNotFound)
}

func TestValidateCredentials(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "alice@teliman.ml")

	user, err := store.ValidateCredentials(ctx, "alice@teliman.ml", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "alice@teliman.ml", user.Email)

	_, err = store.ValidateCredentials(ctx, "alice@teliman.ml", "wrong")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Unknown user maps to the same error so probing emails leaks nothing.
	_, err = store.ValidateCredentials(ctx, "nobody@teliman.ml", "secret123")
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestUpdatePasswordAndLastLogin(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createTestUser(t, store, "alice@teliman.ml")

	newHash, err := models.HashPassword("changed456")
	require.NoError(t, err)
	require.NoError(t, store.UpdatePassword(ctx, "alice@teliman.ml", newHash))

	_, err = store.ValidateCredentials(ctx, "alice@teliman.ml", "changed456")
	require.NoError(t, err)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdateLastLogin(ctx, "alice@teliman.ml", ts))

	user, err := store.GetUser(ctx, "alice@teliman.ml")
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)

	assert.ErrorIs(t, store.UpdatePassword(ctx, "nobody@teliman.ml", newHash), models.ErrUserNotFound)
}

func TestEnsureAdminUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	password, err := store.EnsureAdminUser(ctx, "admin@teliman.ml")
	require.NoError(t, err)
	assert.NotEmpty(t, password)

	admin, err := store.GetUser(ctx, "admin@teliman.ml")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.Approved)

	_, err = store.ValidateCredentials(ctx, "admin@teliman.ml", password)
	require.NoError(t, err)

	// Second call is a no-op.
	password, err = store.EnsureAdminUser(ctx, "admin@teliman.ml")
	require.NoError(t, err)
	assert.Empty(t, password)
}

func TestActivityLog(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, action := range []string{"upload", "download", "delete"} {
		require.NoError(t, store.RecordActivity(ctx, action, "BL/invoice.pdf", "alice@teliman.ml"))
	}

	entries, err := store.ListActivity(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "download", entries[1].Action)

	page2, err := store.ListActivity(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "upload", page2[0].Action)
}

func TestComments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.Comment{FilePath: "BL/invoice.pdf", AuthorEmail: "Alice@Teliman.ML", Body: "please double-check the totals"}
	require.NoError(t, store.CreateComment(ctx, first))
	assert.Equal(t, "alice@teliman.ml", first.AuthorEmail)
	assert.NotZero(t, first.ID)

	second := &models.Comment{FilePath: "BL/invoice.pdf", AuthorEmail: "bob@teliman.ml", Body: "totals fixed"}
	require.NoError(t, store.CreateComment(ctx, second))
	require.NoError(t, store.CreateComment(ctx, &models.Comment{FilePath: "BL/other.pdf", AuthorEmail: "bob@teliman.ml", Body: "unrelated"}))

	// Only the thread on the requested path, oldest first.
	comments, err := store.ListComments(ctx, "BL/invoice.pdf")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, first.ID, comments[0].ID)
	assert.Equal(t, second.ID, comments[1].ID)

	got, err := store.GetComment(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "please double-check the totals", got.Body)

	require.NoError(t, store.DeleteComment(ctx, first.ID))
	_, err = store.GetComment(ctx, first.ID)
	assert.ErrorIs(t, err, models.ErrCommentNotFound)
	assert.ErrorIs(t, store.DeleteComment(ctx, first.ID), models.ErrCommentNotFound)
}

func TestCreateCommentValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.CreateComment(ctx, &models.Comment{AuthorEmail: "alice@teliman.ml", Body: "no path"}))
	assert.Error(t, store.CreateComment(ctx, &models.Comment{FilePath: "BL/invoice.pdf", AuthorEmail: "alice@teliman.ml"}))
}

func TestListUsersSorted(t *testing.T) {
	store := newTestStore(t)

	createTestUser(t, store, "zoe@teliman.ml")
	createTestUser(t, store, "alice@teliman.ml")

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "alice@teliman.ml", users[0].Email)
	assert.Equal(t, "zoe@teliman.ml", users[1].Email)
}
