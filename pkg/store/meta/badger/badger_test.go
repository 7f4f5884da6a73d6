package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

func newTestStore(t *testing.T) *BadgerMetaStore {
	t.Helper()
	store, err := New(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	record := &meta.MetaRecord{
		FilePath:       "BL/invoice.pdf",
		IsPublic:       true,
		AllowedEmails:  []string{"ops@teliman.ml", "finance@teliman.ml"},
		OwnerEmail:     "admin@teliman.ml",
		PreviewPDFPath: "previews/BL/invoice.pdf.pdf",
		UpdatedAt:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "BL/invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, record, got)
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope.txt")
	assert.ErrorIs(t, err, meta.ErrNotFound)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Delete(context.Background(), "nope.txt"))
}

func TestListAscending(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Insert out of order; List must come back sorted.
	for _, key := range []string{"BL/z.pdf", "BL/", "BL/a.pdf", "HR/contract.pdf"} {
		require.NoError(t, store.Put(ctx, &meta.MetaRecord{FilePath: key}))
	}

	records, err := store.List(ctx, "BL/")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "BL/", records[0].FilePath)
	assert.Equal(t, "BL/a.pdf", records[1].FilePath)
	assert.Equal(t, "BL/z.pdf", records[2].FilePath)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := New(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, &meta.MetaRecord{FilePath: "BL/", IsPublic: true}))
	require.NoError(t, store.Close())

	reopened, err := New(Config{Path: dir})
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Get(ctx, "BL/")
	require.NoError(t, err)
	assert.True(t, got.IsPublic)
}
