package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

func TestGetPutDelete(t *testing.T) {
	store := New()
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	_, err := store.Get(ctx, "BL/invoice.pdf")
	assert.ErrorIs(t, err, meta.ErrNotFound)

	record := &meta.MetaRecord{
		FilePath:      "BL/invoice.pdf",
		IsPublic:      false,
		AllowedEmails: []string{"ops@teliman.ml"},
		OwnerEmail:    "admin@teliman.ml",
		UpdatedAt:     time.Now().UTC(),
	}
	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, "BL/invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, record.OwnerEmail, got.OwnerEmail)
	assert.Equal(t, record.AllowedEmails, got.AllowedEmails)

	require.NoError(t, store.Delete(ctx, "BL/invoice.pdf"))
	_, err = store.Get(ctx, "BL/invoice.pdf")
	assert.ErrorIs(t, err, meta.ErrNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, store.Delete(ctx, "BL/invoice.pdf"))
}

func TestGetReturnsCopy(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, &meta.MetaRecord{
		FilePath:      "FINANCE/",
		AllowedEmails: []string{"cfo@teliman.ml"},
	}))

	got, err := store.Get(ctx, "FINANCE/")
	require.NoError(t, err)
	got.AllowedEmails[0] = "intruder@example.com"
	got.IsPublic = true

	again, err := store.Get(ctx, "FINANCE/")
	require.NoError(t, err)
	assert.Equal(t, []string{"cfo@teliman.ml"}, again.AllowedEmails)
	assert.False(t, again.IsPublic)
}

func TestListByPrefix(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, key := range []string{"BL/", "BL/a.pdf", "BL/b.pdf", "FINANCE/", "FINANCE/q1.xlsx"} {
		require.NoError(t, store.Put(ctx, &meta.MetaRecord{FilePath: key}))
	}

	records, err := store.List(ctx, "BL/")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "BL/", records[0].FilePath)
	assert.Equal(t, "BL/a.pdf", records[1].FilePath)
	assert.Equal(t, "BL/b.pdf", records[2].FilePath)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 5)

	none, err := store.List(ctx, "HR/")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAllows(t *testing.T) {
	record := &meta.MetaRecord{AllowedEmails: []string{"ops@teliman.ml"}}

	assert.True(t, record.Allows("ops@teliman.ml"))
	assert.True(t, record.Allows("OPS@Teliman.ML"))
	assert.False(t, record.Allows("other@teliman.ml"))
}
