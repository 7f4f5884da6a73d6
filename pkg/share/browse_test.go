package share

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telimanlogistique/telimanshare/pkg/store/meta"
)

func seedTree(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()
	for _, path := range []string{
		"files/BL/.folder",
		"files/BL/invoice.pdf",
		"files/BL/manifest.pdf",
		"files/BL/2026/.folder",
		"files/FINANCE/.folder",
		"files/FINANCE/report.xlsx",
		"files/HR/contract.pdf",
	} {
		require.NoError(t, f.objects.Write(ctx, path, []byte("x"), "application/octet-stream", nil))
	}
}

func TestListFolderFiltersByPermission(t *testing.T) {
	f := newFixture(t)
	seedTree(t, f)
	seedMeta(t, f.meta,
		&meta.MetaRecord{FilePath: "BL/", IsPublic: true},
		&meta.MetaRecord{FilePath: "FINANCE/", AllowedEmails: []string{"bob@teliman.ml"}},
	)

	entries, err := f.service.ListFolder(context.Background(), "", alice)
	require.NoError(t, err)

	// Alice sees only the public BL folder: FINANCE is allow-listed to
	// bob and HR has no record at all (default-deny).
	require.Len(t, entries, 1)
	assert.Equal(t, "BL", entries[0].Name)
	assert.Equal(t, "BL/", entries[0].Path)
	assert.True(t, entries[0].IsFolder)
	assert.True(t, entries[0].IsPublic)
	assert.False(t, entries[0].CanManage)
}

func TestListFolderAdminSeesEverything(t *testing.T) {
	f := newFixture(t)
	seedTree(t, f)

	entries, err := f.service.ListFolder(context.Background(), "", root)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"BL", "FINANCE", "HR"}, names)
	for _, e := range entries {
		assert.True(t, e.CanManage)
	}
}

func TestListFolderHidesPlaceholdersAndSorts(t *testing.T) {
	f := newFixture(t)
	seedTree(t, f)
	seedMeta(t, f.meta, &meta.MetaRecord{FilePath: "BL/", IsPublic: true})

	entries, err := f.service.ListFolder(context.Background(), "BL", alice)
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, "2026", entries[0].Name)
	assert.True(t, entries[0].IsFolder)
	assert.Equal(t, "invoice.pdf", entries[1].Name)
	assert.Equal(t, "manifest.pdf", entries[2].Name)
	for _, e := range entries {
		assert.NotEqual(t, FolderPlaceholder, e.Name)
	}
}

func TestListFolderFileRecordOverridesFolder(t *testing.T) {
	f := newFixture(t)
	seedTree(t, f)
	seedMeta(t, f.meta,
		&meta.MetaRecord{FilePath: "FINANCE/", AllowedEmails: []string{"bob@teliman.ml"}},
		&meta.MetaRecord{FilePath: "FINANCE/report.xlsx", IsPublic: true},
	)

	entries, err := f.service.ListFolder(context.Background(), "FINANCE", alice)
	require.NoError(t, err)

	// The folder is allow-listed away from alice, but the report's own
	// public record lets her see that one file.
	require.Len(t, entries, 1)
	assert.Equal(t, "report.xlsx", entries[0].Name)
}

func TestListFolderEmpty(t *testing.T) {
	f := newFixture(t)

	entries, err := f.service.ListFolder(context.Background(), "nothing/here", root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSharedWithMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seedMeta(t, f.meta,
		&meta.MetaRecord{FilePath: "BL/", OwnerEmail: "bob@teliman.ml", AllowedEmails: []string{"alice@teliman.ml"}},
		&meta.MetaRecord{FilePath: "FINANCE/report.xlsx", OwnerEmail: "bob@teliman.ml", AllowedEmails: []string{"alice@teliman.ml", "ops@teliman.ml"}},
		&meta.MetaRecord{FilePath: "HR/", OwnerEmail: "alice@teliman.ml", AllowedEmails: []string{"alice@teliman.ml"}},
		&meta.MetaRecord{FilePath: "PUBLIC/", OwnerEmail: "bob@teliman.ml", IsPublic: true},
	)

	entries, err := f.service.SharedWithMe(ctx, alice)
	require.NoError(t, err)

	// Alice's own HR folder and the public folder are not "shared with"
	// her; only the two allow-listed paths remain, ascending.
	require.Len(t, entries, 2)
	assert.Equal(t, "BL/", entries[0].Path)
	assert.Equal(t, "BL", entries[0].Name)
	assert.True(t, entries[0].IsFolder)
	assert.Equal(t, "bob@teliman.ml", entries[0].OwnerEmail)

	assert.Equal(t, "FINANCE/report.xlsx", entries[1].Path)
	assert.Equal(t, "report.xlsx", entries[1].Name)
	assert.False(t, entries[1].IsFolder)

	// Nobody shared anything with bob.
	entries, err = f.service.SharedWithMe(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListFolderOneMetaReadPerFolderRecord(t *testing.T) {
	f := newFixture(t)
	seedTree(t, f)

	counting := &countingMetaStore{Store: f.meta}
	seedMeta(t, counting.Store, &meta.MetaRecord{FilePath: "BL/", IsPublic: true})
	service := NewService(f.objects, counting)

	_, err := service.ListFolder(context.Background(), "BL", alice)
	require.NoError(t, err)

	// Three children probe their own keys, the folder record loads once.
	assert.Equal(t, 4, counting.gets)
}
