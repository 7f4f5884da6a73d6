package share

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"root slash", "/", ""},
		{"file", "BL/invoice.pdf", "BL/invoice.pdf"},
		{"leading slash", "/BL/invoice.pdf", "BL/invoice.pdf"},
		{"duplicate slashes", "BL//2026///invoice.pdf", "BL/2026/invoice.pdf"},
		{"explicit folder", "BL/2026/", "BL/2026/"},
		{"folder without slash", "BL/2026", "BL/2026/"},
		{"single folder", "FINANCE", "FINANCE/"},
		{"dotted name is a file", "archive.tar.gz", "archive.tar.gz"},
		{"dotted folder stays folder", "v1.2/", "v1.2/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.in))
		})
	}
}

func TestAncestorKeys(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"nested file", "BL/2026/invoice.pdf", []string{"BL/2026/", "BL/"}},
		{"nested folder", "BL/2026/", []string{"BL/"}},
		{"top-level file", "invoice.pdf", []string{}},
		{"top-level folder", "BL/", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AncestorKeys(tt.in))
		})
	}
}

func TestIsFolderKey(t *testing.T) {
	assert.True(t, IsFolderKey("BL/"))
	assert.False(t, IsFolderKey("BL/invoice.pdf"))
}
