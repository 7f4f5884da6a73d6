// Package share implements the TelimanShare document-sharing core: path
// normalization, effective-permission resolution, permission-filtered
// browsing, the upload pipeline, sharing management and the soft-delete
// trash cycle.
//
// Everything operates on normalized keys. A key is a slash-delimited
// relative path; folder keys carry a trailing "/". Keys address both the
// object store (under the "files/" namespace) and the metadata store.
package share

import "strings"

// NormalizeKey converts a user-supplied path to its canonical key.
//
// Duplicate slashes collapse, leading slashes are stripped. A path with a
// trailing slash, or whose final segment has no dot extension, is a folder
// key and gets a trailing "/". An empty path stays empty (the root).
func NormalizeKey(path string) string {
	isFolder := strings.HasSuffix(path, "/")

	segments := make([]string, 0, 8)
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return ""
	}

	key := strings.Join(segments, "/")
	last := segments[len(segments)-1]
	if isFolder || !strings.Contains(last, ".") {
		key += "/"
	}
	return key
}

// AncestorKeys returns the ancestor folder keys of key, nearest first,
// excluding key itself. The root has no key and is never returned.
//
//	AncestorKeys("BL/2026/invoice.pdf") = ["BL/2026/", "BL/"]
//	AncestorKeys("BL/")                 = []
func AncestorKeys(key string) []string {
	trimmed := strings.TrimSuffix(key, "/")
	out := make([]string, 0, 4)
	for {
		idx := strings.LastIndexByte(trimmed, '/')
		if idx < 0 {
			return out
		}
		trimmed = trimmed[:idx]
		out = append(out, trimmed+"/")
	}
}

// IsFolderKey reports whether key addresses a folder.
func IsFolderKey(key string) bool {
	return strings.HasSuffix(key, "/")
}
