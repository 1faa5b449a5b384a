package sync

import "strings"

// UnknownTextbook is the collection files fall into when their path carries
// no folder segment under the root.
const UnknownTextbook = "Unknown"

// TextbookNameOf maps a remote file path to its textbook name: the first
// segment below rootPath. A file sitting directly under the root groups
// under its own name. Matching is case-insensitive because the remote
// service lowercases path_lower while the configured root may not be.
func TextbookNameOf(pathDisplay, rootPath string) string {
	path := pathDisplay
	root := strings.TrimSuffix(rootPath, "/")
	if root != "" && strings.HasPrefix(strings.ToLower(path), strings.ToLower(root)) {
		path = path[len(root):]
	}
	path = strings.TrimPrefix(path, "/")

	segments := strings.Split(path, "/")
	if segments[0] == "" {
		return UnknownTextbook
	}
	return segments[0]
}

// IsSyncedFileName reports whether a file name belongs in the catalog.
// Only PDF documents are tracked.
func IsSyncedFileName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}
