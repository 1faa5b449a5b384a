package dropbox

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Entry tags as reported by the files/list_folder API.
const (
	TagFile    = "file"
	TagFolder  = "folder"
	TagDeleted = "deleted"
)

// Entry represents one item in a folder listing or change feed.
type Entry struct {
	Tag            string `json:".tag"`
	Name           string `json:"name"`
	ID             string `json:"id,omitempty"`
	PathLower      string `json:"path_lower"`
	PathDisplay    string `json:"path_display"`
	Rev            string `json:"rev,omitempty"`
	Size           int64  `json:"size,omitempty"`
	ContentHash    string `json:"content_hash,omitempty"`
	ClientModified string `json:"client_modified,omitempty"`
	ServerModified string `json:"server_modified,omitempty"`
}

// IsFile reports whether the entry is a regular file.
func (e *Entry) IsFile() bool { return e.Tag == TagFile }

// IsDeleted reports whether the entry is a deletion marker.
func (e *Entry) IsDeleted() bool { return e.Tag == TagDeleted }

// ModifiedTime parses the server-side modification timestamp, falling back
// to the client-reported one. Returns nil when neither parses.
func (e *Entry) ModifiedTime() *time.Time {
	for _, raw := range []string{e.ServerModified, e.ClientModified} {
		if raw == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return &t
		}
	}
	return nil
}

// ListFolderRequest is the request body for files/list_folder.
type ListFolderRequest struct {
	Path           string `json:"path"`
	Recursive      bool   `json:"recursive"`
	IncludeDeleted bool   `json:"include_deleted"`
	Limit          uint32 `json:"limit,omitempty"`
}

// ListFolderContinueRequest is the request body for files/list_folder/continue.
type ListFolderContinueRequest struct {
	Cursor string `json:"cursor"`
}

// ListFolderResponse is one page of a folder listing or change feed.
// While HasMore is true the listing must be drained with ListFolderContinue
// before Cursor can be treated as a resume point.
type ListFolderResponse struct {
	Entries []Entry `json:"entries"`
	Cursor  string  `json:"cursor"`
	HasMore bool    `json:"has_more"`
}

// DownloadRequest is the Dropbox-API-Arg payload for files/download.
type DownloadRequest struct {
	Path string `json:"path"`
}

// TemporaryLinkRequest is the request body for files/get_temporary_link.
type TemporaryLinkRequest struct {
	Path string `json:"path"`
}

// TemporaryLinkResponse carries a short-lived signed download URL.
type TemporaryLinkResponse struct {
	Metadata Entry  `json:"metadata"`
	Link     string `json:"link"`
}

// Sentinel errors for API failure classification.
var (
	// ErrAuth indicates a missing, expired, or invalid credential. Callers
	// must not retry without refreshing credentials.
	ErrAuth = errors.New("dropbox: authentication failed")

	// ErrNotFound indicates the requested path does not exist.
	ErrNotFound = errors.New("dropbox: path not found")
)

// APIError is a non-2xx response from the Dropbox API.
type APIError struct {
	StatusCode int
	Summary    string
}

func (e *APIError) Error() string {
	if e.Summary != "" {
		return fmt.Sprintf("dropbox: API request failed with status %d: %s", e.StatusCode, e.Summary)
	}
	return fmt.Sprintf("dropbox: API request failed with status %d", e.StatusCode)
}

// IsRetryable reports whether an error is a transient condition worth
// retrying with backoff.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, retryable := range []string{"too_many_requests", "timeout", "connection", "network"} {
		if strings.Contains(errStr, retryable) {
			return true
		}
	}
	return false
}
