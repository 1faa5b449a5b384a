package dropbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		&Config{AccessToken: "test-token"},
		WithAPIBase(server.URL),
	)
	require.NoError(t, err)

	return client
}

func TestClient_ListFolder(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/list_folder", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req ListFolderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/library", req.Path)
		assert.True(t, req.Recursive)
		assert.False(t, req.IncludeDeleted)

		json.NewEncoder(w).Encode(ListFolderResponse{
			Entries: []Entry{
				{Tag: TagFile, Name: "a.pdf", PathLower: "/library/math/a.pdf", PathDisplay: "/Library/Math/a.pdf"},
				{Tag: TagFolder, Name: "math", PathLower: "/library/math"},
			},
			Cursor:  "cursor-1",
			HasMore: true,
		})
	}))

	resp, err := client.ListFolder(context.Background(), "/library", true)
	require.NoError(t, err)

	assert.Len(t, resp.Entries, 2)
	assert.Equal(t, "cursor-1", resp.Cursor)
	assert.True(t, resp.HasMore)
	assert.True(t, resp.Entries[0].IsFile())
	assert.False(t, resp.Entries[1].IsFile())
}

func TestClient_ListFolderContinue(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/list_folder/continue", r.URL.Path)

		var req ListFolderContinueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "cursor-1", req.Cursor)

		json.NewEncoder(w).Encode(ListFolderResponse{
			Entries: []Entry{{Tag: TagDeleted, Name: "old.pdf", PathLower: "/library/old.pdf"}},
			Cursor:  "cursor-2",
			HasMore: false,
		})
	}))

	resp, err := client.ListFolderContinue(context.Background(), "cursor-1")
	require.NoError(t, err)

	require.Len(t, resp.Entries, 1)
	assert.True(t, resp.Entries[0].IsDeleted())
	assert.Equal(t, "cursor-2", resp.Cursor)
	assert.False(t, resp.HasMore)
}

func TestClient_GetTemporaryLink(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/get_temporary_link", r.URL.Path)

		var req TemporaryLinkRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/library/math/a.pdf", req.Path)

		json.NewEncoder(w).Encode(TemporaryLinkResponse{Link: "https://dl.example/a.pdf"})
	}))

	link, err := client.GetTemporaryLink(context.Background(), "/library/math/a.pdf")
	require.NoError(t, err)
	assert.Equal(t, "https://dl.example/a.pdf", link)
}

func TestClient_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/2/files/download", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var arg DownloadRequest
		require.NoError(t, json.Unmarshal([]byte(r.Header.Get("Dropbox-API-Arg")), &arg))
		assert.Equal(t, "/library/math/a.pdf", arg.Path)

		w.Write([]byte("%PDF-1.7 content"))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(
		&Config{AccessToken: "test-token"},
		WithContentAPIBase(server.URL),
	)
	require.NoError(t, err)

	body, size, err := client.Download(context.Background(), "/library/math/a.pdf")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7 content", string(data))
	assert.Equal(t, int64(len(data)), size)
}

func TestClient_DownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error_summary": "path/not_found/"}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(
		&Config{AccessToken: "test-token"},
		WithContentAPIBase(server.URL),
	)
	require.NoError(t, err)

	_, _, err = client.Download(context.Background(), "/missing.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_AuthError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error_summary": "expired_access_token/"}`))
	}))

	_, err := client.ListFolder(context.Background(), "", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuth))
	assert.False(t, IsRetryable(err))
}

func TestClient_PathNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error_summary": "path/not_found/"}`))
	}))

	_, err := client.GetTemporaryLink(context.Background(), "/missing.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestClient_RateLimitIsRetryable(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error_summary": "too_many_requests/"}`))
	}))

	_, err := client.ListFolderContinue(context.Background(), "cursor")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAuth))
	assert.True(t, IsRetryable(err))
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"/library", "/library"},
		{"library", "/library"},
	}

	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEntry_ModifiedTime(t *testing.T) {
	entry := &Entry{ServerModified: "2025-03-01T10:30:00Z"}
	modified := entry.ModifiedTime()
	require.NotNil(t, modified)
	assert.Equal(t, 2025, modified.Year())

	entry = &Entry{ClientModified: "2025-03-01T10:30:00Z"}
	require.NotNil(t, entry.ModifiedTime())

	entry = &Entry{}
	assert.Nil(t, entry.ModifiedTime())
}
