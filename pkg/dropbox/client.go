// Package dropbox is a thin client for the Dropbox HTTP API covering the
// operations the library needs: recursive folder listings with cursor
// pagination, change-feed continuation, and content downloads.
package dropbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const (
	defaultAPIBase     = "https://api.dropboxapi.com"
	defaultContentBase = "https://content.dropboxapi.com"

	// Dropbox accepts up to 2000 entries per listing page.
	defaultPageLimit = 2000
)

// Config contains Dropbox client configuration.
type Config struct {
	AccessToken   string        `yaml:"access_token" env:"ACCESS_TOKEN"`
	RefreshToken  string        `yaml:"refresh_token" env:"REFRESH_TOKEN"`
	AppKey        string        `yaml:"app_key" env:"APP_KEY"`
	AppSecret     string        `yaml:"app_secret" env:"APP_SECRET"`
	RootPath      string        `yaml:"root_path" env:"ROOT_PATH"`
	WebhookSecret string        `yaml:"webhook_secret" env:"WEBHOOK_SECRET"`
	PageLimit     uint32        `yaml:"page_limit" env:"PAGE_LIMIT"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// GetDefaultConfig returns a default Dropbox configuration.
func GetDefaultConfig() *Config {
	return &Config{
		PageLimit: defaultPageLimit,
		Timeout:   60 * time.Second,
	}
}

// SigningSecret returns the secret used to verify webhook signatures. The
// app secret is what Dropbox signs notifications with; a separate value is
// only used when explicitly configured.
func (c *Config) SigningSecret() string {
	if c.WebhookSecret != "" {
		return c.WebhookSecret
	}
	return c.AppSecret
}

// Client issues authenticated calls against the Dropbox API.
type Client struct {
	apiBase     string
	contentBase string
	httpClient  *http.Client
	tokens      oauth2.TokenSource
	tracer      trace.Tracer
	pageLimit   uint32
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIBase overrides the API base URL. Used in tests.
func WithAPIBase(base string) Option {
	return func(c *Client) { c.apiBase = strings.TrimSuffix(base, "/") }
}

// WithContentAPIBase overrides the content API base URL. Used in tests.
func WithContentAPIBase(base string) Option {
	return func(c *Client) { c.contentBase = strings.TrimSuffix(base, "/") }
}

// NewClient creates a new Dropbox client. The token source is constructed
// from the configured credentials and owns credential refresh.
func NewClient(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		cfg = GetDefaultConfig()
	}

	tokens, err := NewTokenSource(context.Background(), Credentials{
		AccessToken:  cfg.AccessToken,
		RefreshToken: cfg.RefreshToken,
		AppKey:       cfg.AppKey,
		AppSecret:    cfg.AppSecret,
	})
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	pageLimit := cfg.PageLimit
	if pageLimit == 0 {
		pageLimit = defaultPageLimit
	}

	client := &Client{
		apiBase:     defaultAPIBase,
		contentBase: defaultContentBase,
		httpClient:  &http.Client{Timeout: timeout},
		tokens:      tokens,
		tracer:      otel.Tracer("dropbox-client"),
		pageLimit:   pageLimit,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// ListFolder lists all entries under path, recursively when requested.
// Only the first page is returned; callers must drain the listing with
// ListFolderContinue while HasMore is set.
func (c *Client) ListFolder(ctx context.Context, path string, recursive bool) (*ListFolderResponse, error) {
	ctx, span := c.tracer.Start(ctx, "dropbox_list_folder")
	defer span.End()

	span.SetAttributes(
		attribute.String("path", path),
		attribute.Bool("recursive", recursive),
	)

	request := &ListFolderRequest{
		Path:           normalizePath(path),
		Recursive:      recursive,
		IncludeDeleted: false,
		Limit:          c.pageLimit,
	}

	var response ListFolderResponse
	if err := c.rpc(ctx, "/2/files/list_folder", request, &response); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list folder %q: %w", path, err)
	}

	span.SetAttributes(attribute.Int("entries.count", len(response.Entries)))
	return &response, nil
}

// ListFolderContinue resumes a listing from a prior cursor. This is also the
// incremental change feed: calling it with a saved cursor returns everything
// that changed since that cursor was issued.
func (c *Client) ListFolderContinue(ctx context.Context, cursor string) (*ListFolderResponse, error) {
	ctx, span := c.tracer.Start(ctx, "dropbox_list_folder_continue")
	defer span.End()

	var response ListFolderResponse
	if err := c.rpc(ctx, "/2/files/list_folder/continue", &ListFolderContinueRequest{Cursor: cursor}, &response); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to continue listing: %w", err)
	}

	span.SetAttributes(attribute.Int("entries.count", len(response.Entries)))
	return &response, nil
}

// GetTemporaryLink produces a short-lived signed download URL for path.
func (c *Client) GetTemporaryLink(ctx context.Context, path string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "dropbox_get_temporary_link")
	defer span.End()

	span.SetAttributes(attribute.String("path", path))

	var response TemporaryLinkResponse
	if err := c.rpc(ctx, "/2/files/get_temporary_link", &TemporaryLinkRequest{Path: path}, &response); err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to get temporary link for %q: %w", path, err)
	}

	return response.Link, nil
}

// FetchContent retrieves file content by resolving a temporary link and
// streaming it. The returned reader must be closed by the caller.
func (c *Client) FetchContent(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	link, err := c.GetTemporaryLink(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to download %q: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, 0, &APIError{StatusCode: resp.StatusCode, Summary: "temporary link download failed"}
	}

	return resp.Body, resp.ContentLength, nil
}

// Download streams file content straight from the content endpoint. Unlike
// FetchContent it costs a single round trip; the argument rides in the
// Dropbox-API-Arg header because the body is reserved for content.
func (c *Client) Download(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	ctx, span := c.tracer.Start(ctx, "dropbox_download")
	defer span.End()

	span.SetAttributes(attribute.String("path", path))

	token, err := c.tokens.Token()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrAuth, err)
	}

	arg, err := json.Marshal(&DownloadRequest{Path: path})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal download arg: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.contentBase+"/2/files/download", nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Dropbox-API-Arg", string(arg))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, 0, fmt.Errorf("failed to download %q: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := classifyError(resp.StatusCode, resp.Body)
		span.RecordError(err)
		return nil, 0, err
	}

	return resp.Body, resp.ContentLength, nil
}

// rpc executes one JSON-in/JSON-out API call with bearer authentication.
func (c *Client) rpc(ctx context.Context, endpoint string, requestBody, responseBody interface{}) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyError(resp.StatusCode, resp.Body)
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(responseBody); err != nil {
		return fmt.Errorf("failed to parse API response: %w", err)
	}

	return nil
}

// classifyError converts a non-200 response into a sentinel-wrapped error.
func classifyError(statusCode int, body io.Reader) error {
	var summary struct {
		ErrorSummary string `json:"error_summary"`
	}
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	_ = json.Unmarshal(raw, &summary)

	switch {
	case statusCode == http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrAuth, summary.ErrorSummary)
	case statusCode == http.StatusConflict && strings.Contains(summary.ErrorSummary, "not_found"):
		return fmt.Errorf("%w: %s", ErrNotFound, summary.ErrorSummary)
	default:
		return &APIError{StatusCode: statusCode, Summary: summary.ErrorSummary}
	}
}

// normalizePath maps the user-facing root ("" or "/") to the empty string
// the API expects and ensures other paths carry a leading slash.
func normalizePath(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
