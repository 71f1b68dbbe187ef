package clientcli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/auth"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultExpires is the lifetime of presigned URLs (15 minutes).
	DefaultExpires = 15 * time.Minute

	fragmentsPath = "/v1/fragments"
)

// Client performs operations against a fragments server.
type Client struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithClock replaces time.Now when presigning requests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a Client. Defaults are applied to cfg before its credentials are validated.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Health calls the unauthenticated health route.
func (c *Client) Health(ctx context.Context) (*HealthResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Endpoint+"/", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var result HealthResult
	if err := c.doJSON(req, http.StatusOK, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create stores data as a new fragment of contentType and returns it with its location.
func (c *Client) Create(ctx context.Context, contentType string, data []byte) (UploadResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, fragmentsPath, bytes.NewReader(data))
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	var resp fragmentResponse
	header, err := c.do(req, http.StatusCreated, &resp)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		Location: header.Get("Location"),
		Fragment: resp.Fragment,
	}, nil
}

// Upload creates one fragment per file. With Recursive set, a directory is walked and
// every regular file in it is uploaded; per-file failures are reported in the results.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}
	if opts.Recursive {
		return c.uploadRecursive(ctx, opts)
	}
	result, err := c.uploadSingle(ctx, opts.LocalPath, opts.ContentType)
	if err != nil {
		return nil, err
	}
	return []UploadResult{result}, nil
}

func (c *Client) uploadRecursive(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	info, err := os.Stat(opts.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("stat local path: %w", err)
	}

	if !info.IsDir() {
		result, uploadErr := c.uploadSingle(ctx, opts.LocalPath, opts.ContentType)
		if uploadErr != nil {
			return nil, uploadErr
		}
		return []UploadResult{result}, nil
	}

	var results []UploadResult
	walkErr := filepath.WalkDir(opts.LocalPath, func(path string, d fs.DirEntry, fileErr error) error {
		if fileErr != nil {
			return fileErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		result, uploadErr := c.uploadSingle(ctx, path, "")
		if uploadErr != nil {
			result = UploadResult{LocalPath: path, Err: uploadErr}
		}
		results = append(results, result)
		return nil
	})

	if walkErr != nil {
		return results, fmt.Errorf("walk directory: %w", walkErr)
	}

	return results, nil
}

func (c *Client) uploadSingle(ctx context.Context, localPath, contentType string) (UploadResult, error) {
	data, err := os.ReadFile(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return UploadResult{}, fmt.Errorf("read file: %w", err)
	}

	if contentType == "" {
		contentType = DetectContentType(localPath)
	}

	result, err := c.Create(ctx, contentType, data)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %s: %w", localPath, err)
	}
	result.LocalPath = localPath
	return result, nil
}

// Get returns the fragment's data, converted to ext when ext is not empty.
func (c *Client) Get(ctx context.Context, id, ext string) ([]byte, string, error) {
	body, contentType, _, err := c.open(ctx, id, ext)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read response: %w", err)
	}
	return data, contentType, nil
}

// Download fetches a fragment's data.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	body, contentType, size, err := c.open(ctx, opts.ID, opts.Ext)
	if err != nil {
		return nil, nil, err
	}

	result := &DownloadResult{
		ID:          opts.ID,
		ContentType: contentType,
		Size:        size,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, body, nil
	}
	defer func() { _ = body.Close() }()

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = opts.ID
		if opts.Ext != "" {
			localPath += "." + opts.Ext
		}
	}
	result.LocalPath = localPath

	if dir := filepath.Dir(localPath); dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, err := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, nil, fmt.Errorf("create file: %w", err)
	}

	written, copyErr := io.Copy(file, body)
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}
	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

func (c *Client) open(ctx context.Context, id, ext string) (io.ReadCloser, string, int64, error) {
	if id == "" {
		return nil, "", 0, fmt.Errorf("get: %w", ErrEmptyID)
	}

	target := id
	if ext != "" {
		target += "." + strings.TrimPrefix(ext, ".")
	}

	req, err := c.newRequest(ctx, http.MethodGet, fragmentsPath+"/"+url.PathEscape(target), http.NoBody)
	if err != nil {
		return nil, "", 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, "", 0, parseServerError(resp.StatusCode, body)
	}

	return resp.Body, resp.Header.Get("Content-Type"), resp.ContentLength, nil
}

// Info returns a fragment's metadata and its available formats.
func (c *Client) Info(ctx context.Context, id string) (*InfoResult, error) {
	if id == "" {
		return nil, fmt.Errorf("info: %w", ErrEmptyID)
	}

	req, err := c.newRequest(ctx, http.MethodGet, fragmentsPath+"/"+url.PathEscape(id)+"/info", http.NoBody)
	if err != nil {
		return nil, err
	}

	var resp fragmentResponse
	if err := c.doJSON(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &InfoResult{Fragment: resp.Fragment, Formats: resp.Formats}, nil
}

// Update replaces a fragment's data. contentType must have the fragment's base type.
func (c *Client) Update(ctx context.Context, id, contentType string, data []byte) (*InfoResult, error) {
	if id == "" {
		return nil, fmt.Errorf("update: %w", ErrEmptyID)
	}

	req, err := c.newRequest(ctx, http.MethodPut, fragmentsPath+"/"+url.PathEscape(id), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	var resp fragmentResponse
	if err := c.doJSON(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}
	return &InfoResult{Fragment: resp.Fragment, Formats: resp.Formats}, nil
}

// List returns the caller's fragments in creation order.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	path := fragmentsPath
	if opts.Expand {
		path += "?expand=1"
	}

	req, err := c.newRequest(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return nil, err
	}

	if !opts.Expand {
		var resp listResponse[string]
		if err := c.doJSON(req, http.StatusOK, &resp); err != nil {
			return nil, err
		}
		return &ListResult{IDs: nonNil(resp.Fragments)}, nil
	}

	var resp listResponse[fragments.Fragment]
	if err := c.doJSON(req, http.StatusOK, &resp); err != nil {
		return nil, err
	}

	result := &ListResult{
		IDs:       make([]string, 0, len(resp.Fragments)),
		Fragments: nonNil(resp.Fragments),
	}
	for _, f := range resp.Fragments {
		result.IDs = append(result.IDs, f.ID)
	}
	return result, nil
}

// Delete deletes one or more fragments.
// Continues on error, collecting results for all ids.
func (c *Client) Delete(ctx context.Context, opts DeleteOptions) ([]DeleteResult, error) {
	if len(opts.IDs) == 0 {
		return nil, ErrNoIDs
	}

	results := make([]DeleteResult, 0, len(opts.IDs))
	for _, id := range opts.IDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.deleteSingle(ctx, id))
	}

	return results, nil
}

func (c *Client) deleteSingle(ctx context.Context, id string) DeleteResult {
	if id == "" {
		return DeleteResult{ID: id, Err: ErrEmptyID}
	}

	req, err := c.newRequest(ctx, http.MethodDelete, fragmentsPath+"/"+url.PathEscape(id), http.NoBody)
	if err != nil {
		return DeleteResult{ID: id, Err: err}
	}

	if err := c.doJSON(req, http.StatusOK, nil); err != nil {
		return DeleteResult{ID: id, Err: err}
	}
	return DeleteResult{ID: id, Deleted: true}
}

// HasDeleteErrors returns true if any delete operation failed.
func HasDeleteErrors(results []DeleteResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// newRequest builds an authorized request for path, which may carry a query.
func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	target := c.config.Endpoint + path

	if c.config.Auth == AuthSigV4 {
		signed, err := auth.Presign(method, target, auth.KeyPair{
			AccessKey: c.config.AccessKey,
			SecretKey: c.config.SecretKey,
		}, c.config.Region, c.config.Service, DefaultExpires, c.now())
		if err != nil {
			return nil, fmt.Errorf("sign request: %w", err)
		}
		target = signed
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	switch c.config.Auth {
	case AuthBasic:
		req.SetBasicAuth(c.config.Username, c.config.Password)
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	return req, nil
}

func (c *Client) doJSON(req *http.Request, want int, out any) error {
	_, err := c.do(req, want, out)
	return err
}

// do sends req, expects status want and decodes the body into out when out is not nil.
func (c *Client) do(req *http.Request, want int, out any) (http.Header, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return nil, parseServerError(resp.StatusCode, body)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.Header, nil
}

// DetectContentType returns the media type for a file name, preferring the types
// fragments understands and falling back to the system MIME table.
func DetectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	if t, ok := fragments.TypeForExtension(ext); ok {
		return t
	}

	if mimeType := mime.TypeByExtension(ext); mimeType != "" {
		return mimeType
	}
	return "application/octet-stream"
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// parseServerError builds an APIError from an error envelope, falling back to the raw body.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{StatusCode: statusCode, Message: strings.TrimSpace(string(body))}

	var envelope errorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + e.Message
}

// Is reports whether target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the fragment does not exist for the caller (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrUnauthorized is returned when authentication fails (401).
	ErrUnauthorized = &APIError{StatusCode: http.StatusUnauthorized}

	// ErrBadRequest is returned for invalid input such as a type mismatch on update (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrTooLarge is returned when the payload exceeds the server's limit (413).
	ErrTooLarge = &APIError{StatusCode: http.StatusRequestEntityTooLarge}

	// ErrUnsupportedType is returned for content types or conversions the server rejects (415).
	ErrUnsupportedType = &APIError{StatusCode: http.StatusUnsupportedMediaType}
)
