// Package ghcontents is a small client for the GitHub repository contents API:
// list a directory, read, create or update, and delete a single file.
//
// Writes follow the API's optimistic concurrency rules. Updating or deleting
// an existing file requires its current blob sha; creating one must omit it.
package ghcontents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"
	mediaType      = "application/vnd.github.v3+json"
	userAgent      = "gitpress"
	maxBodySize    = 32 << 20
	maxMessageLen  = 200
)

// Entry is a directory listing item, and the file descriptor returned by writes.
type Entry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Size        int    `json:"size"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
}

// File is a single file read, with its base64 payload.
type File struct {
	Entry
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// Text decodes the file payload as text.
func (f *File) Text() (string, error) {
	return DecodeText(f.Content)
}

// Commit describes the commit a write produced.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
	HTMLURL string `json:"html_url"`
}

// PutRequest is the body of a create or update. SHA must be empty on create
// and the current blob sha on update.
type PutRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// PutResponse is the result of a successful write.
type PutResponse struct {
	Content Entry  `json:"content"`
	Commit  Commit `json:"commit"`
}

// DeleteRequest is the body of a delete.
type DeleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

// Observer is notified after every round trip. status is 0 when the request
// never produced a response.
type Observer func(method string, status int, elapsed time.Duration)

// Client talks to the contents API of one repository.
type Client struct {
	http     *http.Client
	baseURL  string
	owner    string
	repo     string
	branch   string
	observer Observer
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root (GitHub Enterprise, tests).
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithBranch pins reads and writes to a branch instead of the default one.
func WithBranch(branch string) Option {
	return func(c *Client) {
		c.branch = branch
	}
}

// WithTimeout bounds every round trip.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithObserver registers a callback invoked after each request.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New returns a client for owner/repo authenticated with a bearer token.
func New(token, owner, repo string, opts ...Option) *Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	c := &Client{
		http:    oauth2.NewClient(context.Background(), src),
		baseURL: DefaultBaseURL,
		owner:   owner,
		repo:    repo,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// String names the repository the client is bound to.
func (c *Client) String() string {
	return c.owner + "/" + c.repo
}

// List returns the entries of dir. A missing directory is reported as empty.
func (c *Client) List(ctx context.Context, dir string) ([]Entry, error) {
	var entries []Entry
	err := c.do(ctx, http.MethodGet, dir, nil, &entries)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

// Get reads a single file. A missing file yields an error matching ErrNotFound.
func (c *Client) Get(ctx context.Context, path string) (*File, error) {
	var f File
	if err := c.do(ctx, http.MethodGet, path, nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Put creates or updates path.
func (c *Client) Put(ctx context.Context, path string, req PutRequest) (*PutResponse, error) {
	if req.Branch == "" {
		req.Branch = c.branch
	}
	var resp PutResponse
	if err := c.do(ctx, http.MethodPut, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Delete removes path.
func (c *Client) Delete(ctx context.Context, path string, req DeleteRequest) error {
	if req.Branch == "" {
		req.Branch = c.branch
	}
	return c.do(ctx, http.MethodDelete, path, req, nil)
}

func (c *Client) contentsURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.baseURL, url.PathEscape(c.owner), url.PathEscape(c.repo), strings.Join(segments, "/"))
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	u := c.contentsURL(path)
	if method == http.MethodGet && c.branch != "" {
		u += "?ref=" + url.QueryEscape(c.branch)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("ghcontents: encode %s body: %w", method, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("ghcontents: build request: %w", err)
	}
	req.Header.Set("Accept", mediaType)
	req.Header.Set("User-Agent", userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(method, 0, start)
		return fmt.Errorf("ghcontents: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.observe(method, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("ghcontents: read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("ghcontents: decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) observe(method string, status int, start time.Time) {
	if c.observer != nil {
		c.observer(method, status, time.Since(start))
	}
}

func errorMessage(data []byte) string {
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	s := strings.TrimSpace(string(data))
	if len(s) > maxMessageLen {
		n := maxMessageLen
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		s = s[:n]
	}
	return s
}
