// Package content fetches the raw documents behind content-bearing sections.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
)

// Fetcher retrieves a document by its content-relative path.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (string, error)
}

// FetchError describes a failed fetch: either a non-success status or an
// underlying transport/filesystem error.
type FetchError struct {
	Source string
	Status int // HTTP status, 0 for transport or filesystem errors
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetching %s: HTTP %d %s", e.Source, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("fetching %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Message returns the failure text shown in an error panel, without the
// source prefix.
func (e *FetchError) Message() string {
	if e.Status != 0 {
		return fmt.Sprintf("HTTP %d %s", e.Status, http.StatusText(e.Status))
	}
	return e.Err.Error()
}

// Message extracts the panel message from any fetch error.
func Message(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message()
	}
	return err.Error()
}

// maxDocumentBytes caps a single document read.
const maxDocumentBytes = 8 << 20

// HTTPFetcher fetches documents relative to a base URL.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates an HTTPFetcher. A zero timeout means none.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// Fetch issues a GET for BaseURL/p. Any status outside 2xx is a failure.
func (f *HTTPFetcher) Fetch(ctx context.Context, p string) (string, error) {
	target := f.BaseURL + "/" + escapePath(strings.TrimLeft(p, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{Source: p, Err: err}
	}
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, */*;q=0.1")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &FetchError{Source: p, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Source: p, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return "", &FetchError{Source: p, Err: fmt.Errorf("reading body: %w", err)}
	}
	if len(body) > maxDocumentBytes {
		return "", &FetchError{Source: p, Err: fmt.Errorf("document exceeds %d bytes", maxDocumentBytes)}
	}
	return string(body), nil
}

// escapePath percent-encodes each path segment.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

// DirFetcher reads documents from a filesystem.
type DirFetcher struct {
	FS fs.FS
}

// NewDirFetcher creates a DirFetcher rooted at dir.
func NewDirFetcher(dir string) *DirFetcher {
	return &DirFetcher{FS: os.DirFS(dir)}
}

// Fetch reads p from the filesystem. Paths escaping the root are rejected.
func (f *DirFetcher) Fetch(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{Source: p, Err: err}
	}
	name := path.Clean(strings.TrimLeft(p, "/"))
	if !fs.ValidPath(name) {
		return "", &FetchError{Source: p, Err: fs.ErrInvalid}
	}
	data, err := fs.ReadFile(f.FS, name)
	if err != nil {
		return "", &FetchError{Source: p, Err: err}
	}
	return string(data), nil
}

// NewFetcher returns an HTTPFetcher for http(s) roots and a DirFetcher otherwise.
func NewFetcher(root string, timeout time.Duration) Fetcher {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		return NewHTTPFetcher(root, timeout)
	}
	return NewDirFetcher(root)
}
