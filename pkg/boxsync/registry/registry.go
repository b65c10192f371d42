// Package registry fetches box manifests and content from a remote
// registry. Lookups go through the local cache first; downloads carry
// the caller's context for timeout and cancellation.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jamesainslie/boxsync/pkg/boxsync/cache"
	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

// ErrNotFound is returned when the registry has no such box or version.
var ErrNotFound = errors.New("box not found in registry")

// defaultTimeout bounds a single registry request when the caller's
// context has no deadline of its own.
const defaultTimeout = 30 * time.Second

// Client fetches box data from a registry.
type Client interface {
	// FetchManifest returns the manifest for one box version. An empty
	// version means the latest.
	FetchManifest(ctx context.Context, box, version string) (*manifest.Manifest, string, error)

	// FetchSnapshot returns the full content snapshot for one box
	// version.
	FetchSnapshot(ctx context.Context, box, version string) (*types.DirectorySnapshot, error)
}

// HTTPClient is the HTTP registry client.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	cache   *cache.Cache
	log     *logging.Logger
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithCache makes manifest lookups consult (and fill) the local cache.
func WithCache(c *cache.Cache) Option {
	return func(h *HTTPClient) { h.cache = c }
}

// WithHTTPClient substitutes the underlying HTTP client, for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *HTTPClient) { h.http = hc }
}

// NewHTTPClient creates a client for the registry at baseURL.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
		log:     logging.Get("registry"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// manifestResponse is the registry's manifest endpoint payload.
type manifestResponse struct {
	Manifest manifest.Manifest `json:"manifest"`
	Checksum string            `json:"checksum"`
}

// snapshotResponse is the registry's content endpoint payload.
type snapshotResponse struct {
	Files []snapshotFile `json:"files"`
}

type snapshotFile struct {
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	Content      []byte    `json:"content,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// FetchManifest returns the manifest and its registry checksum for one
// box version, serving from the cache when fresh.
func (c *HTTPClient) FetchManifest(ctx context.Context, box, version string) (*manifest.Manifest, string, error) {
	if c.cache != nil && version != "" {
		entry, err := c.cache.Get(c.baseURL, box, version)
		if err == nil {
			c.log.Debug("manifest served from cache", "box", box, "version", version)
			m := entry.Manifest
			return &m, entry.Checksum, nil
		}
		if !cache.IsMiss(err) {
			c.log.Warn("cache read failed", "box", box, "error", err)
		}
	}

	var resp manifestResponse
	if err := c.getJSON(ctx, c.manifestURL(box, version), &resp); err != nil {
		return nil, "", err
	}

	if c.cache != nil && resp.Manifest.Version != "" {
		err := c.cache.Put(c.baseURL, box, resp.Manifest.Version, &cache.Entry{
			Manifest: resp.Manifest,
			Checksum: resp.Checksum,
		})
		if err != nil {
			c.log.Warn("cache write failed", "box", box, "error", err)
		}
	}

	return &resp.Manifest, resp.Checksum, nil
}

// FetchSnapshot downloads the full content of one box version as a
// DirectorySnapshot rooted at the box name.
func (c *HTTPClient) FetchSnapshot(ctx context.Context, box, version string) (*types.DirectorySnapshot, error) {
	var resp snapshotResponse
	if err := c.getJSON(ctx, c.snapshotURL(box, version), &resp); err != nil {
		return nil, err
	}

	files := make([]types.FileRecord, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, types.FileRecord{
			RelPath:      f.Path,
			Size:         f.Size,
			Ext:          types.Ext(f.Path),
			Content:      f.Content,
			LastModified: f.LastModified,
		})
	}

	c.log.Debug("snapshot fetched", "box", box, "version", version, "files", len(files))
	return types.NewSnapshot(box, files), nil
}

func (c *HTTPClient) manifestURL(box, version string) string {
	u := fmt.Sprintf("%s/v1/boxes/%s/manifest", c.baseURL, url.PathEscape(box))
	if version != "" {
		u += "?version=" + url.QueryEscape(version)
	}
	return u
}

func (c *HTTPClient) snapshotURL(box, version string) string {
	u := fmt.Sprintf("%s/v1/boxes/%s/snapshot", c.baseURL, url.PathEscape(box))
	if version != "" {
		u += "?version=" + url.QueryEscape(version)
	}
	return u
}

// getJSON performs one GET and decodes the JSON body into out.
func (c *HTTPClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("building registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("registry returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding registry response: %w", err)
	}
	return nil
}
