package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"rtviewer/internal/logging"
	"rtviewer/internal/mesh"
)

// Cache resolves model sources. Local paths are read directly, http(s) URLs
// are downloaded once and kept on disk.
type Cache struct {
	cacheDir   string
	client     *http.Client
	inFlight   map[string]chan struct{}
	inFlightMu sync.Mutex
}

// NewCache creates a new asset cache rooted at cacheDir
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		inFlight: make(map[string]chan struct{}),
	}, nil
}

// IsRemote reports whether source is fetched over http(s).
func IsRemote(source string) bool {
	u, err := url.Parse(source)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

// cachePath returns the file path for a downloaded source
func (c *Cache) cachePath(source string) string {
	ext := ""
	if u, err := url.Parse(source); err == nil {
		ext = path.Ext(u.Path)
	}
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
	return filepath.Join(c.cacheDir, name+ext)
}

// Get returns the bytes behind source, fetching and caching if necessary
func (c *Cache) Get(ctx context.Context, source string) ([]byte, error) {
	if !IsRemote(source) {
		data, err := os.ReadFile(strings.TrimPrefix(source, "file://"))
		if err != nil {
			return nil, fmt.Errorf("failed to read asset: %w", err)
		}
		return data, nil
	}

	// Check cache first
	if data, err := os.ReadFile(c.cachePath(source)); err == nil {
		return data, nil
	}
	return c.fetch(ctx, source)
}

// Model loads source and parses it as an OBJ mesh
func (c *Cache) Model(ctx context.Context, source string) (*mesh.CPUMesh, error) {
	data, err := c.Get(ctx, source)
	if err != nil {
		return nil, err
	}
	m, err := ParseOBJ(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	if m.Name == "" {
		m.Name = path.Base(source)
	}
	return m, nil
}

// Close drops idle download connections
func (c *Cache) Close() {
	c.client.CloseIdleConnections()
}

// IsCached checks if a remote source is already on disk
func (c *Cache) IsCached(source string) bool {
	_, err := os.Stat(c.cachePath(source))
	return err == nil
}

// fetch downloads source and caches it
func (c *Cache) fetch(ctx context.Context, source string) ([]byte, error) {
	dest := c.cachePath(source)

	// Check if fetch is already in progress
	c.inFlightMu.Lock()
	if ch, exists := c.inFlight[source]; exists {
		c.inFlightMu.Unlock()
		select {
		case <-ch: // Wait for the in-flight request to complete
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		data, err := os.ReadFile(dest)
		if err != nil {
			return nil, fmt.Errorf("concurrent fetch of %s failed: %w", source, err)
		}
		return data, nil
	}

	// Mark as in-flight
	ch := make(chan struct{})
	c.inFlight[source] = ch
	c.inFlightMu.Unlock()

	defer func() {
		c.inFlightMu.Lock()
		delete(c.inFlight, source)
		close(ch)
		c.inFlightMu.Unlock()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "rtviewer/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("asset server returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read asset data: %w", err)
	}

	// Cache to disk; write then rename so waiters never see a partial file
	tmp := dest + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		// Log but don't fail - we still have the data
		logging.Warn("failed to cache asset %s: %v", source, err)
		return data, nil
	}
	if err := os.Rename(tmp, dest); err != nil {
		logging.Warn("failed to cache asset %s: %v", source, err)
	}

	return data, nil
}
