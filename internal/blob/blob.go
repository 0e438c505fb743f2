// Package blob is the get/put-bytes boundary used to round-trip the
// dataset file through shared storage before and after a sync run. The
// sync engine itself never touches it; only the upload and download
// commands do.
package blob

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store reads and writes named blobs
type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// NewStore picks a Store implementation from the configured location: an
// http(s) base URL (e.g. a container with pre-signed access) or a local
// directory.
func NewStore(location string) (Store, error) {
	if location == "" {
		return nil, fmt.Errorf("blob location is not configured")
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &HTTPStore{
			BaseURL: strings.TrimRight(location, "/"),
			Client:  &http.Client{Timeout: 60 * time.Second},
		}, nil
	}
	return &FSStore{Dir: location}, nil
}

// FSStore keeps blobs as files in a directory
type FSStore struct {
	Dir string
}

// Get reads the named blob
func (s *FSStore) Get(_ context.Context, name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, name)) //nolint:gosec // Blob directory comes from operator configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", name, err)
	}
	return data, nil
}

// Put writes the named blob
func (s *FSStore) Put(_ context.Context, name string, data []byte) error {
	if err := os.MkdirAll(s.Dir, 0750); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, name), data, 0600); err != nil {
		return fmt.Errorf("failed to write blob %s: %w", name, err)
	}
	return nil
}

// HTTPStore talks to an object store over plain GET and PUT, which covers
// pre-signed Azure Blob and S3 URLs without carrying either SDK.
type HTTPStore struct {
	BaseURL string
	Client  *http.Client
}

// Get fetches the named blob
func (s *HTTPStore) Get(ctx context.Context, name string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("blob %s fetch returned HTTP %d", name, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s body: %w", name, err)
	}
	return data, nil
}

// Put uploads the named blob
func (s *HTTPStore) Put(ctx context.Context, name string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.BaseURL+"/"+name, strings.NewReader(string(data)))
	if err != nil {
		return fmt.Errorf("failed to build blob request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")
	// Azure Blob requires the blob type header on PUT; S3 ignores it.
	req.Header.Set("x-ms-blob-type", "BlockBlob")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload blob %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("blob %s upload returned HTTP %d", name, resp.StatusCode)
	}
	return nil
}
