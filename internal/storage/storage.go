// Package storage abstracts where the pipeline keeps its artifacts:
// downloaded reports, extracted charts, and the CSV tables.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotExist reports a missing object. Callers treat it as "start
// empty" rather than a failure.
var ErrNotExist = errors.New("object does not exist")

// ErrReadOnly reports a write against a read-only store.
var ErrReadOnly = errors.New("store is read-only")

// Store is a flat named-object store.
type Store interface {
	Read(ctx context.Context, name string) ([]byte, error)
	// Exists probes for an object without retrieving it.
	Exists(ctx context.Context, name string) (bool, error)
	Write(ctx context.Context, name string, data []byte) error
	List(ctx context.Context, ext string) ([]string, error)
}

// DirStore keeps objects as files in a single directory.
type DirStore struct {
	root string
}

// NewDirStore creates the directory if needed and returns a store over it.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", root, err)
	}
	return &DirStore{root: root}, nil
}

// Root returns the backing directory.
func (s *DirStore) Root() string { return s.root }

// Path returns the absolute path for an object name.
func (s *DirStore) Path(name string) string { return filepath.Join(s.root, name) }

func (s *DirStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (s *DirStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(s.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", name, err)
	}
	return true, nil
}

// Write replaces the object atomically so a crash mid-write never
// leaves a truncated table behind.
func (s *DirStore) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.root, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp for %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", name, err)
	}
	if err := os.Rename(tmpName, s.Path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// List returns object names with the given extension, sorted.
func (s *DirStore) List(ctx context.Context, ext string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ext != "" && !strings.EqualFold(filepath.Ext(e.Name()), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// HTTPStore reads objects from a base URL. It cannot write or list.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStore returns a read-only store over the given base URL.
func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPStore{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPStore) Read(ctx context.Context, name string) ([]byte, error) {
	u := s.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", name, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", name, ErrNotExist)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", name, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", name, err)
	}
	return data, nil
}

// Exists probes with a HEAD request so callers can skip a full fetch.
func (s *HTTPStore) Exists(ctx context.Context, name string) (bool, error) {
	u := s.baseURL + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u, nil)
	if err != nil {
		return false, fmt.Errorf("build request for %s: %w", name, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", name, err)
	}
	resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("probe %s: unexpected status %s", name, resp.Status)
	}
	return true, nil
}

func (s *HTTPStore) Write(_ context.Context, name string, _ []byte) error {
	return fmt.Errorf("write %s: %w", name, ErrReadOnly)
}

func (s *HTTPStore) List(_ context.Context, _ string) ([]string, error) {
	return nil, fmt.Errorf("list: %w", ErrReadOnly)
}
