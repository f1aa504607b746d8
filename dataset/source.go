package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Source produces a dataset. ID identifies the source for memoization: two
// sources with the same ID are assumed to yield the same data.
type Source interface {
	ID() string
	Load(ctx context.Context) (*Dataset, error)
}

// FileSource reads a CSV file from local disk.
type FileSource struct {
	Path string
}

func (s FileSource) ID() string { return "file:" + s.Path }

func (s FileSource) Load(ctx context.Context) (*Dataset, error) {
	return loadFile(ctx, s.ID(), s.Path, 1)
}

// SampledSource reads a (usually pre-sampled) CSV file and keeps every
// Every-th data row. Every <= 1 keeps all rows.
type SampledSource struct {
	Path  string
	Every int
}

func (s SampledSource) ID() string { return fmt.Sprintf("sample:%s:%d", s.Path, s.Every) }

func (s SampledSource) Load(ctx context.Context) (*Dataset, error) {
	return loadFile(ctx, s.ID(), s.Path, s.Every)
}

func loadFile(ctx context.Context, id, path string, every int) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, loadErr(id, "open", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, loadErr(id, "open", err)
	}
	defer f.Close()
	return parse(id, f, every)
}

// RemoteSource downloads the CSV with a single GET, streams the body to
// CachePath and parses the local copy. There is no retry.
type RemoteSource struct {
	URL       string
	CachePath string
	Client    *http.Client
}

func (s RemoteSource) ID() string { return "url:" + s.URL }

func (s RemoteSource) Load(ctx context.Context) (*Dataset, error) {
	id := s.ID()
	if err := s.download(ctx); err != nil {
		return nil, loadErr(id, "download", err)
	}
	return loadFile(ctx, id, s.CachePath, 1)
}

func (s RemoteSource) download(ctx context.Context) error {
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	dir := filepath.Dir(s.CachePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.CachePath)
}
