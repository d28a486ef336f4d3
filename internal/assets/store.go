// Package assets implements the Asset Store: resolution of request paths to
// built static files from the SPA build output.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"
	gopath "path"
	"strconv"
	"strings"

	"jobboard-edge/internal/config"
	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/model"
)

// Store resolves a request path to a static asset.
//
// A missing file is reported as a response with status 404, not an error;
// a non-nil error means the store itself failed (backend unavailable,
// I/O failure) and the caller should fall back to the root document.
type Store interface {
	Fetch(ctx context.Context, path string) (*model.AssetResponse, error)
}

// FSStore serves a build output directory through an fs.FS.
type FSStore struct {
	fsys   fs.FS
	index  string
	logger *slog.Logger
}

// NewFSStore creates an FSStore over fsys. Requests for "/" resolve to the
// index document (the SPA shell).
func NewFSStore(fsys fs.FS, index string, logger *slog.Logger) *FSStore {
	return &FSStore{
		fsys:   fsys,
		index:  index,
		logger: logger.With("component", "asset_store"),
	}
}

// NewStore builds the configured store stack: an FSStore over the asset
// directory, wrapped in the in-memory hot cache when enabled.
func NewStore(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (Store, error) {
	info, err := os.Stat(cfg.Assets.Dir)
	if err != nil {
		return nil, fmt.Errorf("assets: stat %s: %w", cfg.Assets.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("assets: %s is not a directory", cfg.Assets.Dir)
	}

	var store Store = NewFSStore(os.DirFS(cfg.Assets.Dir), cfg.Assets.Index, logger)
	if cfg.Assets.Cache.Enabled {
		store, err = NewCachedStore(store, cfg, m, logger)
		if err != nil {
			return nil, fmt.Errorf("assets: cache: %w", err)
		}
	}
	return store, nil
}

// Fetch resolves path against the filesystem. Missing files and directory
// paths yield 404 responses; only infrastructure failures return errors.
func (s *FSStore) Fetch(_ context.Context, path string) (*model.AssetResponse, error) {
	name := strings.TrimPrefix(gopath.Clean(path), "/")
	if name == "" || name == "." {
		name = s.index
	}
	if !fs.ValidPath(name) {
		return notFound(), nil
	}

	f, err := s.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			return notFound(), nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	if info.IsDir() {
		_ = f.Close()
		return notFound(), nil
	}

	header := make(http.Header, 2)
	header.Set("Content-Type", contentType(name))
	header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))

	return &model.AssetResponse{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       f,
	}, nil
}

// contentType derives a MIME type from the file name, defaulting to
// application/octet-stream for unknown extensions.
func contentType(name string) string {
	if ct := mime.TypeByExtension(gopath.Ext(name)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// notFound builds the store's 404 response value.
func notFound() *model.AssetResponse {
	header := make(http.Header, 1)
	header.Set("Content-Type", "text/plain; charset=utf-8")
	return &model.AssetResponse{
		StatusCode: http.StatusNotFound,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader("404 not found\n")),
	}
}
