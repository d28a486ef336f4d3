package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"

	"jobboard-edge/internal/config"
	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/model"
)

// CachedStore keeps small successful responses in an in-memory bigcache so
// hot assets (the SPA shell, hashed bundles) are served without touching
// the inner store. Entries expire after the configured TTL; responses
// larger than the per-entry limit, and anything that is not a 200, pass
// through uncached.
type CachedStore struct {
	inner    Store
	cache    *bigcache.BigCache
	maxEntry int
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewCachedStore wraps inner with the hot cache. The metrics parameter is
// optional; pass nil to disable hit/miss recording.
func NewCachedStore(inner Store, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*CachedStore, error) {
	bcfg := bigcache.DefaultConfig(time.Duration(cfg.Assets.Cache.TTLSeconds) * time.Second)
	bcfg.MaxEntrySize = cfg.Assets.Cache.MaxEntryBytes

	cache, err := bigcache.New(context.Background(), bcfg)
	if err != nil {
		return nil, fmt.Errorf("bigcache: %w", err)
	}

	return &CachedStore{
		inner:    inner,
		cache:    cache,
		maxEntry: cfg.Assets.Cache.MaxEntryBytes,
		metrics:  m,
		logger:   logger.With("component", "asset_cache"),
	}, nil
}

// Fetch serves path from the hot cache when possible, falling through to
// the inner store otherwise. Cache failures are never surfaced: a broken
// cache degrades to a miss, not an unserved asset.
func (s *CachedStore) Fetch(ctx context.Context, path string) (*model.AssetResponse, error) {
	if entry, err := s.cache.Get(path); err == nil {
		s.recordLookup(metrics.CacheHit)
		return decodeEntry(entry), nil
	} else if !errors.Is(err, bigcache.ErrEntryNotFound) {
		s.logger.Warn("cache lookup failed", "path", path, "err", err)
	}
	s.recordLookup(metrics.CacheMiss)

	resp, err := s.inner.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	if !s.cacheable(resp) {
		return resp, nil
	}

	// Drain the inner body so the entry can be stored and re-served.
	body, err := io.ReadAll(resp.Body)
	closeErr := resp.Body.Close()
	if err != nil || closeErr != nil {
		return nil, fmt.Errorf("read asset body for %s: %w", path, errors.Join(err, closeErr))
	}

	if err := s.cache.Set(path, encodeEntry(resp.Header.Get("Content-Type"), body)); err != nil {
		s.logger.Warn("cache store failed", "path", path, "err", err)
	}

	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}

// cacheable reports whether resp qualifies for the hot cache: a 200 with a
// declared length at or under the per-entry limit.
func (s *CachedStore) cacheable(resp *model.AssetResponse) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	return err == nil && n <= int64(s.maxEntry)
}

func (s *CachedStore) recordLookup(result string) {
	if s.metrics != nil {
		s.metrics.AssetCacheRequests.WithLabelValues(result).Inc()
	}
}

// Entries are encoded as "<content-type>\n<body>". Content types cannot
// contain a newline, so the first one is an unambiguous separator.
func encodeEntry(contentType string, body []byte) []byte {
	entry := make([]byte, 0, len(contentType)+1+len(body))
	entry = append(entry, contentType...)
	entry = append(entry, '\n')
	return append(entry, body...)
}

func decodeEntry(entry []byte) *model.AssetResponse {
	contentType := "application/octet-stream"
	body := entry
	if i := bytes.IndexByte(entry, '\n'); i >= 0 {
		contentType = string(entry[:i])
		body = entry[i+1:]
	}

	header := make(http.Header, 2)
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(body)))

	return &model.AssetResponse{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}
