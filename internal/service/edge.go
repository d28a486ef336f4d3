package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"jobboard-edge/internal/assets"
	"jobboard-edge/internal/metrics"
	"jobboard-edge/internal/model"
)

// Cache-Control values per policy bucket.
const (
	// Hashed bundles and fonts never change under the same name.
	cacheImmutable = "public, max-age=31536000, immutable"
	// Fixed-name static files: one day fresh, one week stale-while-revalidate.
	cacheRevalidate = "public, max-age=86400, stale-while-revalidate=604800"
	// Documents: navigations must always re-check for a fresh shell.
	cacheDisabled = "no-cache, no-store, must-revalidate"
)

// longCacheExts are web font formats, immutable regardless of path.
var longCacheExts = map[string]bool{
	"woff":  true,
	"woff2": true,
}

// shortCacheExts are scripts, stylesheets, and image formats served with
// background revalidation.
var shortCacheExts = map[string]bool{
	"js":   true,
	"css":  true,
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"svg":  true,
	"ico":  true,
	"webp": true,
}

// CacheControl maps a request path to its Cache-Control value. It is a pure
// function of the path: extensionless paths are documents and never cached;
// extensioned paths bucket by location and extension. An extension outside
// both sets returns "", meaning no header is added and whatever the store
// set is inherited.
func CacheControl(path string) string {
	if !model.HasExtension(path) {
		return cacheDisabled
	}
	ext := model.Ext(path)
	if strings.Contains(path, "/assets/") || longCacheExts[ext] {
		return cacheImmutable
	}
	if shortCacheExts[ext] {
		return cacheRevalidate
	}
	return ""
}

// EdgeService resolves asset and document requests against the Asset Store,
// applying SPA fallback and cache policy.
//
// Per request the fallible steps run in order: store fetch, then on a 404
// for an extensionless path a root document fetch, then header annotation.
// Any error in that chain is recovered exactly once by fetching the root
// document; an error from the recovery fetch propagates.
type EdgeService struct {
	store   assets.Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewEdgeService creates an EdgeService. The metrics parameter is optional;
// pass nil to disable fallback recording.
func NewEdgeService(store assets.Store, logger *slog.Logger, m *metrics.Metrics) *EdgeService {
	return &EdgeService{
		store:   store,
		logger:  logger.With("component", "edge_service"),
		metrics: m,
	}
}

// Resolve returns the response for a non-API path. The returned response
// always carries a body and status; only a failed recovery fetch yields an
// error.
func (s *EdgeService) Resolve(ctx context.Context, path string) (*model.AssetResponse, error) {
	resp, err := s.lookup(ctx, path)
	if err == nil {
		return resp, nil
	}

	// Single recovery: serve the SPA shell so the user still gets a page
	// even when the specific lookup failed. A failure here propagates.
	s.logger.Warn("asset lookup failed; serving root document",
		"path", path,
		"err", err,
	)
	s.recordFallback(metrics.FallbackStoreError)

	resp, err = s.store.Fetch(ctx, "/")
	if err != nil {
		return nil, fmt.Errorf("root document fallback: %w", err)
	}
	return resp, nil
}

// lookup performs the primary fetch, the 404 SPA fallback, and header
// annotation.
func (s *EdgeService) lookup(ctx context.Context, path string) (*model.AssetResponse, error) {
	resp, err := s.store.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound && !model.HasExtension(path) {
		// A soft route like /jobs/42: serve the shell and let the
		// client-side router take over. Extensioned paths stay 404.
		closeBody(resp)
		s.recordFallback(metrics.FallbackNotFound)

		resp, err = s.store.Fetch(ctx, "/")
		if err != nil {
			return nil, err
		}
	}

	// Cache policy stays keyed to the requested path: a shell served for
	// /jobs/42 is a document response and must not inherit asset caching.
	return annotate(resp, path), nil
}

// annotate builds a new response envelope sharing the body and status but
// carrying an independently mutable header set, then applies cache policy
// and security headers. The store's headers may be shared (e.g. by a cache
// layer), so they are copied, never mutated in place.
func annotate(resp *model.AssetResponse, path string) *model.AssetResponse {
	header := make(http.Header, len(resp.Header)+4)
	for k, vals := range resp.Header {
		header[k] = append([]string(nil), vals...)
	}

	if cc := CacheControl(path); cc != "" {
		header.Set("Cache-Control", cc)
	}
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("X-Frame-Options", "DENY")
	header.Set("Referrer-Policy", "strict-origin-when-cross-origin")

	return &model.AssetResponse{
		StatusCode: resp.StatusCode,
		Header:     header,
		Body:       resp.Body,
	}
}

func (s *EdgeService) recordFallback(reason string) {
	if s.metrics != nil {
		s.metrics.SPAFallbacks.WithLabelValues(reason).Inc()
	}
}

func closeBody(resp *model.AssetResponse) {
	if resp.Body != nil {
		_ = resp.Body.Close()
	}
}
