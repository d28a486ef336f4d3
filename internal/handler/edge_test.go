package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/assets"
	"jobboard-edge/internal/model"
	"jobboard-edge/internal/service"
)

const (
	ccImmutable  = "public, max-age=31536000, immutable"
	ccRevalidate = "public, max-age=86400, stale-while-revalidate=604800"
	ccDisabled   = "no-cache, no-store, must-revalidate"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEdgeHandler(store assets.Store) *EdgeHandler {
	logger := testLogger()
	svc := service.NewEdgeService(store, logger, nil)
	return NewEdgeHandler(svc, logger)
}

func newBuildOutputStore() assets.Store {
	fsys := fstest.MapFS{
		"index.html":             {Data: []byte("<!doctype html>shell")},
		"favicon.ico":            {Data: []byte("icon")},
		"assets/index-a1b2c3.js": {Data: []byte("bundle")},
		"fonts/inter.woff2":      {Data: []byte("font")},
	}
	return assets.NewFSStore(fsys, "index.html", testLogger())
}

func serve(t *testing.T, h *EdgeHandler, path string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Any("/*", h.Handle)
	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func assertSecurityHeaders(t *testing.T, h http.Header) {
	t.Helper()
	if v := h.Get("X-Content-Type-Options"); v != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", v)
	}
	if v := h.Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", v)
	}
	if v := h.Get("Referrer-Policy"); v != "strict-origin-when-cross-origin" {
		t.Errorf("Referrer-Policy = %q, want strict-origin-when-cross-origin", v)
	}
}

func TestEdgeHandler_HashedBundleImmutable(t *testing.T) {
	h := newTestEdgeHandler(newBuildOutputStore())

	rec := serve(t, h, "/assets/index-a1b2c3.js")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "bundle" {
		t.Errorf("body = %q, want bundle", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != ccImmutable {
		t.Errorf("Cache-Control = %q, want %q", cc, ccImmutable)
	}
	assertSecurityHeaders(t, rec.Header())
}

func TestEdgeHandler_FaviconRevalidate(t *testing.T) {
	h := newTestEdgeHandler(newBuildOutputStore())

	rec := serve(t, h, "/favicon.ico")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != ccRevalidate {
		t.Errorf("Cache-Control = %q, want %q", cc, ccRevalidate)
	}
	assertSecurityHeaders(t, rec.Header())
}

func TestEdgeHandler_FontImmutable(t *testing.T) {
	h := newTestEdgeHandler(newBuildOutputStore())

	rec := serve(t, h, "/fonts/inter.woff2")

	if cc := rec.Header().Get("Cache-Control"); cc != ccImmutable {
		t.Errorf("Cache-Control = %q, want %q", cc, ccImmutable)
	}
}

func TestEdgeHandler_SoftRouteServesShell(t *testing.T) {
	h := newTestEdgeHandler(newBuildOutputStore())

	rec := serve(t, h, "/jobs/9f3a")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (SPA shell)", rec.Code)
	}
	if rec.Body.String() != "<!doctype html>shell" {
		t.Errorf("body = %q, want shell", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != ccDisabled {
		t.Errorf("Cache-Control = %q, want %q", cc, ccDisabled)
	}
	assertSecurityHeaders(t, rec.Header())
}

func TestEdgeHandler_RootServesShell(t *testing.T) {
	h := newTestEdgeHandler(newBuildOutputStore())

	rec := serve(t, h, "/")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "<!doctype html>shell" {
		t.Errorf("body = %q, want shell", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != ccDisabled {
		t.Errorf("Cache-Control = %q, want %q", cc, ccDisabled)
	}
}

func TestEdgeHandler_MissingAssetStays404(t *testing.T) {
	h := newTestEdgeHandler(newBuildOutputStore())

	rec := serve(t, h, "/missing.png")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 (no fallback for extensioned paths)", rec.Code)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != ccRevalidate {
		t.Errorf("Cache-Control = %q, want the extension's policy bucket %q", cc, ccRevalidate)
	}
	assertSecurityHeaders(t, rec.Header())
}

// failingStore errors on every path except the root document.
type failingStore struct {
	shell assets.Store
	err   error
}

func (s *failingStore) Fetch(ctx context.Context, path string) (*model.AssetResponse, error) {
	if path == "/" {
		return s.shell.Fetch(ctx, path)
	}
	return nil, s.err
}

func TestEdgeHandler_StoreErrorServesShell(t *testing.T) {
	store := &failingStore{shell: newBuildOutputStore(), err: errors.New("backend unavailable")}
	h := newTestEdgeHandler(store)

	rec := serve(t, h, "/assets/index-a1b2c3.js")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (recovered with shell)", rec.Code)
	}
	if rec.Body.String() != "<!doctype html>shell" {
		t.Errorf("body = %q, want shell", rec.Body.String())
	}
}

// deadStore errors on every path.
type deadStore struct{ err error }

func (s *deadStore) Fetch(context.Context, string) (*model.AssetResponse, error) {
	return nil, s.err
}

func TestEdgeHandler_RecoveryFailureIs500(t *testing.T) {
	h := newTestEdgeHandler(&deadStore{err: errors.New("store down")})

	rec := serve(t, h, "/app.js")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 from the central error handler", rec.Code)
	}
}
