package assets

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"jobboard-edge/internal/config"
	"jobboard-edge/internal/model"
)

// newTestConfig returns a config with asset caching enabled over dir.
func newTestConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	return &config.Config{
		Assets: config.AssetsConfig{
			Dir:   dir,
			Index: "index.html",
			Cache: config.AssetCacheConfig{
				Enabled:       true,
				TTLSeconds:    60,
				MaxEntryBytes: 1024,
			},
		},
	}
}

// countingStore wraps a Store and counts Fetch calls.
type countingStore struct {
	inner Store
	calls int
	err   error
}

func (s *countingStore) Fetch(ctx context.Context, path string) (*model.AssetResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.inner.Fetch(ctx, path)
}

func TestCachedStore_SecondFetchSkipsInner(t *testing.T) {
	counting := &countingStore{inner: NewFSStore(testFS(), "index.html", discardLogger())}
	store, err := NewCachedStore(counting, newTestConfig(t, ""), nil, discardLogger())
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}

	for i := range 2 {
		resp, err := store.Fetch(context.Background(), "/favicon.ico")
		if err != nil {
			t.Fatalf("Fetch #%d error = %v", i+1, err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if string(body) != "icon-bytes" {
			t.Fatalf("Fetch #%d body = %q, want %q", i+1, body, "icon-bytes")
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Fetch #%d status = %d, want 200", i+1, resp.StatusCode)
		}
	}

	if counting.calls != 1 {
		t.Errorf("inner fetch calls = %d, want 1 (second served from cache)", counting.calls)
	}
}

func TestCachedStore_404NotCached(t *testing.T) {
	counting := &countingStore{inner: NewFSStore(testFS(), "index.html", discardLogger())}
	store, err := NewCachedStore(counting, newTestConfig(t, ""), nil, discardLogger())
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}

	for range 2 {
		resp, err := store.Fetch(context.Background(), "/missing.png")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
	}

	if counting.calls != 2 {
		t.Errorf("inner fetch calls = %d, want 2 (404s are not cached)", counting.calls)
	}
}

func TestCachedStore_OversizedNotCached(t *testing.T) {
	big := strings.Repeat("x", 2048) // over the 1024-byte entry limit
	inner := &staticStore{body: big}
	store, err := NewCachedStore(inner, newTestConfig(t, ""), nil, discardLogger())
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}

	for range 2 {
		resp, err := store.Fetch(context.Background(), "/bundle.js")
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if len(body) != 2048 {
			t.Fatalf("body length = %d, want 2048", len(body))
		}
	}

	if inner.calls != 2 {
		t.Errorf("inner fetch calls = %d, want 2 (oversized bodies pass through)", inner.calls)
	}
}

func TestCachedStore_InnerErrorPropagates(t *testing.T) {
	wantErr := errors.New("disk on fire")
	counting := &countingStore{err: wantErr}
	store, err := NewCachedStore(counting, newTestConfig(t, ""), nil, discardLogger())
	if err != nil {
		t.Fatalf("NewCachedStore() error = %v", err)
	}

	if _, err := store.Fetch(context.Background(), "/app.js"); !errors.Is(err, wantErr) {
		t.Errorf("Fetch() error = %v, want %v", err, wantErr)
	}
}

func TestEncodeDecodeEntry(t *testing.T) {
	entry := encodeEntry("text/css", []byte("body{}"))
	resp := decodeEntry(entry)

	if ct := resp.Header.Get("Content-Type"); ct != "text/css" {
		t.Errorf("Content-Type = %q, want text/css", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "body{}" {
		t.Errorf("body = %q, want body{}", body)
	}
	if cl := resp.Header.Get("Content-Length"); cl != strconv.Itoa(len("body{}")) {
		t.Errorf("Content-Length = %q, want %d", cl, len("body{}"))
	}
}

// staticStore always serves the same 200 body.
type staticStore struct {
	body  string
	calls int
}

func (s *staticStore) Fetch(context.Context, string) (*model.AssetResponse, error) {
	s.calls++
	header := make(http.Header, 2)
	header.Set("Content-Type", "application/javascript")
	header.Set("Content-Length", strconv.Itoa(len(s.body)))
	return &model.AssetResponse{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(s.body)),
	}, nil
}
