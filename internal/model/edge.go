// Package model defines the request-scoped types shared by the edge router.
package model

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
)

// RouteClass identifies which handling path a request falls into. It is
// derived from the URL path alone and never stored.
type RouteClass string

const (
	// RouteAPI is traffic owned by the API origin (path starts with /api).
	RouteAPI RouteClass = "api"
	// RouteAsset is a path whose final segment carries a file extension.
	RouteAsset RouteClass = "asset"
	// RouteDocument is an extensionless path: the SPA shell or a
	// client-side route that resolves to it.
	RouteDocument RouteClass = "document"
)

// ProxyRequest is a client request to be forwarded to the API origin.
type ProxyRequest struct {
	Ctx      context.Context
	Method   string
	Path     string // original path, /api prefix still present
	RawQuery string
	Header   http.Header
	Body     io.ReadCloser
}

// ProxyResponse is the origin response to be streamed back verbatim.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// AssetResponse is what the Asset Store resolves a path to. A missing file
// is a value (StatusCode 404 with a body), not an error; a non-nil error
// from a Store means the store itself failed.
type AssetResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// extensionPattern tests whether the final path segment ends in a dot
// followed by one or more alphanumerics. Deliberately loose: version-like
// segments such as /release/1.2 also match. The rule decides both cache
// bucketing and SPA fallback eligibility and is kept bug-compatible with
// the deployed edge; do not tighten one use without revisiting the other.
var extensionPattern = regexp.MustCompile(`\.[A-Za-z0-9]+$`)

// HasExtension reports whether the path names a file-like resource.
func HasExtension(path string) bool {
	return extensionPattern.MatchString(path)
}

// Ext returns the extension matched by HasExtension, lowercased and without
// the leading dot, or "" when the path has none.
func Ext(path string) string {
	m := extensionPattern.FindString(path)
	if m == "" {
		return ""
	}
	return strings.ToLower(m[1:])
}

// Classify derives the handling path for a request from its URL path.
// The /api prefix is the sole signal separating API traffic from
// asset/document traffic; it is a plain prefix test, so /apiary also
// classifies as API.
func Classify(path string) RouteClass {
	switch {
	case strings.HasPrefix(path, "/api"):
		return RouteAPI
	case HasExtension(path):
		return RouteAsset
	default:
		return RouteDocument
	}
}

// hopByHopHeaders are connection-scoped headers that an intermediary must
// not forward in either direction.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// StripHopByHop removes hop-by-hop headers from h in place.
func StripHopByHop(h http.Header) {
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}
