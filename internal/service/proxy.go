// Package service implements the edge routing core: API origin forwarding
// and the asset/document resolution policy.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"jobboard-edge/internal/client"
	"jobboard-edge/internal/config"
	"jobboard-edge/internal/model"
)

const userAgent = "jobboard-edge/1.0"

// ProxyService forwards /api traffic to the configured API origin.
//
// The contract is pass-through: the /api prefix is stripped, the remainder
// and the original query string are joined onto the origin base URL, and
// method, headers, and body travel unmodified in both directions. Only
// hop-by-hop headers are removed, as any intermediary must.
type ProxyService struct {
	client  *client.OriginClient
	logger  *slog.Logger
	baseURL *url.URL
}

// NewProxyService creates a ProxyService for the configured origin.
func NewProxyService(c *client.OriginClient, cfg *config.Config, logger *slog.Logger) (*ProxyService, error) {
	u, err := url.Parse(cfg.Origin.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin base_url: %w", err)
	}

	return &ProxyService{
		client:  c,
		logger:  logger.With("component", "proxy_service"),
		baseURL: u,
	}, nil
}

// Forward sends a ProxyRequest to the API origin and returns its response
// verbatim (minus hop-by-hop headers). The caller is responsible for
// closing the response body. Origin failures are not recovered here; they
// surface to the handler's error mapping.
func (s *ProxyService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target := s.buildOriginURL(pr.Path, pr.RawQuery)
	header := s.forwardHeaders(pr.Header)

	s.logger.Debug("forwarding request",
		"method", pr.Method,
		"path", pr.Path,
		"target", target,
	)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, target, header, pr.Body)
	if err != nil {
		return nil, fmt.Errorf("forward to origin: %w", err)
	}

	model.StripHopByHop(resp.Header)
	return resp, nil
}

// buildOriginURL joins the /api-stripped path and the original raw query
// onto the origin base URL. A base URL with its own path prefix is
// respected ("https://host/v2" + "/jobs" -> "/v2/jobs").
func (s *ProxyService) buildOriginURL(path, rawQuery string) string {
	u := *s.baseURL
	u.Path += strings.TrimPrefix(path, "/api")
	u.RawQuery = rawQuery
	return u.String()
}

// forwardHeaders clones the client headers for the origin request,
// removing hop-by-hop headers. End-to-end headers pass through untouched;
// our User-Agent is stamped only when the client sent none.
func (s *ProxyService) forwardHeaders(src http.Header) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	model.StripHopByHop(dst)
	if dst.Get("User-Agent") == "" {
		dst.Set("User-Agent", userAgent)
	}
	return dst
}
