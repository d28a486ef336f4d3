package handler

import (
	"io"
	"log/slog"

	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/service"
)

// EdgeHandler serves the asset/document branch: static files with cache
// policy, SPA fallback on soft routes, and root-document recovery on store
// failure.
type EdgeHandler struct {
	service *service.EdgeService
	logger  *slog.Logger
}

// NewEdgeHandler creates an EdgeHandler.
func NewEdgeHandler(svc *service.EdgeService, logger *slog.Logger) *EdgeHandler {
	return &EdgeHandler{
		service: svc,
		logger:  logger.With("component", "edge_handler"),
	}
}

// Handle resolves the request path against the Asset Store and writes the
// annotated response. The service recovers store failures once by serving
// the root document; if that recovery itself failed, the error goes to
// Echo's central error handler.
func (h *EdgeHandler) Handle(c echo.Context) error {
	req := c.Request()

	resp, err := h.service.Resolve(req.Context(), req.URL.Path)
	if err != nil {
		h.logger.Error("asset resolution failed",
			"err", err,
			"path", req.URL.Path,
		)
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	for key, vals := range resp.Header {
		for _, v := range vals {
			c.Response().Header().Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming asset body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}
