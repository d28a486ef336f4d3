package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
//
// The /api prefix is the sole signal separating API traffic from
// asset/document traffic; everything else falls through to the edge
// handler, which decides between static asset and SPA shell.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, edge *EdgeHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/edge/status", health.Status)

	e.Any("/api*", proxy.Handle)
	e.Any("/*", edge.Handle)
}
