package middleware

import (
	"github.com/labstack/echo/v4"

	"jobboard-edge/internal/model"
)

// StripHopByHop returns an Echo middleware that removes hop-by-hop headers
// from incoming requests before any handler sees them. The proxy branch
// must not forward connection-scoped headers, and the asset branch never
// needs them.
func StripHopByHop() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			model.StripHopByHop(c.Request().Header)
			return next(c)
		}
	}
}
