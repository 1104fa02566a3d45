package router

import (
	"github.com/deppfellow/go-items/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerSystemRoutes registers endpoints that are not part of the item API.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.Root.Hello)

	// Health status endpoint (used by load balancers and monitors).
	r.GET("/status", h.Health.CheckHealth)
}
