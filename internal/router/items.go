package router

import (
	"net/http"

	"github.com/deppfellow/go-items/internal/handler"
	"github.com/labstack/echo/v4"
)

// registerItemRoutes binds the item CRUD routes under /api/items.
func registerItemRoutes(r *echo.Echo, h *handler.Handlers) {
	items := r.Group("/api/items")

	items.GET("", handler.Handle(h.Item.Handler, h.Item.ListItems, http.StatusOK))
	items.POST("", handler.Handle(h.Item.Handler, h.Item.CreateItem, http.StatusCreated))
	items.GET("/:id", handler.Handle(h.Item.Handler, h.Item.GetItem, http.StatusOK))
	items.PATCH("/:id", handler.Handle(h.Item.Handler, h.Item.UpdateItem, http.StatusOK))
	items.DELETE("/:id", handler.Handle(h.Item.Handler, h.Item.DeleteItem, http.StatusOK))
}
