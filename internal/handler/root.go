package handler

import (
	"net/http"

	"github.com/deppfellow/go-items/internal/server"
	"github.com/labstack/echo/v4"
)

type RootHandler struct {
	Handler
}

func NewRootHandler(s *server.Server) *RootHandler {
	return &RootHandler{
		Handler: NewHandler(s),
	}
}

// Hello answers GET / with a fixed greeting.
func (h *RootHandler) Hello(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Hello World!",
	})
}
