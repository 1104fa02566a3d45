package handler

import (
	"github.com/deppfellow/go-items/internal/server"
)

// Handlers groups all HTTP handlers so router setup only passes one value around.
type Handlers struct {
	Root   *RootHandler
	Health *HealthHandler
	Item   *ItemHandler
}

// NewHandlers constructs the handler container.
//
// store backs the item routes and db backs the health check; in production
// both come from the server's pool.
func NewHandlers(s *server.Server, store ItemStore, db Pinger) *Handlers {
	return &Handlers{
		Root:   NewRootHandler(s),
		Health: NewHealthHandler(s, db),
		Item:   NewItemHandler(s, store),
	}
}
