package repository

import (
	"github.com/deppfellow/go-items/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Items *ItemRepository
}

// NewRepositories constructs the repository container on top of the
// server's connection pool.
func NewRepositories(s *server.Server) *Repositories {
	return &Repositories{
		Items: NewItemRepository(s.DB.Pool),
	}
}
