// Package model holds the domain types shared by the repository and
// handler layers.
package model

import "time"

// Item is the single persisted resource of the service.
//
// Description is nullable in the store, a nil pointer serializes as null.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemPatch lists the fields of a partial update. Fields that are not Set
// are left untouched by the repository.
type ItemPatch struct {
	Name        Optional[string]
	Description Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return !p.Name.Set && !p.Description.Set
}
