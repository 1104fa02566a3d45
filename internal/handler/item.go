package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/deppfellow/go-items/internal/errs"
	"github.com/deppfellow/go-items/internal/middleware"
	"github.com/deppfellow/go-items/internal/model"
	"github.com/deppfellow/go-items/internal/server"
	"github.com/deppfellow/go-items/internal/validation"
	"github.com/labstack/echo/v4"
)

const maxNameLength = 255

// ItemStore is the persistence the item routes need. A nil item with a nil
// error means no row matched.
type ItemStore interface {
	List(ctx context.Context) ([]model.Item, error)
	GetByID(ctx context.Context, id int64) (*model.Item, error)
	Create(ctx context.Context, name string, description *string) (*model.Item, error)
	Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error)
	Delete(ctx context.Context, id int64) (*model.Item, error)
}

// ---- requests ----

// parseItemID parses the :id path parameter. Only positive integers are
// valid ids.
func parseItemID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.CustomValidationErrors{{
			Field:   "id",
			Message: "must be a positive integer",
		}}
	}
	return id, nil
}

// storableText rejects text PostgreSQL cannot keep in a text column.
func storableText(field, value string) error {
	if strings.ContainsRune(value, 0) {
		return validation.CustomValidationErrors{{
			Field:   field,
			Message: "must not contain NUL characters",
		}}
	}
	return nil
}

type ListItemsRequest struct{}

func (r *ListItemsRequest) Validate() error {
	return nil
}

// ItemIDRequest is the payload of routes that only carry an id.
// The raw parameter is bound as a string so a malformed id produces a
// field error instead of a parser message.
type ItemIDRequest struct {
	RawID string `param:"id" json:"-"`

	id int64
}

func (r *ItemIDRequest) Validate() error {
	id, err := parseItemID(r.RawID)
	if err != nil {
		return err
	}
	r.id = id
	return nil
}

type CreateItemRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
}

func (r *CreateItemRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if err := storableText("name", r.Name); err != nil {
		return err
	}
	if r.Description != nil {
		return storableText("description", *r.Description)
	}
	return nil
}

// UpdateItemRequest distinguishes an omitted field from an explicit null,
// so {"description": null} clears the description and {} changes nothing.
type UpdateItemRequest struct {
	RawID       string                 `param:"id" json:"-"`
	Name        model.Optional[string] `json:"name"`
	Description model.Optional[string] `json:"description"`

	id int64
}

func (r *UpdateItemRequest) Validate() error {
	id, err := parseItemID(r.RawID)
	if err != nil {
		return err
	}
	r.id = id

	if r.Name.Set {
		switch {
		case r.Name.Null || r.Name.Value == "":
			return validation.CustomValidationErrors{{Field: "name", Message: "must not be empty"}}
		case utf8.RuneCountInString(r.Name.Value) > maxNameLength:
			return validation.CustomValidationErrors{{
				Field:   "name",
				Message: fmt.Sprintf("must not exceed %d characters", maxNameLength),
			}}
		}
		if err := storableText("name", r.Name.Value); err != nil {
			return err
		}
	}

	if r.Description.Set && !r.Description.Null {
		return storableText("description", r.Description.Value)
	}

	return nil
}

// Patch returns the fields the client sent.
func (r *UpdateItemRequest) Patch() model.ItemPatch {
	return model.ItemPatch{
		Name:        r.Name,
		Description: r.Description,
	}
}

// DeleteItemResponse echoes the removed row with a confirmation message.
type DeleteItemResponse struct {
	Message string      `json:"message"`
	Item    *model.Item `json:"item"`
}

// ---- handler ----

type ItemHandler struct {
	Handler
	store ItemStore
}

func NewItemHandler(s *server.Server, store ItemStore) *ItemHandler {
	return &ItemHandler{
		Handler: NewHandler(s),
		store:   store,
	}
}

func itemNotFound() *errs.HTTPError {
	return errs.NewNotFoundError("Item not found", false, nil)
}

func (h *ItemHandler) ListItems(c echo.Context, _ *ListItemsRequest) ([]model.Item, error) {
	return h.store.List(c.Request().Context())
}

func (h *ItemHandler) GetItem(c echo.Context, req *ItemIDRequest) (*model.Item, error) {
	item, err := h.store.GetByID(c.Request().Context(), req.id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound()
	}
	return item, nil
}

// CreateItem inserts a new item. A duplicate name is rejected by the store's
// unique constraint, which the global error handler turns into a 400.
func (h *ItemHandler) CreateItem(c echo.Context, req *CreateItemRequest) (*model.Item, error) {
	return h.store.Create(c.Request().Context(), req.Name, req.Description)
}

// UpdateItem applies a partial update. Fields absent from the body keep
// their stored values.
func (h *ItemHandler) UpdateItem(c echo.Context, req *UpdateItemRequest) (*model.Item, error) {
	patch := req.Patch()
	if patch.Empty() {
		return nil, errs.NewBadRequestError("No update data provided", false, nil, nil)
	}

	item, err := h.store.Update(c.Request().Context(), req.id, patch)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound()
	}
	return item, nil
}

func (h *ItemHandler) DeleteItem(c echo.Context, req *ItemIDRequest) (*DeleteItemResponse, error) {
	item, err := h.store.Delete(c.Request().Context(), req.id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, itemNotFound()
	}

	middleware.GetLogger(c).Info().Int64("item_id", item.ID).Msg("item deleted")

	return &DeleteItemResponse{
		Message: fmt.Sprintf("Item %d deleted successfully", item.ID),
		Item:    item,
	}, nil
}
