package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/go-items/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const itemColumns = "id, name, description, created_at, updated_at"

// ItemRepository maps the five item operations onto the items table.
//
// Lookups that match no row return a nil item and a nil error; any
// returned error means the query itself failed. Every write uses
// RETURNING so callers never need a second read.
type ItemRepository struct {
	db DBTX
}

// NewItemRepository builds an ItemRepository on db.
func NewItemRepository(db DBTX) *ItemRepository {
	return &ItemRepository{db: db}
}

func scanItem(row pgx.CollectableRow) (model.Item, error) {
	var item model.Item
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.CreatedAt, &item.UpdatedAt)
	return item, err
}

// queryOne runs a single-row statement, translating "no rows" into nil, nil.
func (r *ItemRepository) queryOne(ctx context.Context, op, sql string, args ...any) (*model.Item, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	item, err := pgx.CollectOneRow(rows, scanItem)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return &item, nil
}

// List returns every item in the store's natural order.
// An empty table yields an empty, non-nil slice.
func (r *ItemRepository) List(ctx context.Context) ([]model.Item, error) {
	rows, err := r.db.Query(ctx, "SELECT "+itemColumns+" FROM items")
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}

	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return nil, errors.Wrap(err, "list items")
	}

	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetByID looks an item up by primary key.
func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*model.Item, error) {
	return r.queryOne(ctx, "get item",
		"SELECT "+itemColumns+" FROM items WHERE id = $1",
		id,
	)
}

// Create inserts an item and returns the stored row.
// A duplicate name surfaces as the store's unique violation.
func (r *ItemRepository) Create(ctx context.Context, name string, description *string) (*model.Item, error) {
	item, err := r.queryOne(ctx, "create item",
		"INSERT INTO items (name, description) VALUES ($1, $2) RETURNING "+itemColumns,
		name, description,
	)
	if err == nil && item == nil {
		// INSERT ... RETURNING always yields a row.
		return nil, errors.New("create item: no row returned")
	}
	return item, err
}

// Update applies only the fields set in patch and returns the updated row.
// An empty patch changes nothing and behaves like GetByID.
func (r *ItemRepository) Update(ctx context.Context, id int64, patch model.ItemPatch) (*model.Item, error) {
	sets := make([]string, 0, 2)
	args := make([]any, 0, 3)

	if patch.Name.Set {
		args = append(args, patch.Name.Value)
		sets = append(sets, fmt.Sprintf("name = $%d", len(args)))
	}
	if patch.Description.Set {
		args = append(args, patch.Description.Ptr())
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	sql := fmt.Sprintf("UPDATE items SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), itemColumns)

	return r.queryOne(ctx, "update item", sql, args...)
}

// Delete removes an item and returns the deleted row.
func (r *ItemRepository) Delete(ctx context.Context, id int64) (*model.Item, error) {
	return r.queryOne(ctx, "delete item",
		"DELETE FROM items WHERE id = $1 RETURNING "+itemColumns,
		id,
	)
}
