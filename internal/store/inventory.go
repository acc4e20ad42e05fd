package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"spazapos/m/domain"
	"spazapos/m/internal/apperr"
)

// InventoryStore owns all reads and writes against the inventory table.
type InventoryStore struct {
	db *sqlx.DB
}

// NewInventoryStore constructs an InventoryStore.
func NewInventoryStore(db *sqlx.DB) *InventoryStore {
	return &InventoryStore{db: db}
}

// Add creates a new inventory item. Names are unique; price and quantity must
// be non-negative.
func (s *InventoryStore) Add(ctx context.Context, name string, unitPrice float64, quantity int64) (*domain.InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	if unitPrice < 0 {
		return nil, apperr.Validation("unit_price must not be negative")
	}
	if quantity < 0 {
		return nil, apperr.Validation("quantity must not be negative")
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO inventory (name, unit_price, quantity) VALUES (?, ?, ?)`,
		name, unitPrice, quantity)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique constraint") {
			return nil, apperr.DuplicateName(name)
		}
		return nil, apperr.Storage(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return s.Get(ctx, id)
}

// Get fetches an item by id.
func (s *InventoryStore) Get(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := s.db.GetContext(ctx, &item,
		`SELECT id, name, unit_price, quantity, created_at, updated_at FROM inventory WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("inventory item")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &item, nil
}

// List returns all items in insertion order.
func (s *InventoryStore) List(ctx context.Context) ([]domain.InventoryItem, error) {
	items := []domain.InventoryItem{}
	err := s.db.SelectContext(ctx, &items,
		`SELECT id, name, unit_price, quantity, created_at, updated_at FROM inventory ORDER BY id`)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return items, nil
}

// FindByName resolves a human-facing item name to an item. Names created
// through Add are unique; legacy duplicates resolve to the lowest id.
func (s *InventoryStore) FindByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	return findByName(ctx, s.db, name)
}

// FindByNameTx is FindByName inside an open transaction.
func (s *InventoryStore) FindByNameTx(ctx context.Context, tx *sqlx.Tx, name string) (*domain.InventoryItem, error) {
	return findByName(ctx, tx, name)
}

func findByName(ctx context.Context, q sqlx.QueryerContext, name string) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := sqlx.GetContext(ctx, q, &item,
		`SELECT id, name, unit_price, quantity, created_at, updated_at FROM inventory WHERE name = ? ORDER BY id LIMIT 1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ItemNotFound(name)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &item, nil
}

// AdjustQuantity applies a signed delta to an item's stock and returns the new
// quantity. The conditional update and the read-back are one statement, so
// stock can never go negative and the returned value is the quantity this
// call produced, even under concurrent adjustments.
func (s *InventoryStore) AdjustQuantity(ctx context.Context, id, delta int64) (int64, error) {
	var quantity int64
	err := s.db.GetContext(ctx, &quantity,
		`UPDATE inventory SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP
         WHERE id = ? AND quantity + ? >= 0 RETURNING quantity`, delta, id, delta)
	if errors.Is(err, sql.ErrNoRows) {
		item, getErr := s.Get(ctx, id)
		if getErr != nil {
			return 0, getErr
		}
		return 0, apperr.InsufficientStock(item.Name)
	}
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return quantity, nil
}

// DecrementTx removes quantity units of stock inside an open transaction.
// Returns InsufficientStock without mutating anything when the item holds
// fewer units than requested.
func (s *InventoryStore) DecrementTx(ctx context.Context, tx *sqlx.Tx, item *domain.InventoryItem, quantity int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE inventory SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP
         WHERE id = ? AND quantity >= ?`, quantity, item.ID, quantity)
	if err != nil {
		return apperr.Storage(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if rows == 0 {
		return apperr.InsufficientStock(item.Name)
	}
	return nil
}

// Remove deletes an item. Historical sale records keep the denormalized name.
func (s *InventoryStore) Remove(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return apperr.Storage(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return apperr.Storage(err)
	}
	if rows == 0 {
		return apperr.NotFound("inventory item")
	}
	return nil
}
