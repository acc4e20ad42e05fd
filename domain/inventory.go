package domain

// InventoryItem is a stocked product. Quantity never goes below zero after a
// committed transaction.
type InventoryItem struct {
	ID        int64   `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
	Quantity  int64   `db:"quantity" json:"quantity"`
	CreatedAt string  `db:"created_at" json:"created_at"`
	UpdatedAt string  `db:"updated_at" json:"updated_at"`
}
