package migrations

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

type migration struct {
	version    int
	statements []string
}

// Ordered schema history. Append new versions; never edit an applied one.
var schema = []migration{
	{
		version: 1,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS inventory (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                name TEXT NOT NULL UNIQUE,
                unit_price REAL NOT NULL CHECK (unit_price >= 0),
                quantity INTEGER NOT NULL CHECK (quantity >= 0),
                created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
                updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
            );`,
			`CREATE TABLE IF NOT EXISTS sales (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                item_name TEXT NOT NULL,
                quantity INTEGER NOT NULL,
                total REAL NOT NULL,
                payment_method TEXT NOT NULL,
                amount_received REAL NOT NULL,
                change_given REAL NOT NULL,
                timestamp TEXT NOT NULL
            );`,
			`CREATE TABLE IF NOT EXISTS credit_score (
                id INTEGER PRIMARY KEY,
                shop_id TEXT NOT NULL,
                score INTEGER NOT NULL,
                total_sales REAL NOT NULL,
                transaction_count INTEGER NOT NULL,
                updated_at TEXT NOT NULL
            );`,
		},
	},
	{
		version: 2,
		statements: []string{
			`CREATE TABLE IF NOT EXISTS payments (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                merchant_payment_id TEXT NOT NULL UNIQUE,
                item_id INTEGER NOT NULL,
                item_name TEXT NOT NULL,
                quantity INTEGER NOT NULL,
                amount REAL NOT NULL,
                provider TEXT NOT NULL,
                status TEXT NOT NULL DEFAULT 'pending',
                created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
                updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
            );`,
			`CREATE INDEX IF NOT EXISTS idx_sales_timestamp ON sales (timestamp DESC, id DESC);`,
		},
	},
}

// Run applies every schema version above the recorded maximum, one
// transaction per version. Running it again is a no-op.
func Run(db *sqlx.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for _, m := range schema {
		if m.version <= current {
			continue
		}
		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		for _, stmt := range m.statements {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d: %w", m.version, err)
			}
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES (?)`, m.version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Version returns the highest applied schema version.
func Version(db *sqlx.DB) (int, error) {
	var current int
	err := db.Get(&current, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	return current, err
}
