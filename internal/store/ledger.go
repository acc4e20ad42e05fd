package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"spazapos/m/domain"
	"spazapos/m/internal/apperr"
)

// timestampLayout is RFC3339 with fixed-width nanoseconds. Recent orders
// records lexically, so the fractional part must not vary in length:
// RFC3339Nano trims trailing zeros, which makes "…00.1Z" sort after
// "…00.15Z" within the same second.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SalesLedger is the append-only log of completed transactions. Records are
// never mutated or deleted.
type SalesLedger struct {
	db *sqlx.DB
}

// NewSalesLedger constructs a SalesLedger.
func NewSalesLedger(db *sqlx.DB) *SalesLedger {
	return &SalesLedger{db: db}
}

// Append stores a sale record, assigning its id and timestamp.
func (l *SalesLedger) Append(ctx context.Context, rec domain.SaleRecord) (*domain.SaleRecord, error) {
	return appendRecord(ctx, l.db, rec)
}

// AppendTx is Append inside an open transaction.
func (l *SalesLedger) AppendTx(ctx context.Context, tx *sqlx.Tx, rec domain.SaleRecord) (*domain.SaleRecord, error) {
	return appendRecord(ctx, tx, rec)
}

func appendRecord(ctx context.Context, e sqlx.ExtContext, rec domain.SaleRecord) (*domain.SaleRecord, error) {
	rec.Timestamp = time.Now().UTC().Format(timestampLayout)
	res, err := e.ExecContext(ctx,
		`INSERT INTO sales (item_name, quantity, total, payment_method, amount_received, change_given, timestamp)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ItemName, rec.Quantity, rec.Total, rec.PaymentMethod, rec.AmountReceived, rec.ChangeGiven, rec.Timestamp)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, apperr.Storage(err)
	}
	rec.ID = id
	return &rec, nil
}

// Recent returns the limit most recent records, newest first. Timestamp ties
// break by id descending.
func (l *SalesLedger) Recent(ctx context.Context, limit int) ([]domain.SaleRecord, error) {
	if limit <= 0 {
		return []domain.SaleRecord{}, nil
	}
	records := []domain.SaleRecord{}
	err := l.db.SelectContext(ctx, &records,
		`SELECT id, item_name, quantity, total, payment_method, amount_received, change_given, timestamp
         FROM sales ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return records, nil
}

// Aggregate computes ledger-wide sums in a single statement, so the result is
// a consistent snapshot even while sales commit concurrently.
func (l *SalesLedger) Aggregate(ctx context.Context) (domain.Aggregates, error) {
	var agg domain.Aggregates
	err := l.db.GetContext(ctx, &agg,
		`SELECT COALESCE(SUM(total), 0) AS total_sales,
                COUNT(*) AS transaction_count,
                COALESCE(SUM(CASE WHEN payment_method = ? THEN 1 ELSE 0 END), 0) AS cash_count
         FROM sales`, domain.PaymentMethodCash)
	if err != nil {
		return domain.Aggregates{}, apperr.Storage(err)
	}
	return agg, nil
}
