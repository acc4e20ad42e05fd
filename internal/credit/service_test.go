package credit

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"spazapos/m/domain"
	"spazapos/m/internal/database"
	"spazapos/m/internal/migrations"
	"spazapos/m/internal/store"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Run(db))
	return db
}

func TestService_AssessIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	ledger := store.NewSalesLedger(db)
	svc := NewService(ledger, db, nil)
	ctx := context.Background()

	_, err := ledger.Append(ctx, domain.SaleRecord{ItemName: "Bread", Quantity: 1, Total: 15, PaymentMethod: "cash", AmountReceived: 15})
	require.NoError(t, err)

	first, err := svc.Assess(ctx)
	require.NoError(t, err)
	second, err := svc.Assess(ctx)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 3, first.Score)
}

func TestService_InvalidateRecomputes(t *testing.T) {
	db := newTestDB(t)
	ledger := store.NewSalesLedger(db)
	svc := NewService(ledger, db, nil)
	ctx := context.Background()

	before, err := svc.Assess(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, before.Score)

	_, err = ledger.Append(ctx, domain.SaleRecord{ItemName: "Milk", Quantity: 2, Total: 50, PaymentMethod: "snapscan", AmountReceived: 50})
	require.NoError(t, err)

	// Still cached until invalidated.
	stale, err := svc.Assess(ctx)
	require.NoError(t, err)
	require.Equal(t, before, stale)

	svc.Invalidate()
	fresh, err := svc.Assess(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), fresh.TransactionCount)
	require.Equal(t, 100.0, fresh.DigitalAdoptionPercent)
}

func TestService_RefreshPersistsSnapshot(t *testing.T) {
	db := newTestDB(t)
	ledger := store.NewSalesLedger(db)
	svc := NewService(ledger, db, nil)
	ctx := context.Background()

	_, err := ledger.Append(ctx, domain.SaleRecord{ItemName: "Airtime", Quantity: 1, Total: 30, PaymentMethod: "payfast", AmountReceived: 30})
	require.NoError(t, err)

	assessment, err := svc.Refresh(ctx)
	require.NoError(t, err)

	var snap struct {
		ShopID           string  `db:"shop_id"`
		Score            int     `db:"score"`
		TotalSales       float64 `db:"total_sales"`
		TransactionCount int64   `db:"transaction_count"`
	}
	require.NoError(t, db.Get(&snap, `SELECT shop_id, score, total_sales, transaction_count FROM credit_score WHERE id = 1`))
	require.Equal(t, "shop_001", snap.ShopID)
	require.Equal(t, assessment.Score, snap.Score)
	require.Equal(t, assessment.TotalSales, snap.TotalSales)
	require.Equal(t, assessment.TransactionCount, snap.TransactionCount)

	// A second refresh replaces the snapshot row instead of duplicating it.
	_, err = svc.Refresh(ctx)
	require.NoError(t, err)
	var rows int
	require.NoError(t, db.Get(&rows, `SELECT COUNT(*) FROM credit_score`))
	require.Equal(t, 1, rows)
}
