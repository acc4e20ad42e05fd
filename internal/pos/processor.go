package pos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"spazapos/m/domain"
	"spazapos/m/internal/apperr"
	"spazapos/m/internal/store"
)

// Invalidator receives notice that the ledger changed, so any cached derived
// view can be dropped.
type Invalidator interface {
	Invalidate()
}

// Processor orchestrates a sale: validate stock, decrement inventory and
// append the ledger record as one atomic unit.
type Processor struct {
	db        *sqlx.DB
	inventory *store.InventoryStore
	ledger    *store.SalesLedger
	credit    Invalidator
	logger    *zap.Logger
}

// NewProcessor constructs a transaction processor.
func NewProcessor(db *sqlx.DB, inventory *store.InventoryStore, ledger *store.SalesLedger, credit Invalidator, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{db: db, inventory: inventory, ledger: ledger, credit: credit, logger: logger}
}

// SaleInput is a validated sale request. AmountReceived and ChangeGiven are
// optional; absent values default to the computed total and zero.
type SaleInput struct {
	ItemName       string
	Quantity       int64
	PaymentMethod  string
	AmountReceived *float64
	ChangeGiven    *float64
}

// Sell runs the sale state machine. On success the inventory decrement and
// ledger append have committed together; on any rejection neither happened.
func (p *Processor) Sell(ctx context.Context, in SaleInput) (*domain.SaleRecord, error) {
	if in.Quantity <= 0 {
		return nil, apperr.InvalidQuantity("quantity must be a positive integer")
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer func() { _ = tx.Rollback() }()

	item, err := p.inventory.FindByNameTx(ctx, tx, in.ItemName)
	if err != nil {
		return nil, err
	}

	if err := p.inventory.DecrementTx(ctx, tx, item, in.Quantity); err != nil {
		return nil, err
	}

	total := item.UnitPrice * float64(in.Quantity)
	amountReceived := total
	if in.AmountReceived != nil {
		amountReceived = *in.AmountReceived
	}
	var changeGiven float64
	if in.ChangeGiven != nil {
		changeGiven = *in.ChangeGiven
	}

	rec, err := p.ledger.AppendTx(ctx, tx, domain.SaleRecord{
		ItemName:       item.Name,
		Quantity:       in.Quantity,
		Total:          total,
		PaymentMethod:  in.PaymentMethod,
		AmountReceived: amountReceived,
		ChangeGiven:    changeGiven,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Storage(err)
	}

	// Derived value only; deliberately outside the commit.
	if p.credit != nil {
		p.credit.Invalidate()
	}

	p.logger.Info("sale committed",
		zap.Int64("sale_id", rec.ID),
		zap.String("item_name", rec.ItemName),
		zap.Int64("quantity", rec.Quantity),
		zap.Float64("total", rec.Total),
		zap.String("payment_method", rec.PaymentMethod))
	return rec, nil
}
