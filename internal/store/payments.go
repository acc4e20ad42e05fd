package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"spazapos/m/domain"
	"spazapos/m/internal/apperr"
)

// PaymentStore tracks checkout intents and their notification outcomes.
type PaymentStore struct {
	db *sqlx.DB
}

// NewPaymentStore constructs a PaymentStore.
func NewPaymentStore(db *sqlx.DB) *PaymentStore {
	return &PaymentStore{db: db}
}

// CreatePending records a new checkout intent.
func (s *PaymentStore) CreatePending(ctx context.Context, p domain.PendingPayment) (*domain.PendingPayment, error) {
	p.Status = domain.PaymentStatusPending
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (merchant_payment_id, item_id, item_name, quantity, amount, provider, status)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.MerchantPaymentID, p.ItemID, p.ItemName, p.Quantity, p.Amount, p.Provider, p.Status)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &p, nil
}

// GetByMerchantID fetches a payment by its idempotency key.
func (s *PaymentStore) GetByMerchantID(ctx context.Context, merchantPaymentID string) (*domain.PendingPayment, error) {
	var p domain.PendingPayment
	err := s.db.GetContext(ctx, &p,
		`SELECT id, merchant_payment_id, item_id, item_name, quantity, amount, provider, status, created_at, updated_at
         FROM payments WHERE merchant_payment_id = ?`, merchantPaymentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment")
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &p, nil
}

// Transition moves a pending payment to the given terminal status. It returns
// false when the payment was not pending, which is how a replayed provider
// notification is detected.
func (s *PaymentStore) Transition(ctx context.Context, merchantPaymentID, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP
         WHERE merchant_payment_id = ? AND status = ?`,
		status, merchantPaymentID, domain.PaymentStatusPending)
	if err != nil {
		return false, apperr.Storage(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, apperr.Storage(err)
	}
	return rows > 0, nil
}

// SetStatus overwrites a payment's status unconditionally. Used to park a
// claimed payment as failed when its sale cannot be recorded.
func (s *PaymentStore) SetStatus(ctx context.Context, merchantPaymentID, status string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE payments SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE merchant_payment_id = ?`,
		status, merchantPaymentID)
	if err != nil {
		return apperr.Storage(err)
	}
	return nil
}
