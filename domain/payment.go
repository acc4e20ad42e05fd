package domain

// Payment lifecycle states. A pending payment becomes complete exactly once;
// replayed provider notifications must not append a second sale.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusComplete = "complete"
	PaymentStatusFailed   = "failed"
)

// PendingPayment is a checkout intent created before redirecting the buyer to
// the external payment provider. The merchant payment id is the idempotency
// key echoed back in the provider's notification.
type PendingPayment struct {
	ID                int64   `db:"id" json:"id"`
	MerchantPaymentID string  `db:"merchant_payment_id" json:"merchant_payment_id"`
	ItemID            int64   `db:"item_id" json:"item_id"`
	ItemName          string  `db:"item_name" json:"item_name"`
	Quantity          int64   `db:"quantity" json:"quantity"`
	Amount            float64 `db:"amount" json:"amount"`
	Provider          string  `db:"provider" json:"provider"`
	Status            string  `db:"status" json:"status"`
	CreatedAt         string  `db:"created_at" json:"created_at"`
	UpdatedAt         string  `db:"updated_at" json:"updated_at"`
}
