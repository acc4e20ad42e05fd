package domain

// PaymentMethodCash is the only method that does not count toward digital
// adoption. Any other value (card, snapscan, payfast, mtn_momo, ...) does.
const PaymentMethodCash = "cash"

// SaleRecord is one completed transaction in the append-only ledger. The item
// name is copied at time of sale so the record survives later renames or
// removals of the inventory item.
type SaleRecord struct {
	ID             int64   `db:"id" json:"id"`
	ItemName       string  `db:"item_name" json:"item_name"`
	Quantity       int64   `db:"quantity" json:"quantity"`
	Total          float64 `db:"total" json:"total"`
	PaymentMethod  string  `db:"payment_method" json:"payment_method"`
	AmountReceived float64 `db:"amount_received" json:"amount_received"`
	ChangeGiven    float64 `db:"change_given" json:"change_given"`
	Timestamp      string  `db:"timestamp" json:"timestamp"`
}

// Aggregates are ledger-wide sums used by the credit scoring engine.
type Aggregates struct {
	TotalSales       float64 `db:"total_sales"`
	TransactionCount int64   `db:"transaction_count"`
	CashCount        int64   `db:"cash_count"`
}
