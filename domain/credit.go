package domain

// CreditAssessment is the derived loan-eligibility view of the ledger. It is
// recomputed on demand and never authoritative.
type CreditAssessment struct {
	Score                  int     `json:"score"`
	TotalSales             float64 `json:"total_sales"`
	TransactionCount       int64   `json:"transaction_count"`
	AverageTransaction     float64 `json:"avg_transaction"`
	DigitalAdoptionPercent float64 `json:"digital_adoption"`
	RiskTier               string  `json:"risk_level"`
	Rating                 string  `json:"rating"`
	MaxLoanAmount          float64 `json:"max_loan"`
	InterestRate           float64 `json:"interest_rate"`
}
