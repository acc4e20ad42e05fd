package credit

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"spazapos/m/domain"
	"spazapos/m/internal/apperr"
)

// LedgerReader is the read-only slice of the sales ledger the scoring engine
// depends on.
type LedgerReader interface {
	Aggregate(ctx context.Context) (domain.Aggregates, error)
}

// Service computes credit assessments on demand, caching the result until the
// transaction processor invalidates it. The cache is a derived value and
// never authoritative.
type Service struct {
	ledger LedgerReader
	db     *sqlx.DB
	logger *zap.Logger

	mu     sync.Mutex
	cached *domain.CreditAssessment
}

// NewService constructs a credit scoring service.
func NewService(ledger LedgerReader, db *sqlx.DB, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{ledger: ledger, db: db, logger: logger}
}

// Assess returns the current credit assessment, recomputing from the ledger
// only when the cache has been invalidated. Two calls with no intervening
// sale return identical results.
func (s *Service) Assess(ctx context.Context) (domain.CreditAssessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached, nil
	}

	agg, err := s.ledger.Aggregate(ctx)
	if err != nil {
		return domain.CreditAssessment{}, err
	}
	assessment := Score(agg)
	s.cached = &assessment
	return assessment, nil
}

// Invalidate drops the cached assessment. Called after each committed sale;
// not part of the sale's atomic commit.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}

// Refresh recomputes the assessment and persists the denormalized snapshot
// row. The snapshot may lag the ledger by one refresh interval.
func (s *Service) Refresh(ctx context.Context) (domain.CreditAssessment, error) {
	s.Invalidate()
	assessment, err := s.Assess(ctx)
	if err != nil {
		return domain.CreditAssessment{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO credit_score (id, shop_id, score, total_sales, transaction_count, updated_at)
         VALUES (1, 'shop_001', ?, ?, ?, ?)`,
		assessment.Score, assessment.TotalSales, assessment.TransactionCount,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return domain.CreditAssessment{}, apperr.Storage(err)
	}

	s.logger.Debug("credit snapshot refreshed",
		zap.Int("score", assessment.Score),
		zap.Int64("transaction_count", assessment.TransactionCount))
	return assessment, nil
}
