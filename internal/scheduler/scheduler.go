package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"spazapos/m/internal/credit"
)

// Scheduler periodically refreshes the persisted credit snapshot, bounding
// how far the denormalized copy can lag the ledger.
type Scheduler struct {
	cron   *cron.Cron
	credit *credit.Service
	spec   string
	logger *zap.Logger
}

// New creates a scheduler running on the given cron expression.
func New(spec string, creditSvc *credit.Service, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		credit: creditSvc,
		spec:   spec,
		logger: logger,
	}
}

// Start schedules the refresh job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("spec", s.spec))

	if _, err := s.cron.AddFunc(s.spec, s.refreshSnapshot); err != nil {
		s.logger.Error("failed to schedule credit refresh", zap.Error(err))
		return
	}
	s.cron.Start()
}

// Stop stops the cron loop.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) refreshSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.credit.Refresh(ctx); err != nil {
		s.logger.Error("failed to refresh credit snapshot", zap.Error(err))
	}
}
