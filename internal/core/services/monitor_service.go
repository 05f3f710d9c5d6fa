package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/chatmandu/elections/internal/core/ports"
)

// DefaultSweepInterval is the monitor cadence.
const DefaultSweepInterval = time.Minute

type MonitorService struct {
	elections ports.ElectionService
	notifier  ports.ResultNotifier
	interval  time.Duration
	logger    *zap.Logger
}

func NewMonitorService(elections ports.ElectionService, notifier ports.ResultNotifier, interval time.Duration, logger *zap.Logger) *MonitorService {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &MonitorService{
		elections: elections,
		notifier:  notifier,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps once immediately, catching elections that expired while the
// process was down, then keeps sweeping on the configured interval until
// the context is cancelled.
func (m *MonitorService) Run(ctx context.Context) {
	m.logger.Info("election monitor started", zap.Duration("interval", m.interval))

	m.Sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("election monitor stopped")
			return
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Sweep drives one pass over expired elections and forwards each result to
// the notifier. A notifier failure for one election does not affect the
// others; the end transition itself has already been committed.
func (m *MonitorService) Sweep(ctx context.Context) {
	ended, err := m.elections.SweepExpired(ctx, time.Now())
	if err != nil {
		m.logger.Error("sweep failed", zap.Error(err))
		return
	}

	for _, e := range ended {
		m.logger.Info("election ended",
			zap.String("election_id", e.Election.ID),
			zap.String("title", e.Election.Title),
			zap.Int("total_votes", e.Result.TotalVotes))

		if m.notifier == nil {
			continue
		}
		if err := m.notifier.NotifyEnded(ctx, e.Election, e.Result); err != nil {
			m.logger.Error("failed to notify ended election",
				zap.String("election_id", e.Election.ID), zap.Error(err))
		}
	}
}
