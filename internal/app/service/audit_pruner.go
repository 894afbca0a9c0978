package service

import (
	"context"
	"time"

	"github.com/sifan077/PowerRead/internal/app/repository"
	"go.uber.org/zap"
)

const defaultPruneInterval = time.Hour

// AuditPruner periodically deletes audit rows older than the retention window.
type AuditPruner struct {
	logger    *zap.Logger
	repo      repository.AuditRepository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	stopChan  chan struct{}
}

// NewAuditPruner creates a new audit pruner. A non-positive interval uses one hour.
func NewAuditPruner(logger *zap.Logger, repo repository.AuditRepository, retention, interval time.Duration) *AuditPruner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = defaultPruneInterval
	}
	return &AuditPruner{
		logger:    logger,
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		stopChan:  make(chan struct{}),
	}
}

// Start begins pruning in the background. A zero retention keeps audits forever.
func (p *AuditPruner) Start() {
	if p.retention <= 0 {
		p.logger.Info("audit pruning disabled")
		return
	}
	go p.run()
}

// Stop stops the background pruning.
func (p *AuditPruner) Stop() {
	close(p.stopChan)
}

func (p *AuditPruner) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.prune(context.Background())
		case <-p.stopChan:
			p.logger.Info("audit pruner stopped")
			return
		}
	}
}

func (p *AuditPruner) prune(ctx context.Context) int64 {
	before := p.now().Add(-p.retention)

	affected, err := p.repo.DeleteOlderThan(ctx, before)
	if err != nil {
		p.logger.Error("failed to prune entry audits", zap.Error(err))
		return 0
	}

	if affected > 0 {
		p.logger.Info("pruned entry audits",
			zap.Int64("count", affected),
			zap.Time("before", before),
		)
	}
	return affected
}
