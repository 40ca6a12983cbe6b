package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/kanban/internal/infrastructure/localcache"
	"github.com/fastygo/kanban/repository"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// Outbox holds remote writes that failed during write-back.
type Outbox interface {
	PendingBatch(limit int) ([]localcache.Item, error)
	Remove(item localcache.Item) error
	Requeue(item localcache.Item) error
	Size() (int, error)
	Cleanup(olderThan time.Time) error
}

// ProcessorConfig controls how frequently the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// SyncProcessor replays outbox items against the remote document store.
type SyncProcessor struct {
	outbox  Outbox
	remote  repository.DocumentStore
	monitor ConnectionHealth
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewSyncProcessor(
	outbox Outbox,
	remote repository.DocumentStore,
	monitor ConnectionHealth,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *SyncProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := &SyncProcessor{
		outbox:  outbox,
		remote:  remote,
		monitor: monitor,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(int(cfg.Interval.Seconds()), 1))
	_, _ = sp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sp.Drain(ctx); err != nil {
			sp.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	if cfg.Retention > 0 {
		_, _ = sp.cron.AddFunc("@hourly", func() {
			if err := sp.outbox.Cleanup(time.Now().Add(-cfg.Retention)); err != nil {
				sp.logger.Warn("outbox cleanup failed", zap.Error(err))
			}
		})
	}

	return sp
}

// Start launches the cron scheduler.
func (sp *SyncProcessor) Start() {
	if sp == nil || sp.cron == nil {
		return
	}
	sp.cron.Start()
	sp.logger.Info("sync processor started", zap.Duration("interval", sp.cfg.Interval))
}

// Stop gracefully stops the scheduler.
func (sp *SyncProcessor) Stop(ctx context.Context) {
	if sp == nil || sp.cron == nil {
		return
	}
	stopCtx := sp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sp.logger.Info("sync processor stopped")
}

// Drain replays pending items synchronously.
func (sp *SyncProcessor) Drain(ctx context.Context) error {
	if sp == nil || sp.outbox == nil || sp.remote == nil {
		return nil
	}
	if sp.monitor != nil && !sp.monitor.IsOnline() {
		sp.logger.Debug("skipping outbox drain (offline)")
		return nil
	}

	items, err := sp.outbox.PendingBatch(sp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := sp.replay(ctx, item); err != nil {
			sp.logger.Error("failed to replay outbox item",
				zap.String("key", item.Key()),
				zap.String("operation", item.Operation),
				zap.Error(err))

			item.Retries++
			if item.Retries >= sp.cfg.MaxRetries {
				sp.logger.Warn("dropping outbox item (max retries reached)", zap.String("key", item.Key()))
				_ = sp.outbox.Remove(item)
				continue
			}
			if err := sp.outbox.Requeue(item); err != nil {
				sp.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			continue
		}

		if err := sp.outbox.Remove(item); err != nil {
			sp.logger.Warn("failed to purge replayed outbox item", zap.Error(err))
		}
	}
	return nil
}

// Size returns the number of pending items.
func (sp *SyncProcessor) Size() int {
	if sp == nil || sp.outbox == nil {
		return 0
	}
	size, err := sp.outbox.Size()
	if err != nil {
		return 0
	}
	return size
}

func (sp *SyncProcessor) replay(ctx context.Context, item localcache.Item) error {
	switch item.Operation {
	case localcache.OperationUpsert:
		return sp.remote.Upsert(ctx, item.Collection, item.ID, item.Data)
	case localcache.OperationDeletePair:
		return sp.remote.DeleteBatch(ctx, repository.PairRefs(item.ID))
	default:
		return fmt.Errorf("unsupported operation %s", item.Operation)
	}
}
