package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/repository"
)

// RetentionConfig tunes the periodic cleanup sweeps.
type RetentionConfig struct {
	Interval            time.Duration
	DeliveryLogAge      time.Duration
	ReadNotificationAge time.Duration
}

// RetentionWorker prunes aged delivery-log rows and read notifications.
// The audit trail only needs to cover the diagnosable past.
type RetentionWorker struct {
	notifications repository.NotificationRepository
	deliveryLog   repository.DeliveryLogRepository
	cfg           RetentionConfig
	logger        zerolog.Logger
}

func NewRetentionWorker(
	notifications repository.NotificationRepository,
	deliveryLog repository.DeliveryLogRepository,
	cfg RetentionConfig,
	logger zerolog.Logger,
) *RetentionWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.DeliveryLogAge <= 0 {
		cfg.DeliveryLogAge = 90 * 24 * time.Hour
	}
	if cfg.ReadNotificationAge <= 0 {
		cfg.ReadNotificationAge = 180 * 24 * time.Hour
	}
	return &RetentionWorker{
		notifications: notifications,
		deliveryLog:   deliveryLog,
		cfg:           cfg,
		logger:        logger.With().Str("component", "retention_worker").Logger(),
	}
}

// Start blocks until ctx is cancelled, sweeping on every tick.
func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info().
		Dur("interval", w.cfg.Interval).
		Msg("retention worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("retention worker shutting down")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	if pruned, err := w.deliveryLog.DeleteOlderThan(ctx, w.cfg.DeliveryLogAge); err != nil {
		w.logger.Error().Err(err).Msg("delivery log sweep failed")
	} else if pruned > 0 {
		w.logger.Info().Int64("rows", pruned).Msg("pruned delivery log")
	}

	if pruned, err := w.notifications.DeleteReadOlderThan(ctx, w.cfg.ReadNotificationAge); err != nil {
		w.logger.Error().Err(err).Msg("notification sweep failed")
	} else if pruned > 0 {
		w.logger.Info().Int64("rows", pruned).Msg("pruned read notifications")
	}
}
