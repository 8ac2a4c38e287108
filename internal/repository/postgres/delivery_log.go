package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/repository"
)

type deliveryLogRepository struct {
	BaseRepository
}

func NewDeliveryLogRepository(base BaseRepository) repository.DeliveryLogRepository {
	return &deliveryLogRepository{base}
}

// Create appends one audit row. Rows are never updated after insert.
func (r *deliveryLogRepository) Create(ctx context.Context, entry *model.DeliveryLogEntry) error {
	query := `
		INSERT INTO notification_delivery_log (
			id, notification_id, channel, status, error_message, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.NotificationID,
		entry.Channel,
		entry.Status,
		entry.ErrorMessage,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create delivery log entry: %w", err)
	}
	return nil
}

func (r *deliveryLogRepository) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryLogEntry, error) {
	query := `
		SELECT * FROM notification_delivery_log
		WHERE notification_id = $1
		ORDER BY created_at
	`

	entries := []*model.DeliveryLogEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, notificationID); err != nil {
		return nil, fmt.Errorf("failed to list delivery log: %w", err)
	}
	return entries, nil
}

func (r *deliveryLogRepository) DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	query := `DELETE FROM notification_delivery_log WHERE created_at < $1`

	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("failed to prune delivery log: %w", err)
	}
	return result.RowsAffected()
}
