package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/repository"
)

type pushSubscriptionRepository struct {
	BaseRepository
}

func NewPushSubscriptionRepository(base BaseRepository) repository.PushSubscriptionRepository {
	return &pushSubscriptionRepository{base}
}

func (r *pushSubscriptionRepository) Create(ctx context.Context, sub *model.PushSubscription) error {
	query := `
		INSERT INTO push_subscriptions (
			id, user_id, endpoint, p256dh_key, auth_key, device_name, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, endpoint) DO UPDATE SET
			p256dh_key = EXCLUDED.p256dh_key,
			auth_key = EXCLUDED.auth_key,
			device_name = EXCLUDED.device_name
	`

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	sub.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			sub.ID,
			sub.UserID,
			sub.Endpoint,
			sub.P256dhKey,
			sub.AuthKey,
			sub.DeviceName,
			sub.CreatedAt,
		)
		return err
	})
}

func (r *pushSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.PushSubscription, error) {
	query := `SELECT * FROM push_subscriptions WHERE user_id = $1`

	subs := []*model.PushSubscription{}
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	return subs, nil
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}

func (r *pushSubscriptionRepository) CreateDeviceToken(ctx context.Context, token *model.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (id, user_id, token, platform, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, token) DO UPDATE SET platform = EXCLUDED.platform
	`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	token.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Token,
		token.Platform,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create device token: %w", err)
	}
	return nil
}

func (r *pushSubscriptionRepository) ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]*model.DeviceToken, error) {
	query := `SELECT * FROM device_tokens WHERE user_id = $1`

	tokens := []*model.DeviceToken{}
	if err := r.db.SelectContext(ctx, &tokens, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list device tokens: %w", err)
	}
	return tokens, nil
}

func (r *pushSubscriptionRepository) DeleteDeviceToken(ctx context.Context, userID uuid.UUID, token string) error {
	query := `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, token); err != nil {
		return fmt.Errorf("failed to delete device token: %w", err)
	}
	return nil
}
