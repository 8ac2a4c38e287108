package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/repository"
	apperrors "github.com/chefbook/chefbook-api/pkg/errors"
)

type preferenceRepository struct {
	BaseRepository
}

func NewPreferenceRepository(base BaseRepository) repository.PreferenceRepository {
	return &preferenceRepository{base}
}

func (r *preferenceRepository) Get(ctx context.Context, userID uuid.UUID, notificationType model.NotificationType) (*model.NotificationPreference, error) {
	query := `
		SELECT * FROM notification_preferences
		WHERE user_id = $1 AND notification_type = $2
	`

	var pref model.NotificationPreference
	if err := r.db.GetContext(ctx, &pref, query, userID, notificationType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("notification preference", err)
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}
	return &pref, nil
}

func (r *preferenceRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	query := `SELECT * FROM notification_preferences WHERE user_id = $1`

	prefs := []*model.NotificationPreference{}
	if err := r.db.SelectContext(ctx, &prefs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	return prefs, nil
}

// Upsert writes one (user, type) row, leaving other types' rows untouched.
func (r *preferenceRepository) Upsert(ctx context.Context, pref *model.NotificationPreference) error {
	query := `
		INSERT INTO notification_preferences (
			id, user_id, notification_type,
			channel_push, channel_email, channel_sms, channel_in_app, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, notification_type) DO UPDATE SET
			channel_push = EXCLUDED.channel_push,
			channel_email = EXCLUDED.channel_email,
			channel_sms = EXCLUDED.channel_sms,
			channel_in_app = EXCLUDED.channel_in_app,
			updated_at = EXCLUDED.updated_at
	`

	if pref.ID == uuid.Nil {
		pref.ID = uuid.New()
	}
	pref.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			pref.ID,
			pref.UserID,
			pref.NotificationType,
			pref.ChannelPush,
			pref.ChannelEmail,
			pref.ChannelSMS,
			pref.ChannelInApp,
			pref.UpdatedAt,
		)
		return err
	})
}

func (r *preferenceRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM notification_preferences WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete preferences: %w", err)
	}
	return nil
}
