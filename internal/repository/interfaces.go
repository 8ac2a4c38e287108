package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chefbook/chefbook-api/internal/model"
)

// All repository interfaces in one file
type (
	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		List(ctx context.Context, userID uuid.UUID, filters *model.NotificationFilters) ([]*model.Notification, error)
		UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
		MarkRead(ctx context.Context, id uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID) error
		Delete(ctx context.Context, id uuid.UUID) error
		DeleteReadOlderThan(ctx context.Context, age time.Duration) (int64, error)
	}

	DeliveryLogRepository interface {
		Create(ctx context.Context, entry *model.DeliveryLogEntry) error
		ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]*model.DeliveryLogEntry, error)
		DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
	}

	PreferenceRepository interface {
		Get(ctx context.Context, userID uuid.UUID, notificationType model.NotificationType) (*model.NotificationPreference, error)
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error)
		Upsert(ctx context.Context, pref *model.NotificationPreference) error
		DeleteByUser(ctx context.Context, userID uuid.UUID) error
	}

	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	PushSubscriptionRepository interface {
		Create(ctx context.Context, sub *model.PushSubscription) error
		ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.PushSubscription, error)
		DeleteByEndpoint(ctx context.Context, userID uuid.UUID, endpoint string) error

		CreateDeviceToken(ctx context.Context, token *model.DeviceToken) error
		ListDeviceTokens(ctx context.Context, userID uuid.UUID) ([]*model.DeviceToken, error)
		DeleteDeviceToken(ctx context.Context, userID uuid.UUID, token string) error
	}
)
