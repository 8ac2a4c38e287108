package model

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription is a stored browser web-push subscription (VAPID).
type PushSubscription struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	Endpoint   string    `json:"endpoint" db:"endpoint"`
	P256dhKey  string    `json:"p256dh_key" db:"p256dh_key"`
	AuthKey    string    `json:"auth_key" db:"auth_key"`
	DeviceName string    `json:"device_name,omitempty" db:"device_name"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// DeviceToken is a stored FCM registration token for mobile push.
type DeviceToken struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Token     string    `json:"token" db:"token"`
	Platform  string    `json:"platform" db:"platform"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
