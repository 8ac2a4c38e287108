package model

import (
	"time"

	"github.com/google/uuid"
)

// ChannelPreferences is the resolved opt-in set for one (user, type) pair.
// The preference store never returns "unknown": a missing row resolves to
// the type's static default.
type ChannelPreferences struct {
	Push  bool `json:"push"`
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"in_app"`
}

// ChannelPreferencesUpdate is a partial update; nil fields keep the
// current (or default) value.
type ChannelPreferencesUpdate struct {
	Push  *bool `json:"push,omitempty"`
	Email *bool `json:"email,omitempty"`
	SMS   *bool `json:"sms,omitempty"`
	InApp *bool `json:"in_app,omitempty"`
}

// NotificationPreference is the stored per-user override row.
type NotificationPreference struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	UserID           uuid.UUID        `json:"user_id" db:"user_id"`
	NotificationType NotificationType `json:"notification_type" db:"notification_type"`
	ChannelPush      bool             `json:"channel_push" db:"channel_push"`
	ChannelEmail     bool             `json:"channel_email" db:"channel_email"`
	ChannelSMS       bool             `json:"channel_sms" db:"channel_sms"`
	ChannelInApp     bool             `json:"channel_in_app" db:"channel_in_app"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

func (p *NotificationPreference) Channels() ChannelPreferences {
	return ChannelPreferences{
		Push:  p.ChannelPush,
		Email: p.ChannelEmail,
		SMS:   p.ChannelSMS,
		InApp: p.ChannelInApp,
	}
}

// DefaultChannelPreferences derives the static default for a type from its
// template: push and in-app default on, email/SMS follow the template flags.
func DefaultChannelPreferences(t NotificationType) ChannelPreferences {
	tmpl, ok := TemplateFor(t)
	if !ok {
		return ChannelPreferences{Push: true, Email: true, SMS: false, InApp: true}
	}
	return ChannelPreferences{
		Push:  true,
		Email: tmpl.EmailEnabled,
		SMS:   tmpl.SMSEnabled,
		InApp: true,
	}
}
