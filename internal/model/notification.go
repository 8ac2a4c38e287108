package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationBookingRequested NotificationType = "booking_requested"
	NotificationBookingConfirmed NotificationType = "booking_confirmed"
	NotificationBookingCancelled NotificationType = "booking_cancelled"
	NotificationBookingCompleted NotificationType = "booking_completed"
	NotificationBookingReminder  NotificationType = "booking_reminder"
	NotificationBookingRejected  NotificationType = "booking_rejected"

	NotificationPaymentPending  NotificationType = "payment_pending"
	NotificationPaymentSuccess  NotificationType = "payment_success"
	NotificationPaymentFailed   NotificationType = "payment_failed"
	NotificationPaymentRefunded NotificationType = "payment_refunded"

	NotificationMessageReceived NotificationType = "message_received"

	NotificationReviewReceived NotificationType = "review_received"
	NotificationReviewResponse NotificationType = "review_response"

	NotificationChefApplicationApproved NotificationType = "chef_application_approved"
	NotificationChefApplicationRejected NotificationType = "chef_application_rejected"

	NotificationSystemAnnouncement NotificationType = "system_announcement"
	NotificationAccountUpdate      NotificationType = "account_update"
)

type NotificationCategory string

const (
	CategoryBooking NotificationCategory = "booking"
	CategoryPayment NotificationCategory = "payment"
	CategoryMessage NotificationCategory = "message"
	CategoryReview  NotificationCategory = "review"
	CategorySystem  NotificationCategory = "system"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

type Channel string

const (
	ChannelPush      Channel = "push"
	ChannelEmail     Channel = "email"
	ChannelSMS       Channel = "sms"
	ChannelWebsocket Channel = "websocket"
	ChannelInApp     Channel = "in_app"
)

// AllChannels is the full fan-out set, used when preferences are bypassed.
var AllChannels = []Channel{ChannelPush, ChannelEmail, ChannelSMS, ChannelWebsocket, ChannelInApp}

type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusSent      DeliveryStatus = "sent"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
	DeliveryStatusSkipped   DeliveryStatus = "skipped"
)

// NotificationTemplate is the static per-type default. Templates are baked
// into code so a new type always ships with a reasoned default, no migration.
type NotificationTemplate struct {
	Category     NotificationCategory
	Priority     NotificationPriority
	EmailEnabled bool
	SMSEnabled   bool
}

var notificationTemplates = map[NotificationType]NotificationTemplate{
	NotificationBookingRequested: {CategoryBooking, PriorityHigh, true, true},
	NotificationBookingConfirmed: {CategoryBooking, PriorityHigh, true, true},
	NotificationBookingCancelled: {CategoryBooking, PriorityHigh, true, true},
	NotificationBookingCompleted: {CategoryBooking, PriorityNormal, true, false},
	NotificationBookingReminder:  {CategoryBooking, PriorityHigh, true, true},
	NotificationBookingRejected:  {CategoryBooking, PriorityNormal, true, false},

	NotificationPaymentPending:  {CategoryPayment, PriorityNormal, true, false},
	NotificationPaymentSuccess:  {CategoryPayment, PriorityNormal, true, false},
	NotificationPaymentFailed:   {CategoryPayment, PriorityUrgent, true, true},
	NotificationPaymentRefunded: {CategoryPayment, PriorityNormal, true, false},

	// Chat traffic never emails or texts regardless of user preference.
	NotificationMessageReceived: {CategoryMessage, PriorityNormal, false, false},

	NotificationReviewReceived: {CategoryReview, PriorityNormal, true, false},
	NotificationReviewResponse: {CategoryReview, PriorityLow, false, false},

	NotificationChefApplicationApproved: {CategorySystem, PriorityHigh, true, true},
	NotificationChefApplicationRejected: {CategorySystem, PriorityNormal, true, false},

	NotificationSystemAnnouncement: {CategorySystem, PriorityNormal, false, false},
	NotificationAccountUpdate:      {CategorySystem, PriorityNormal, true, false},
}

// TemplateFor returns the static template for a type. The second return is
// false for unknown types.
func TemplateFor(t NotificationType) (NotificationTemplate, bool) {
	tmpl, ok := notificationTemplates[t]
	return tmpl, ok
}

// NotificationTypes returns every known type, in stable order.
func NotificationTypes() []NotificationType {
	return []NotificationType{
		NotificationBookingRequested,
		NotificationBookingConfirmed,
		NotificationBookingCancelled,
		NotificationBookingCompleted,
		NotificationBookingReminder,
		NotificationBookingRejected,
		NotificationPaymentPending,
		NotificationPaymentSuccess,
		NotificationPaymentFailed,
		NotificationPaymentRefunded,
		NotificationMessageReceived,
		NotificationReviewReceived,
		NotificationReviewResponse,
		NotificationChefApplicationApproved,
		NotificationChefApplicationRejected,
		NotificationSystemAnnouncement,
		NotificationAccountUpdate,
	}
}

// Notification is the persisted logical event. Created once at send time;
// only is_read is ever mutated afterwards.
type Notification struct {
	ID        uuid.UUID            `json:"id" db:"id"`
	UserID    uuid.UUID            `json:"user_id" db:"user_id"`
	Type      NotificationType     `json:"type" db:"type"`
	Title     string               `json:"title" db:"title"`
	Body      string               `json:"body" db:"body"`
	Data      json.RawMessage      `json:"data,omitempty" db:"data"`
	Category  NotificationCategory `json:"category" db:"category"`
	Priority  NotificationPriority `json:"priority" db:"priority"`
	IsRead    bool                 `json:"is_read" db:"is_read"`
	CreatedAt time.Time            `json:"created_at" db:"created_at"`
}

// DeliveryLogEntry is one row per (notification, attempted channel).
// Append-only; the status written is final.
type DeliveryLogEntry struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	NotificationID uuid.UUID      `json:"notification_id" db:"notification_id"`
	Channel        Channel        `json:"channel" db:"channel"`
	Status         DeliveryStatus `json:"status" db:"status"`
	ErrorMessage   string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// PushAction is a client-side action button on a push notification.
type PushAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// NotificationPayload is what a caller hands to the dispatcher.
type NotificationPayload struct {
	Title              string                 `json:"title" binding:"required"`
	Body               string                 `json:"body" binding:"required"`
	Data               map[string]interface{} `json:"data,omitempty"`
	Category           NotificationCategory   `json:"category,omitempty"`
	Priority           NotificationPriority   `json:"priority,omitempty"`
	RequireInteraction bool                   `json:"require_interaction,omitempty"`
	Actions            []PushAction           `json:"actions,omitempty"`
}

// SendOptions tunes channel resolution for a single send.
type SendOptions struct {
	// Channels, when non-empty, is used exactly as given.
	Channels []Channel `json:"channels,omitempty"`
	// SkipPreferences blasts all channels, ignoring personalization.
	// Reserved for critical admin-triggered sends.
	SkipPreferences bool `json:"skip_preferences,omitempty"`
}

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only" form:"unread_only"`
	Limit      int  `json:"limit" form:"limit"`
	Offset     int  `json:"offset" form:"offset"`
}
