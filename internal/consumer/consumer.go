package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/service/notification"
	"github.com/chefbook/chefbook-api/pkg/messaging"
)

// Event is what the booking, payment, and review workflows publish.
type Event struct {
	Type   string                 `json:"type"`
	UserID uuid.UUID              `json:"user_id"`
	Title  string                 `json:"title,omitempty"`
	Body   string                 `json:"body,omitempty"`
	Data   map[string]interface{} `json:"data,omitempty"`
}

// eventTypes maps workflow event names to notification types. Unknown
// events are ignored, not errors: new workflows may ship before this
// service learns their events.
var eventTypes = map[string]model.NotificationType{
	"booking.requested": model.NotificationBookingRequested,
	"booking.confirmed": model.NotificationBookingConfirmed,
	"booking.cancelled": model.NotificationBookingCancelled,
	"booking.completed": model.NotificationBookingCompleted,
	"booking.reminder":  model.NotificationBookingReminder,
	"booking.rejected":  model.NotificationBookingRejected,

	"payment.pending":  model.NotificationPaymentPending,
	"payment.success":  model.NotificationPaymentSuccess,
	"payment.failed":   model.NotificationPaymentFailed,
	"payment.refunded": model.NotificationPaymentRefunded,

	"message.received": model.NotificationMessageReceived,

	"review.received": model.NotificationReviewReceived,
	"review.response": model.NotificationReviewResponse,

	"chef.application.approved": model.NotificationChefApplicationApproved,
	"chef.application.rejected": model.NotificationChefApplicationRejected,

	"system.announcement": model.NotificationSystemAnnouncement,
	"account.updated":     model.NotificationAccountUpdate,
}

// defaultTitles covers events published without display text.
var defaultTitles = map[model.NotificationType]string{
	model.NotificationBookingRequested:        "New booking request",
	model.NotificationBookingConfirmed:        "Booking confirmed",
	model.NotificationBookingCancelled:        "Booking cancelled",
	model.NotificationBookingCompleted:        "Booking completed",
	model.NotificationBookingReminder:         "Upcoming booking",
	model.NotificationBookingRejected:         "Booking declined",
	model.NotificationPaymentPending:          "Payment pending",
	model.NotificationPaymentSuccess:          "Payment received",
	model.NotificationPaymentFailed:           "Payment failed",
	model.NotificationPaymentRefunded:         "Payment refunded",
	model.NotificationMessageReceived:         "New message",
	model.NotificationReviewReceived:          "New review",
	model.NotificationReviewResponse:          "Review response",
	model.NotificationChefApplicationApproved: "Application approved",
	model.NotificationChefApplicationRejected: "Application update",
	model.NotificationSystemAnnouncement:      "Announcement",
	model.NotificationAccountUpdate:           "Account update",
}

// Consumer subscribes to the workflow event channel and turns events into
// dispatcher sends. It is the in-process representative of the booking,
// payment, and review callers.
type Consumer struct {
	broker        messaging.Broker
	notifications notification.Service
	logger        zerolog.Logger
}

func New(broker messaging.Broker, notifications notification.Service, logger zerolog.Logger) *Consumer {
	return &Consumer{
		broker:        broker,
		notifications: notifications,
		logger:        logger.With().Str("component", "event_consumer").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.broker.Subscribe(ctx, messaging.ChannelEvents)
	if err != nil {
		return fmt.Errorf("failed to subscribe to events: %w", err)
	}

	c.logger.Info().Str("channel", messaging.ChannelEvents).Msg("event consumer started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, raw)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		c.logger.Warn().Err(err).Msg("dropping malformed event")
		return
	}

	notificationType, ok := eventTypes[event.Type]
	if !ok {
		c.logger.Debug().Str("event_type", event.Type).Msg("ignoring unknown event type")
		return
	}
	if event.UserID == uuid.Nil {
		c.logger.Warn().Str("event_type", event.Type).Msg("dropping event without user")
		return
	}

	payload := &model.NotificationPayload{
		Title: event.Title,
		Body:  event.Body,
		Data:  event.Data,
	}
	if payload.Title == "" {
		payload.Title = defaultTitles[notificationType]
	}
	if payload.Body == "" {
		payload.Body = payload.Title
	}

	id, err := c.notifications.Send(ctx, event.UserID, notificationType, payload, nil)
	if err != nil {
		c.logger.Error().Err(err).
			Str("event_type", event.Type).
			Str("user_id", event.UserID.String()).
			Msg("event dispatch failed")
		return
	}
	c.logger.Debug().
		Str("event_type", event.Type).
		Str("notification_id", id.String()).
		Msg("event dispatched")
}
