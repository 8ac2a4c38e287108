package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
	"github.com/chefbook/chefbook-api/internal/repository"
)

// fcmClient is the slice of the Firebase messaging client the sender uses.
// Nil when mobile push is not configured.
type fcmClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type Sender struct {
	subs       repository.PushSubscriptionRepository
	fcm        fcmClient
	vapidPub   string
	vapidPriv  string
	subscriber string
	logger     zerolog.Logger
}

// webPayload is what the service worker receives.
type webPayload struct {
	Title              string                 `json:"title"`
	Body               string                 `json:"body"`
	Data               map[string]interface{} `json:"data,omitempty"`
	Tag                string                 `json:"tag,omitempty"`
	RequireInteraction bool                   `json:"requireInteraction,omitempty"`
	Actions            []model.PushAction     `json:"actions,omitempty"`
}

// NewSender wires web push; fcm may be nil when the capability is absent
// (no credentials file configured at startup).
func NewSender(cfg config.PushConfig, subs repository.PushSubscriptionRepository, fcm fcmClient, logger zerolog.Logger) *Sender {
	return &Sender{
		subs:       subs,
		fcm:        fcm,
		vapidPub:   cfg.VAPIDPublicKey,
		vapidPriv:  cfg.VAPIDPrivateKey,
		subscriber: cfg.Subscriber,
		logger:     logger.With().Str("channel", "push").Logger(),
	}
}

func (s *Sender) Channel() model.Channel {
	return model.ChannelPush
}

// Send pushes to every registered browser subscription and FCM device
// token. It fails only when every target errored; a user with no targets
// is a deliberate skip.
func (s *Sender) Send(ctx context.Context, userID uuid.UUID, msg *notifier.Message) error {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list push subscriptions: %w", err)
	}

	var tokens []*model.DeviceToken
	if s.fcm != nil {
		tokens, err = s.subs.ListDeviceTokens(ctx, userID)
		if err != nil {
			return fmt.Errorf("list device tokens: %w", err)
		}
	}

	if len(subs) == 0 && len(tokens) == 0 {
		return notifier.ErrSkipped
	}

	attempted, failed := 0, 0
	var lastErr error

	if len(subs) > 0 && s.vapidPriv != "" {
		payload, err := json.Marshal(webPayload{
			Title:              msg.Title,
			Body:               msg.Body,
			Data:               msg.Data,
			Tag:                msg.Tag,
			RequireInteraction: msg.RequireInteraction,
			Actions:            msg.Actions,
		})
		if err != nil {
			return fmt.Errorf("marshal push payload: %w", err)
		}

		for _, sub := range subs {
			attempted++
			if err := s.sendWebPush(ctx, userID, sub, payload, msg.Priority); err != nil {
				failed++
				lastErr = err
			}
		}
	}

	for _, token := range tokens {
		attempted++
		if err := s.sendFCM(ctx, userID, token, msg); err != nil {
			failed++
			lastErr = err
		}
	}

	if attempted == 0 {
		return notifier.ErrSkipped
	}
	if failed == attempted {
		return fmt.Errorf("push failed for all %d targets: %w", attempted, lastErr)
	}
	return nil
}

func (s *Sender) sendWebPush(ctx context.Context, userID uuid.UUID, sub *model.PushSubscription, payload []byte, priority model.NotificationPriority) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.vapidPub,
		VAPIDPrivateKey: s.vapidPriv,
		TTL:             3600,
		Urgency:         urgencyFor(priority),
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Gone subscriptions are pruned so the next send does not retry them.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		if derr := s.subs.DeleteByEndpoint(ctx, userID, sub.Endpoint); derr != nil {
			s.logger.Warn().Err(derr).Msg("failed to prune expired subscription")
		}
		return fmt.Errorf("subscription expired (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Sender) sendFCM(ctx context.Context, userID uuid.UUID, token *model.DeviceToken, msg *notifier.Message) error {
	data := make(map[string]string, len(msg.Data))
	for k, v := range msg.Data {
		data[k] = fmt.Sprintf("%v", v)
	}

	_, err := s.fcm.Send(ctx, &messaging.Message{
		Token: token.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
	})
	if err != nil {
		if messaging.IsRegistrationTokenNotRegistered(err) {
			if derr := s.subs.DeleteDeviceToken(ctx, userID, token.Token); derr != nil {
				s.logger.Warn().Err(derr).Msg("failed to prune stale device token")
			}
		}
		return err
	}
	return nil
}

func urgencyFor(p model.NotificationPriority) webpush.Urgency {
	switch p {
	case model.PriorityUrgent, model.PriorityHigh:
		return webpush.UrgencyHigh
	case model.PriorityLow:
		return webpush.UrgencyLow
	default:
		return webpush.UrgencyNormal
	}
}
