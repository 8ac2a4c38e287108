package notifier

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/chefbook/chefbook-api/internal/model"
)

// ErrSkipped signals a deliberate non-attempt: the sender looked at the
// request and declined (feature disabled, unverified phone, nothing to
// deliver to). Distinct from a failed attempt in the delivery log.
var ErrSkipped = errors.New("delivery skipped")

// Message is the transport-agnostic payload handed to every sender.
type Message struct {
	Title              string                     `json:"title"`
	Body               string                     `json:"body"`
	Data               map[string]interface{}     `json:"data,omitempty"`
	Tag                string                     `json:"tag,omitempty"`
	Priority           model.NotificationPriority `json:"priority,omitempty"`
	RequireInteraction bool                       `json:"require_interaction,omitempty"`
	Actions            []model.PushAction         `json:"actions,omitempty"`
}

// Sender is the narrow contract the dispatcher fans out over. A sender owns
// its transport concerns end to end; the dispatcher only maps its return
// into a delivery-log status.
type Sender interface {
	Channel() model.Channel
	Send(ctx context.Context, userID uuid.UUID, msg *Message) error
}

// InAppSender is a no-op marker: the persisted notification row is the
// in-app delivery.
type InAppSender struct{}

func NewInAppSender() *InAppSender {
	return &InAppSender{}
}

func (s *InAppSender) Channel() model.Channel {
	return model.ChannelInApp
}

func (s *InAppSender) Send(_ context.Context, _ uuid.UUID, _ *Message) error {
	return nil
}
