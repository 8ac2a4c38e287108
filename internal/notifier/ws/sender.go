package ws

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
	"github.com/chefbook/chefbook-api/pkg/messaging"
)

// Frame is the wire shape pushed to connected clients. Origin identifies
// the publishing instance so the bridge does not redeliver locally.
type Frame struct {
	Event  string            `json:"event"`
	Origin string            `json:"origin,omitempty"`
	UserID uuid.UUID         `json:"user_id"`
	Data   *notifier.Message `json:"data"`
}

// Sender delivers to local connections and publishes on the broker so
// sibling instances holding the user's other connections deliver too.
// There is no offline buffering: no connection, no delivery.
type Sender struct {
	hub        *Hub
	broker     messaging.Broker
	instanceID string
	logger     zerolog.Logger
}

func NewSender(hub *Hub, broker messaging.Broker, instanceID string, logger zerolog.Logger) *Sender {
	return &Sender{
		hub:        hub,
		broker:     broker,
		instanceID: instanceID,
		logger:     logger.With().Str("channel", "websocket").Logger(),
	}
}

func (s *Sender) Channel() model.Channel {
	return model.ChannelWebsocket
}

// Send never fails: websocket delivery is fire-and-forget by design.
func (s *Sender) Send(ctx context.Context, userID uuid.UUID, msg *notifier.Message) error {
	frame := &Frame{Event: "notification", Origin: s.instanceID, UserID: userID, Data: msg}

	s.hub.Send(userID, frame)

	if s.broker != nil {
		if err := s.broker.Publish(ctx, messaging.ChannelWebsocketBridge, frame); err != nil {
			s.logger.Warn().Err(err).Msg("ws bridge publish failed")
		}
	}
	return nil
}

// RunBridge forwards frames published by sibling instances into the local
// hub, skipping frames this instance originated. Blocks until ctx is
// cancelled.
func RunBridge(ctx context.Context, hub *Hub, broker messaging.Broker, instanceID string, logger zerolog.Logger) error {
	msgs, err := broker.Subscribe(ctx, messaging.ChannelWebsocketBridge)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-msgs:
			if !ok {
				return nil
			}
			var frame Frame
			if err := json.Unmarshal(raw, &frame); err != nil {
				logger.Warn().Err(err).Msg("ws bridge: bad frame")
				continue
			}
			if frame.Origin == instanceID {
				continue
			}
			hub.Send(frame.UserID, &frame)
		}
	}
}
