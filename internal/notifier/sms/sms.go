package sms

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
	"github.com/chefbook/chefbook-api/internal/repository"
)

// messageCreator is the slice of the Twilio client the sender needs;
// tests substitute it.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type Sender struct {
	client     messageCreator
	users      repository.UserRepository
	enabled    bool
	fromNumber string
	logger     zerolog.Logger
}

const maxBodyLen = 320 // two SMS segments

func NewSender(cfg config.SMSConfig, users repository.UserRepository, logger zerolog.Logger) *Sender {
	s := &Sender{
		users:      users,
		enabled:    cfg.Enabled && cfg.AccountSID != "" && cfg.AuthToken != "",
		fromNumber: cfg.FromNumber,
		logger:     logger.With().Str("channel", "sms").Logger(),
	}
	if s.enabled {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.AccountSID,
			Password: cfg.AuthToken,
		})
		s.client = client.Api
	}
	return s
}

func (s *Sender) Channel() model.Channel {
	return model.ChannelSMS
}

// Send declines (ErrSkipped) when the feature is off or the recipient has
// no verified phone; those are deliberate non-attempts, not failures.
func (s *Sender) Send(ctx context.Context, userID uuid.UUID, msg *notifier.Message) error {
	if !s.enabled {
		return notifier.ErrSkipped
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}
	if user.Phone == "" || !user.PhoneVerified {
		return notifier.ErrSkipped
	}

	body := msg.Title + ": " + msg.Body
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen-3] + "..."
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(user.Phone)
	params.SetFrom(s.fromNumber)
	params.SetBody(body)

	if _, err := s.client.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms: %w", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("sms sent")
	return nil
}
