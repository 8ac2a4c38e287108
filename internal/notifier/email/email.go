package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
	"github.com/chefbook/chefbook-api/internal/repository"
)

// mailDialer is the slice of gomail the sender needs; tests substitute it.
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	dialer    mailDialer
	users     repository.UserRepository
	fromName  string
	fromEmail string
	tmpl      *template.Template
	logger    zerolog.Logger
}

const bodyTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #d35400;">{{.Title}}</h2>
  <p>{{.Body}}</p>
  <hr style="border: none; border-top: 1px solid #eee;">
  <p style="font-size: 12px; color: #999;">
    You received this email because of activity on your ChefBook account.
    Manage your notification preferences in your account settings.
  </p>
</body>
</html>`

func NewSender(cfg config.EmailConfig, users repository.UserRepository, logger zerolog.Logger) *Sender {
	return &Sender{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		users:     users,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		tmpl:      template.Must(template.New("email").Parse(bodyTemplate)),
		logger:    logger.With().Str("channel", "email").Logger(),
	}
}

func (s *Sender) Channel() model.Channel {
	return model.ChannelEmail
}

func (s *Sender) Send(ctx context.Context, userID uuid.UUID, msg *notifier.Message) error {
	if s.fromEmail == "" {
		return notifier.ErrSkipped
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}
	if user.Email == "" {
		return notifier.ErrSkipped
	}

	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, map[string]string{
		"Title": msg.Title,
		"Body":  msg.Body,
	}); err != nil {
		return fmt.Errorf("render email body: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", m.FormatAddress(s.fromEmail, s.fromName))
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", msg.Title)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Debug().Str("user_id", userID.String()).Msg("email sent")
	return nil
}
