package email

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

type fakeUsers struct {
	user *model.User
	err  error
}

func (f *fakeUsers) Get(context.Context, uuid.UUID) (*model.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) GetByEmail(context.Context, string) (*model.User, error) {
	return f.user, f.err
}

func newTestSender(users *fakeUsers, dialer *fakeDialer) *Sender {
	s := NewSender(config.EmailConfig{
		Host:      "smtp.example.com",
		Port:      587,
		FromName:  "ChefBook",
		FromEmail: "no-reply@chefbook.example",
	}, users, zerolog.Nop())
	s.dialer = dialer
	return s
}

func TestSendBuildsMessage(t *testing.T) {
	dialer := &fakeDialer{}
	s := newTestSender(&fakeUsers{user: &model.User{Email: "diner@example.com"}}, dialer)

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{
		Title: "Booking confirmed",
		Body:  "Chef Elena accepted your booking.",
	})
	require.NoError(t, err)

	require.Len(t, dialer.sent, 1)
	m := dialer.sent[0]
	assert.Equal(t, []string{"diner@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Booking confirmed"}, m.GetHeader("Subject"))
}

func TestSendSkipsWithoutFromAddress(t *testing.T) {
	dialer := &fakeDialer{}
	s := NewSender(config.EmailConfig{}, &fakeUsers{user: &model.User{Email: "diner@example.com"}}, zerolog.Nop())
	s.dialer = dialer

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, notifier.ErrSkipped)
	assert.Empty(t, dialer.sent)
}

func TestSendSkipsUserWithoutEmail(t *testing.T) {
	dialer := &fakeDialer{}
	s := newTestSender(&fakeUsers{user: &model.User{}}, dialer)

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, notifier.ErrSkipped)
	assert.Empty(t, dialer.sent)
}

func TestSendFailsOnDialerError(t *testing.T) {
	s := newTestSender(&fakeUsers{user: &model.User{Email: "diner@example.com"}},
		&fakeDialer{err: errors.New("dial tcp: connection refused")})

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, notifier.ErrSkipped)
}

func TestSendFailsOnLookupError(t *testing.T) {
	s := newTestSender(&fakeUsers{err: errors.New("connection refused")}, &fakeDialer{})

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, notifier.ErrSkipped)
}
