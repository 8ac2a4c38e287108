package sms

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/chefbook/chefbook-api/internal/config"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/notifier"
)

type fakeTwilio struct {
	params []*openapi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.params = append(f.params, params)
	return &openapi.ApiV2010Message{}, nil
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

func verifiedUser() *model.User {
	return &model.User{Phone: "+15551234567", PhoneVerified: true}
}

func newTestSender(users *fakeUsers, client *fakeTwilio) *Sender {
	s := NewSender(config.SMSConfig{
		Enabled:    true,
		AccountSID: "ACtest",
		AuthToken:  "token",
		FromNumber: "+15550000000",
	}, users, zerolog.Nop())
	s.client = client
	return s
}

func TestSendFormatsAndSends(t *testing.T) {
	client := &fakeTwilio{}
	s := newTestSender(&fakeUsers{user: verifiedUser()}, client)

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{
		Title: "Booking confirmed",
		Body:  "Chef Elena accepted your booking.",
	})
	require.NoError(t, err)

	require.Len(t, client.params, 1)
	p := client.params[0]
	assert.Equal(t, "+15551234567", *p.To)
	assert.Equal(t, "+15550000000", *p.From)
	assert.Equal(t, "Booking confirmed: Chef Elena accepted your booking.", *p.Body)
}

func TestSendTruncatesLongBody(t *testing.T) {
	client := &fakeTwilio{}
	s := newTestSender(&fakeUsers{user: verifiedUser()}, client)

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{
		Title: "Announcement",
		Body:  strings.Repeat("a", 1000),
	})
	require.NoError(t, err)

	require.Len(t, client.params, 1)
	body := *client.params[0].Body
	assert.Len(t, body, maxBodyLen)
	assert.True(t, strings.HasSuffix(body, "..."))
}

func TestSendSkipsWhenDisabled(t *testing.T) {
	s := NewSender(config.SMSConfig{Enabled: false}, &fakeUsers{user: verifiedUser()}, zerolog.Nop())

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, notifier.ErrSkipped)
}

func TestSendSkipsUnverifiedPhone(t *testing.T) {
	client := &fakeTwilio{}

	s := newTestSender(&fakeUsers{user: &model.User{Phone: "+15551234567", PhoneVerified: false}}, client)
	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, notifier.ErrSkipped)

	s = newTestSender(&fakeUsers{user: &model.User{PhoneVerified: true}}, client)
	err = s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	assert.ErrorIs(t, err, notifier.ErrSkipped)

	assert.Empty(t, client.params)
}

func TestSendFailsOnProviderError(t *testing.T) {
	s := newTestSender(&fakeUsers{user: verifiedUser()}, &fakeTwilio{err: errors.New("21211 invalid number")})

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, notifier.ErrSkipped)
}

func TestSendFailsOnUserLookupError(t *testing.T) {
	s := newTestSender(&fakeUsers{err: errors.New("connection refused")}, &fakeTwilio{})

	err := s.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, notifier.ErrSkipped)
}
