package consumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefbook/chefbook-api/internal/model"
)

type sendCall struct {
	userID  uuid.UUID
	t       model.NotificationType
	payload *model.NotificationPayload
}

type fakeDispatcher struct {
	calls []sendCall
}

func (d *fakeDispatcher) Send(_ context.Context, userID uuid.UUID, t model.NotificationType, payload *model.NotificationPayload, _ *model.SendOptions) (uuid.UUID, error) {
	d.calls = append(d.calls, sendCall{userID: userID, t: t, payload: payload})
	return uuid.New(), nil
}

func (d *fakeDispatcher) Get(context.Context, uuid.UUID) (*model.Notification, error) {
	return nil, nil
}

func (d *fakeDispatcher) List(context.Context, uuid.UUID, *model.NotificationFilters) ([]*model.Notification, error) {
	return nil, nil
}

func (d *fakeDispatcher) UnreadCount(context.Context, uuid.UUID) (int, error) { return 0, nil }
func (d *fakeDispatcher) MarkRead(context.Context, uuid.UUID) error           { return nil }
func (d *fakeDispatcher) MarkAllRead(context.Context, uuid.UUID) error        { return nil }
func (d *fakeDispatcher) Delete(context.Context, uuid.UUID) error             { return nil }

func (d *fakeDispatcher) DeliveryLog(context.Context, uuid.UUID) ([]*model.DeliveryLogEntry, error) {
	return nil, nil
}

func event(t *testing.T, e Event) []byte {
	t.Helper()
	raw, err := json.Marshal(e)
	require.NoError(t, err)
	return raw
}

func TestHandleMapsEventToNotification(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	c := New(nil, dispatcher, zerolog.Nop())
	userID := uuid.New()

	c.handle(context.Background(), event(t, Event{
		Type:   "booking.confirmed",
		UserID: userID,
		Title:  "Booking confirmed",
		Body:   "Chef Elena accepted your booking.",
		Data:   map[string]interface{}{"booking_id": "b-42"},
	}))

	require.Len(t, dispatcher.calls, 1)
	call := dispatcher.calls[0]
	assert.Equal(t, userID, call.userID)
	assert.Equal(t, model.NotificationBookingConfirmed, call.t)
	assert.Equal(t, "Booking confirmed", call.payload.Title)
	assert.Equal(t, "b-42", call.payload.Data["booking_id"])
}

func TestHandleFillsDefaultTitleAndBody(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	c := New(nil, dispatcher, zerolog.Nop())

	c.handle(context.Background(), event(t, Event{
		Type:   "payment.success",
		UserID: uuid.New(),
	}))

	require.Len(t, dispatcher.calls, 1)
	assert.Equal(t, "Payment received", dispatcher.calls[0].payload.Title)
	assert.Equal(t, "Payment received", dispatcher.calls[0].payload.Body)
}

func TestHandleDropsBadEvents(t *testing.T) {
	dispatcher := &fakeDispatcher{}
	c := New(nil, dispatcher, zerolog.Nop())
	ctx := context.Background()

	c.handle(ctx, []byte("{not json"))
	c.handle(ctx, event(t, Event{Type: "inventory.restocked", UserID: uuid.New()}))
	c.handle(ctx, event(t, Event{Type: "booking.confirmed"}))

	assert.Empty(t, dispatcher.calls)
}

func TestEveryEventTypeMapsToKnownNotification(t *testing.T) {
	for name, nt := range eventTypes {
		_, ok := model.TemplateFor(nt)
		assert.True(t, ok, "event %s maps to unknown type %s", name, nt)
		assert.NotEmpty(t, defaultTitles[nt], "event %s has no default title", name)
	}
}
