package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefbook/chefbook-api/internal/notifier"
)

type fakeBroker struct {
	published  []interface{}
	publishErr error
	msgs       chan []byte
}

func (b *fakeBroker) Publish(_ context.Context, _ string, message interface{}) error {
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, message)
	return nil
}

func (b *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.msgs, nil
}

func (b *fakeBroker) Close() error { return nil }

func TestSenderDeliversLocallyAndPublishes(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	userID := uuid.New()

	client, server := wsPair(t)
	hub.Add(userID, server)

	broker := &fakeBroker{}
	sender := NewSender(hub, broker, "instance-a", zerolog.Nop())

	msg := &notifier.Message{Title: "Booking confirmed", Body: "See you Friday."}
	require.NoError(t, sender.Send(context.Background(), userID, msg))

	client.SetReadDeadline(time.Now().Add(time.Second))
	var got Frame
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "notification", got.Event)
	assert.Equal(t, "instance-a", got.Origin)
	assert.Equal(t, "Booking confirmed", got.Data.Title)

	require.Len(t, broker.published, 1)
	frame, ok := broker.published[0].(*Frame)
	require.True(t, ok)
	assert.Equal(t, "instance-a", frame.Origin)
	assert.Equal(t, userID, frame.UserID)
}

func TestSenderNeverFails(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	broker := &fakeBroker{publishErr: errors.New("redis down")}
	sender := NewSender(hub, broker, "instance-a", zerolog.Nop())

	// No connections, broken broker: still a success from the
	// dispatcher's point of view.
	err := sender.Send(context.Background(), uuid.New(), &notifier.Message{Title: "t", Body: "b"})
	assert.NoError(t, err)
}

func TestBridgeSkipsOwnFrames(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	userID := uuid.New()

	client, server := wsPair(t)
	hub.Add(userID, server)

	broker := &fakeBroker{msgs: make(chan []byte, 2)}

	own, _ := json.Marshal(&Frame{Event: "notification", Origin: "instance-a", UserID: userID,
		Data: &notifier.Message{Title: "own"}})
	remote, _ := json.Marshal(&Frame{Event: "notification", Origin: "instance-b", UserID: userID,
		Data: &notifier.Message{Title: "remote"}})
	broker.msgs <- own
	broker.msgs <- remote

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- RunBridge(ctx, hub, broker, "instance-a", zerolog.Nop())
	}()

	// Only the remote frame comes through; the own-origin one is dropped.
	client.SetReadDeadline(time.Now().Add(time.Second))
	var got Frame
	require.NoError(t, client.ReadJSON(&got))
	assert.Equal(t, "remote", got.Data.Title)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("bridge did not stop on cancel")
	}
}
