package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channel names shared between the API, the worker, and sibling instances.
const (
	ChannelEvents          = "chefbook.events"
	ChannelWebsocketBridge = "chefbook.notifications.ws"
)

// Message is the generic envelope published on a channel.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
