package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event is the envelope carried on every channel. Key orders events on
// brokers that partition, and is ignored elsewhere.
type Event struct {
	Type      string          `json:"type"`
	Key       string          `json:"key,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent encodes payload into an event stamped with the current time.
func NewEvent(eventType, key string, payload any) (*Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{Type: eventType, Key: key, Payload: raw, Timestamp: time.Now().UTC()}, nil
}

// UnmarshalPayload decodes the payload into v.
func (e *Event) UnmarshalPayload(v any) error { return json.Unmarshal(e.Payload, v) }

type Publisher interface {
	Publish(ctx context.Context, channel string, event *Event) error
}

// Subscriber delivers events from a channel. The returned channel closes
// when ctx ends, on Unsubscribe, or on Close.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan *Event, error)
	Unsubscribe(ctx context.Context, channel string) error
}

// PubSub is a bus connection able to do both.
type PubSub interface {
	Publisher
	Subscriber
	Close() error
}
