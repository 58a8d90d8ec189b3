package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher appends events to a Redis stream
type Publisher struct {
	client *redis.Client
	stream string
}

// NewPublisher creates a Publisher writing to stream
func NewPublisher(client *redis.Client, stream string) *Publisher {
	return &Publisher{client: client, stream: stream}
}

// Publish appends one event to the stream
func (p *Publisher) Publish(ctx context.Context, eventType string, data any) error {
	event := Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"type":  eventType,
			"event": eventJSON,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Decode parses the "event" field of a stream message
func Decode(message redis.XMessage) (*Event, error) {
	raw, ok := message.Values["event"]
	if !ok {
		return nil, fmt.Errorf("message %s has no event field", message.ID)
	}
	var payload []byte
	switch v := raw.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		return nil, fmt.Errorf("message %s: unexpected event field type %T", message.ID, raw)
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return &event, nil
}

// Discard is a no-op publisher used when the event stream is disabled
type Discard struct{}

// Publish does nothing
func (Discard) Publish(context.Context, string, any) error { return nil }
