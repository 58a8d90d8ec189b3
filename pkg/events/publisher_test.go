package events

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	msg := redis.XMessage{
		ID: "1-0",
		Values: map[string]interface{}{
			"type":  TransactionCreated,
			"event": `{"type":"transaction.created","timestamp":"2024-01-01T00:00:00Z","data":{"amount":200}}`,
		},
	}

	event, err := Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, TransactionCreated, event.Type)
	assert.Equal(t, map[string]any{"amount": float64(200)}, event.Data)
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode(redis.XMessage{ID: "1-0", Values: map[string]interface{}{}})
	assert.Error(t, err)

	_, err = Decode(redis.XMessage{ID: "1-1", Values: map[string]interface{}{"event": "{"}})
	assert.Error(t, err)

	_, err = Decode(redis.XMessage{ID: "1-2", Values: map[string]interface{}{"event": 42}})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard{}.Publish(context.Background(), AgentApproved, nil))
}
