package common

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_GeneratesValidUUID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}

func TestProducerMessage_JSON(t *testing.T) {
	msg := ProducerMessage{
		Topic:     "trademark.search.events",
		Key:       []byte("k"),
		Value:     []byte(`{"q":"커피"}`),
		Timestamp: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var back ProducerMessage
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, msg, back)
	assert.NotContains(t, string(b), "headers")
}
