package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublishEvent_EncodesJSON(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	err := p.PublishEvent(context.Background(), "catalog_events", "7", map[string]any{
		"type":      "product_created",
		"productID": 7,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "catalog_events", msg.Topic)
	assert.Equal(t, "7", string(msg.Key))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "product_created", body["type"])
	assert.EqualValues(t, 7, body["productID"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEvent_Errors(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}}
	err := p.PublishEvent(context.Background(), "order_events", "1", map[string]any{"type": "order_created"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_events")

	err = p.PublishEvent(context.Background(), "order_events", "1", func() {})
	require.Error(t, err)
}
