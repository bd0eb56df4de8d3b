package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestKafkaPublisher_OrderEvents(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisherWithWriter(w, "orders", logging.NewLoggerV2("events-test"))

	ctx := logging.ContextWithRequestID(context.Background(), "req-9")
	order := &models.Order{ID: 11, UserID: 7, Product: "widget", Quantity: 2, Status: "pending"}

	require.NoError(t, p.PublishOrderCreated(ctx, order))
	require.NoError(t, p.PublishOrderUpdated(ctx, order))
	require.NoError(t, p.PublishOrderDeleted(ctx, order))
	require.Len(t, w.messages, 3)

	wantTypes := []EventType{EventTypeOrderCreated, EventTypeOrderUpdated, EventTypeOrderDeleted}
	for i, msg := range w.messages {
		assert.Equal(t, "11", string(msg.Key))
		assert.Equal(t, string(wantTypes[i]), header(msg, "event_type"))

		var event Event
		require.NoError(t, json.Unmarshal(msg.Value, &event))
		assert.Equal(t, wantTypes[i], event.Type)
		assert.Equal(t, int64(7), event.UserID)
		assert.Equal(t, "req-9", event.CorrelationID)
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, event.ID, header(msg, "event_id"))

		var payload models.Order
		require.NoError(t, json.Unmarshal(event.Data, &payload))
		assert.Equal(t, *order, payload)
	}
}

func TestKafkaPublisher_UserRegisteredOmitsHash(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisherWithWriter(w, "users", logging.NewLoggerV2("events-test"))

	user := &models.User{ID: 5, Email: "a@example.com", PasswordHash: "secret-hash"}
	require.NoError(t, p.PublishUserRegistered(context.Background(), user))
	require.Len(t, w.messages, 1)

	assert.NotContains(t, string(w.messages[0].Value), "secret-hash")
	assert.Equal(t, string(EventTypeUserRegistered), header(w.messages[0], "event_type"))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &recordingWriter{err: fmt.Errorf("broker down")}
	p := NewKafkaPublisherWithWriter(w, "orders", logging.NewLoggerV2("events-test"))

	err := p.PublishOrderCreated(context.Background(), &models.Order{ID: 1})
	assert.EqualError(t, err, "broker down")
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &recordingWriter{}
	p := NewKafkaPublisherWithWriter(w, "orders", logging.NewLoggerV2("events-test"))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
