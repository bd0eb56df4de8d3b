package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-orders-users/internal/logging"
	"github.com/tm-acme-shop/acme-shop-orders-users/internal/models"
)

// EventType represents the type of a domain event.
type EventType string

const (
	EventTypeOrderCreated   EventType = "order.created"
	EventTypeOrderUpdated   EventType = "order.updated"
	EventTypeOrderDeleted   EventType = "order.deleted"
	EventTypeUserRegistered EventType = "user.registered"
)

// Event is the envelope written to Kafka.
type Event struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	Key           string          `json:"key"`
	UserID        int64           `json:"user_id"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id,omitempty"`
}

// OrderPublisher announces order lifecycle changes.
type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderUpdated(ctx context.Context, order *models.Order) error
	PublishOrderDeleted(ctx context.Context, order *models.Order) error
}

// UserPublisher announces account changes.
type UserPublisher interface {
	PublishUserRegistered(ctx context.Context, user *models.User) error
}

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var (
	_ OrderPublisher = (*KafkaPublisher)(nil)
	_ UserPublisher  = (*KafkaPublisher)(nil)
	_ OrderPublisher = NopPublisher{}
	_ UserPublisher  = NopPublisher{}
)

// KafkaPublisher publishes events to a single topic.
type KafkaPublisher struct {
	writer MessageWriter
	topic  string
	logger *logging.LoggerV2
}

// NewKafkaPublisher creates a publisher writing to topic.
func NewKafkaPublisher(brokers []string, topic string, logger *logging.LoggerV2) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           10 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaPublisherWithWriter(writer, topic, logger)
}

func NewKafkaPublisherWithWriter(writer MessageWriter, topic string, logger *logging.LoggerV2) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		logger: logger,
	}
}

func (p *KafkaPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderCreated, order)
}

func (p *KafkaPublisher) PublishOrderUpdated(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderUpdated, order)
}

func (p *KafkaPublisher) PublishOrderDeleted(ctx context.Context, order *models.Order) error {
	return p.publishOrder(ctx, EventTypeOrderDeleted, order)
}

func (p *KafkaPublisher) PublishUserRegistered(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(models.RegisterResponse{ID: user.ID, Email: user.Email})
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(ctx, EventTypeUserRegistered, strconv.FormatInt(user.ID, 10), user.ID, data))
}

func (p *KafkaPublisher) publishOrder(ctx context.Context, eventType EventType, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return p.publish(ctx, newEvent(ctx, eventType, strconv.FormatInt(order.ID, 10), order.UserID, data))
}

func (p *KafkaPublisher) publish(ctx context.Context, event *Event) error {
	log := p.logger.WithContext(ctx)

	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Error("Failed to publish event", logging.Fields{
			"event_id":   event.ID,
			"event_type": event.Type,
			"topic":      p.topic,
			"error":      err.Error(),
		})
		return err
	}

	log.Info("Event published", logging.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"topic":      p.topic,
	})
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher", logging.Fields{"topic": p.topic})
	return p.writer.Close()
}

func newEvent(ctx context.Context, eventType EventType, key string, userID int64, data []byte) *Event {
	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Key:           key,
		UserID:        userID,
		Data:          data,
		Timestamp:     time.Now().UTC(),
		CorrelationID: logging.RequestIDFromContext(ctx),
	}
}

// NopPublisher drops every event. Used when FEATURE_EVENTS is off.
type NopPublisher struct{}

func (NopPublisher) PublishOrderCreated(context.Context, *models.Order) error  { return nil }
func (NopPublisher) PublishOrderUpdated(context.Context, *models.Order) error  { return nil }
func (NopPublisher) PublishOrderDeleted(context.Context, *models.Order) error  { return nil }
func (NopPublisher) PublishUserRegistered(context.Context, *models.User) error { return nil }
