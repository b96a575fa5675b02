// Package events fans inventory events out to dashboard websocket clients and
// to a Kafka topic for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	ProductCreated     = "product_created"
	ProductUpdated     = "product_updated"
	ProductDeleted     = "product_deleted"
	StockUpdated       = "stock_updated"
	TransactionCreated = "transaction_created"
	SyncCompleted      = "sync_completed"
	ImagesCleaned      = "images_cleaned"
)

type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"key,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// New stamps an event with the current time.
func New(eventType, key string, payload interface{}) Event {
	return Event{Type: eventType, Key: key, Payload: payload, OccurredAt: time.Now()}
}

// Publisher delivers events. Delivery is best effort: a failed publish never
// undoes the change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Broadcaster is the websocket hub.
type Broadcaster interface {
	Send(message []byte) bool
}

type HubPublisher struct {
	hub Broadcaster
}

func NewHubPublisher(hub Broadcaster) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(_ context.Context, event Event) error {
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if !p.hub.Send(msg) {
		return fmt.Errorf("broadcast %s: queue full", event.Type)
	}
	return nil
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// DefaultPublishTimeout bounds one Kafka publish, retries included.
const DefaultPublishTimeout = 3 * time.Second

type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

// NewKafkaWriter returns nil when no brokers are configured.
func NewKafkaWriter(brokers []string, topic string, timeout time.Duration) *kafka.Writer {
	if len(brokers) == 0 {
		return nil
	}
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           timeout,
		MaxAttempts:            3,
	}
}

// NewKafkaPublisher publishes through writer, giving up on an event after
// timeout. A non-positive timeout means DefaultPublishTimeout.
func NewKafkaPublisher(writer MessageWriter, timeout time.Duration) *KafkaPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &KafkaPublisher{writer: writer, timeout: timeout}
}

// Publish runs after the change is committed, so an unreachable broker costs
// the caller at most the publish timeout.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Type + "-" + event.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

// Multi publishes to every publisher and logs the ones that fail.
type Multi struct {
	publishers []Publisher
	logger     zerolog.Logger
}

func NewMulti(logger zerolog.Logger, publishers ...Publisher) *Multi {
	var active []Publisher
	for _, p := range publishers {
		if p != nil {
			active = append(active, p)
		}
	}
	return &Multi{publishers: active, logger: logger.With().Str("component", "events").Logger()}
}

func (m *Multi) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			m.logger.Warn().Err(err).Str("event", event.Type).Msg("Event publish failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
