package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"credtrust/internal/platform/kafka/producer"
)

// KafkaProducer is the narrow producer surface the publisher needs.
type KafkaProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Publisher captures structured audit events. Events are persisted through the
// store and optionally fanned out to Kafka for downstream consumers. Kafka
// failures are logged, never surfaced: audit fan-out must not fail the
// business operation that triggered it.
type Publisher struct {
	store    Store
	producer KafkaProducer
	topic    string
	logger   *slog.Logger
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithKafka enables Kafka fan-out on the given topic.
func WithKafka(p KafkaProducer, topic string) PublisherOption {
	return func(pub *Publisher) {
		pub.producer = p
		pub.topic = topic
	}
}

// WithPublisherLogger sets a logger for sink error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(pub *Publisher) {
		pub.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if err := p.store.Append(ctx, event); err != nil {
		return err
	}

	if p.producer != nil {
		value, err := json.Marshal(event)
		if err != nil {
			p.logError("failed to marshal audit event", err, event)
			return nil
		}
		msg := &producer.Message{
			Topic: p.topic,
			Key:   []byte(event.ActorID),
			Value: value,
		}
		if err := p.producer.Produce(ctx, msg); err != nil {
			p.logError("failed to publish audit event", err, event)
		}
	}
	return nil
}

func (p *Publisher) logError(msg string, err error, event Event) {
	if p.logger == nil {
		return
	}
	p.logger.Error(msg,
		"error", err,
		"action", event.Action,
		"actor_id", event.ActorID,
	)
}
