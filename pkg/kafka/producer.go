package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/tracing"
	"github.com/segmentio/kafka-go"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	requiredAcks := kafka.RequiredAcks(cfg.RequiredAcks)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           requiredAcks,
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// RelationshipEvent represents an event about a relationship edge
type RelationshipEvent struct {
	EventType        string          `json:"event_type"` // created, deleted
	SchemaVersion    string          `json:"schema_version"`
	TenantID         string          `json:"tenant_id"`
	RelationshipID   string          `json:"relationship_id"`
	RelationshipType string          `json:"relationship_type"`
	FromEntityID     string          `json:"from_entity_id"`
	FromEntityKind   string          `json:"from_entity_kind"`
	ToEntityID       string          `json:"to_entity_id"`
	ToEntityKind     string          `json:"to_entity_kind"`
	Source           string          `json:"source"`
	Properties       json.RawMessage `json:"properties,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// InferenceEvent represents the outcome of an inference run
type InferenceEvent struct {
	EventType     string    `json:"event_type"` // inference.completed
	SchemaVersion string    `json:"schema_version"`
	TenantID      string    `json:"tenant_id"`
	Upserted      int       `json:"upserted"`
	Timestamp     time.Time `json:"timestamp"`
}

// PublishRelationshipEvent publishes a relationship event to Kafka
func (p *Producer) PublishRelationshipEvent(ctx context.Context, event *RelationshipEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishRelationshipEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.RelationshipID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
			{Key: "relationship_type", Value: []byte(event.RelationshipType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish relationship event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":        event.EventType,
		"relationship_id":   event.RelationshipID,
		"relationship_type": event.RelationshipType,
	}).Debug("Published relationship event")

	return nil
}

// PublishInferenceEvent publishes an inference run event to Kafka
func (p *Producer) PublishInferenceEvent(ctx context.Context, event *InferenceEvent) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.PublishInferenceEvent")
	defer span.End()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(event.TenantID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "tenant_id", Value: []byte(event.TenantID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to publish inference event")
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"tenant_id":  event.TenantID,
		"upserted":   event.Upserted,
	}).Debug("Published inference event")

	return nil
}
