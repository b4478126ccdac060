// Package events handles event emission for relationship lifecycle changes
package events

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/kafka"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
)

// SchemaVersion is the current event schema version, stamped into every
// published payload so consumers can branch on format changes.
const SchemaVersion = "1.0"

// Emitter handles event emission for the relationship graph
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

func newRelationshipCreatedEvent(rel *models.Relationship, typeName string) *kafka.RelationshipEvent {
	return &kafka.RelationshipEvent{
		EventType:        "relationship.created",
		SchemaVersion:    SchemaVersion,
		TenantID:         rel.TenantID,
		RelationshipID:   rel.ID,
		RelationshipType: typeName,
		FromEntityID:     rel.FromID,
		FromEntityKind:   string(rel.FromKind),
		ToEntityID:       rel.ToID,
		ToEntityKind:     string(rel.ToKind),
		Source:           string(rel.Source),
		Properties:       rel.Properties,
	}
}

func newRelationshipDeletedEvent(tenantID, relID, typeName string) *kafka.RelationshipEvent {
	return &kafka.RelationshipEvent{
		EventType:        "relationship.deleted",
		SchemaVersion:    SchemaVersion,
		TenantID:         tenantID,
		RelationshipID:   relID,
		RelationshipType: typeName,
	}
}

func newInferenceCompletedEvent(tenantID string, upserted int) *kafka.InferenceEvent {
	return &kafka.InferenceEvent{
		EventType:     "inference.completed",
		SchemaVersion: SchemaVersion,
		TenantID:      tenantID,
		Upserted:      upserted,
	}
}

// EmitRelationshipCreated emits a relationship created event
func (e *Emitter) EmitRelationshipCreated(ctx context.Context, rel *models.Relationship, typeName string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipCreated")
	defer span.End()

	if err := e.producer.PublishRelationshipEvent(ctx, newRelationshipCreatedEvent(rel, typeName)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit relationship.created event")
		return err
	}

	return nil
}

// EmitRelationshipDeleted emits a relationship deleted event
func (e *Emitter) EmitRelationshipDeleted(ctx context.Context, tenantID string, relID string, typeName string) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipDeleted")
	defer span.End()

	if err := e.producer.PublishRelationshipEvent(ctx, newRelationshipDeletedEvent(tenantID, relID, typeName)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit relationship.deleted event")
		return err
	}

	return nil
}

// EmitInferenceCompleted emits an inference run completed event
func (e *Emitter) EmitInferenceCompleted(ctx context.Context, tenantID string, upserted int) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitInferenceCompleted")
	defer span.End()

	if err := e.producer.PublishInferenceEvent(ctx, newInferenceCompletedEvent(tenantID, upserted)); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit inference.completed event")
		return err
	}

	return nil
}
