// Package ingest consumes the upstream feeds: conversation participation
// facts from communications and contact snapshots from contact management.
package ingest

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/kafka"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
)

// FactWriter stores participation facts.
type FactWriter interface {
	Insert(ctx context.Context, tenantID string, fact models.ParticipationFact) error
}

// ContactWriter mirrors contact snapshots.
type ContactWriter interface {
	Upsert(ctx context.Context, tenantID string, contact models.Contact) error
}

// FactIngestor handles messages from the communication facts topic.
type FactIngestor struct {
	facts  FactWriter
	logger ectologger.Logger
}

// NewFactIngestor creates a new fact ingestor
func NewFactIngestor(facts FactWriter, logger ectologger.Logger) *FactIngestor {
	return &FactIngestor{
		facts:  facts,
		logger: logger,
	}
}

// Handle is the kafka.MessageHandler for participation facts.
func (i *FactIngestor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "ingest.FactIngestor.Handle")
	defer span.End()

	fact, err := msg.ParseFactMessage()
	if err != nil {
		// Malformed payloads are logged and dropped, retrying cannot fix them.
		i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("failed to parse participation fact")
		return nil
	}

	if fact.TenantID == "" || fact.ConversationID == "" || fact.ContactID == "" {
		i.logger.WithContext(ctx).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("participation fact missing required fields")
		return nil
	}

	err = i.facts.Insert(ctx, fact.TenantID, models.ParticipationFact{
		TenantID:       fact.TenantID,
		ConversationID: fact.ConversationID,
		ContactID:      fact.ContactID,
		MessageAt:      fact.MessageAt,
	})
	if err != nil {
		return fmt.Errorf("failed to store participation fact: %w", err)
	}

	return nil
}

// ContactIngestor handles messages from the contact events topic.
type ContactIngestor struct {
	contacts ContactWriter
	logger   ectologger.Logger
}

// NewContactIngestor creates a new contact ingestor
func NewContactIngestor(contacts ContactWriter, logger ectologger.Logger) *ContactIngestor {
	return &ContactIngestor{
		contacts: contacts,
		logger:   logger,
	}
}

// Handle is the kafka.MessageHandler for contact snapshots.
func (i *ContactIngestor) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "ingest.ContactIngestor.Handle")
	defer span.End()

	contact, err := msg.ParseContactMessage()
	if err != nil {
		i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("failed to parse contact snapshot")
		return nil
	}

	if contact.TenantID == "" || contact.ContactID == "" {
		i.logger.WithContext(ctx).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("contact snapshot missing required fields")
		return nil
	}

	err = i.contacts.Upsert(ctx, contact.TenantID, models.Contact{
		ID:          contact.ContactID,
		TenantID:    contact.TenantID,
		DisplayName: contact.DisplayName,
		CreatedAt:   contact.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to upsert contact: %w", err)
	}

	return nil
}
