package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/kafka"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFactWriter struct {
	facts []models.ParticipationFact
	err   error
}

func (w *fakeFactWriter) Insert(_ context.Context, _ string, fact models.ParticipationFact) error {
	if w.err != nil {
		return w.err
	}
	w.facts = append(w.facts, fact)
	return nil
}

type fakeContactWriter struct {
	contacts []models.Contact
	err      error
}

func (w *fakeContactWriter) Upsert(_ context.Context, _ string, contact models.Contact) error {
	if w.err != nil {
		return w.err
	}
	w.contacts = append(w.contacts, contact)
	return nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func message(value string) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{
		Topic:  "communication-facts",
		Offset: 42,
		Value:  []byte(value),
	}
}

func TestFactIngestor_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a valid fact", func(t *testing.T) {
		writer := &fakeFactWriter{}
		ingestor := NewFactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{
			"tenant_id": "tenant1",
			"conversation_id": "conv1",
			"contact_id": "alice",
			"message_at": "2025-05-20T12:00:00Z"
		}`))
		require.NoError(t, err)

		require.Len(t, writer.facts, 1)
		fact := writer.facts[0]
		assert.Equal(t, "tenant1", fact.TenantID)
		assert.Equal(t, "conv1", fact.ConversationID)
		assert.Equal(t, "alice", fact.ContactID)
		assert.Equal(t, time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC), fact.MessageAt)
	})

	t.Run("malformed payload is dropped without error", func(t *testing.T) {
		writer := &fakeFactWriter{}
		ingestor := NewFactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{not json`))
		assert.NoError(t, err)
		assert.Empty(t, writer.facts)
	})

	t.Run("missing required fields are dropped without error", func(t *testing.T) {
		writer := &fakeFactWriter{}
		ingestor := NewFactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{"tenant_id": "tenant1", "contact_id": "alice"}`))
		assert.NoError(t, err)
		assert.Empty(t, writer.facts)
	})

	t.Run("store failure propagates for retry", func(t *testing.T) {
		writer := &fakeFactWriter{err: assert.AnError}
		ingestor := NewFactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{
			"tenant_id": "tenant1",
			"conversation_id": "conv1",
			"contact_id": "alice",
			"message_at": "2025-05-20T12:00:00Z"
		}`))
		assert.Error(t, err)
	})
}

func TestContactIngestor_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("upserts a valid snapshot", func(t *testing.T) {
		writer := &fakeContactWriter{}
		ingestor := NewContactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{
			"tenant_id": "tenant1",
			"contact_id": "alice",
			"display_name": "Alice Chen",
			"created_at": "2025-01-01T00:00:00Z"
		}`))
		require.NoError(t, err)

		require.Len(t, writer.contacts, 1)
		contact := writer.contacts[0]
		assert.Equal(t, "alice", contact.ID)
		assert.Equal(t, "Alice Chen", contact.DisplayName)
	})

	t.Run("malformed payload is dropped without error", func(t *testing.T) {
		writer := &fakeContactWriter{}
		ingestor := NewContactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`[]`))
		assert.NoError(t, err)
		assert.Empty(t, writer.contacts)
	})

	t.Run("missing contact id is dropped without error", func(t *testing.T) {
		writer := &fakeContactWriter{}
		ingestor := NewContactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{"tenant_id": "tenant1", "display_name": "Ghost"}`))
		assert.NoError(t, err)
		assert.Empty(t, writer.contacts)
	})

	t.Run("store failure propagates for retry", func(t *testing.T) {
		writer := &fakeContactWriter{err: assert.AnError}
		ingestor := NewContactIngestor(writer, testLogger())

		err := ingestor.Handle(ctx, message(`{
			"tenant_id": "tenant1",
			"contact_id": "alice",
			"display_name": "Alice Chen"
		}`))
		assert.Error(t, err)
	})
}
