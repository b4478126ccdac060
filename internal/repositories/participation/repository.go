package participation

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/database"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
)

// ParticipationRepository defines the interface for conversation participation facts
type ParticipationRepository interface {
	Insert(ctx context.Context, tenantID string, fact models.ParticipationFact) error
	ListFacts(ctx context.Context, tenantID string) ([]models.ParticipationFact, error)
}

// Repository implements ParticipationRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new participation repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "conversation_participants"

// Insert records one message by one contact in one conversation.
func (r *Repository) Insert(ctx context.Context, tenantID string, fact models.ParticipationFact) error {
	ctx, span := tracing.StartSpan(ctx, "ParticipationRepository.Insert")
	defer span.End()

	id := fact.ID
	if id == "" {
		id = uuid.New().String()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "conversation_id", "contact_id", "message_at")
	sb.Values(id, tenantID, fact.ConversationID, fact.ContactID, fact.MessageAt)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id":       tenantID,
			"conversation_id": fact.ConversationID,
			"contact_id":      fact.ContactID,
		}).Error("failed to insert participation fact")
		return fmt.Errorf("failed to insert participation fact: %w", err)
	}

	return nil
}

// ListFacts lists every participation fact of a tenant in a stable order.
func (r *Repository) ListFacts(ctx context.Context, tenantID string) ([]models.ParticipationFact, error) {
	ctx, span := tracing.StartSpan(ctx, "ParticipationRepository.ListFacts")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "conversation_id", "contact_id", "message_at")
	sb.From(tableName)
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("conversation_id ASC", "contact_id ASC", "message_at ASC")

	query, args := sb.Build()

	items := []models.ParticipationFact{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
		}).Error("failed to list participation facts")
		return nil, fmt.Errorf("failed to list participation facts: %w", err)
	}

	return items, nil
}
