package contact

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/database"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// ContactRepository defines the interface for the contact directory mirror
type ContactRepository interface {
	Upsert(ctx context.Context, tenantID string, contact models.Contact) error
	List(ctx context.Context, tenantID string) ([]models.Contact, error)
}

// Repository implements ContactRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "contacts"

// Upsert inserts or refreshes one contact keyed by its upstream ID.
func (r *Repository) Upsert(ctx context.Context, tenantID string, contact models.Contact) error {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.Upsert")
	defer span.End()

	now := time.Now()
	createdAt := contact.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "display_name", "created_at", "updated_at")
	sb.Values(contact.ID, tenantID, contact.DisplayName, createdAt, now)
	sb.SQL("ON CONFLICT (id) DO UPDATE SET display_name = EXCLUDED.display_name, updated_at = EXCLUDED.updated_at, deleted_at = NULL")

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        contact.ID,
			"tenant_id": tenantID,
		}).Error("failed to upsert contact")
		return fmt.Errorf("failed to upsert contact: %w", err)
	}

	return nil
}

// List lists the live contacts of a tenant, oldest first so canonical
// tiebreaks stay deterministic.
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "ContactRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "display_name", "created_at", "updated_at", "deleted_at")
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()

	items := []models.Contact{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
		}).Error("failed to list contacts")
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return items, nil
}
