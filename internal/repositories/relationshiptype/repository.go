package relationshiptype

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/database"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
)

// RelationshipTypeRepository defines the interface for relationship type operations
type RelationshipTypeRepository interface {
	Create(ctx context.Context, tenantID string, rt models.RelationshipType) (*models.RelationshipType, error)
	GetByID(ctx context.Context, tenantID string, id string) (*models.RelationshipType, error)
	GetByName(ctx context.Context, tenantID string, name string) (*models.RelationshipType, error)
	List(ctx context.Context, tenantID string, fromKind, toKind models.EntityKind) ([]models.RelationshipType, error)
	Update(ctx context.Context, tenantID string, id string, req models.UpdateRelationshipTypeRequest) (*models.RelationshipType, error)
	Delete(ctx context.Context, tenantID string, id string) error
}

// Repository implements RelationshipTypeRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new relationship type repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "relationship_types"

var columns = []string{"id", "tenant_id", "name", "description", "from_kind", "to_kind", "forward_label", "reverse_label", "is_system", "is_symmetric", "created_at", "updated_at", "deleted_at"}

// Create inserts a new relationship type. The unique index on (tenant_id, name)
// over live rows turns duplicate names into a DuplicateNameError.
func (r *Repository) Create(ctx context.Context, tenantID string, rt models.RelationshipType) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipTypeRepository.Create")
	defer span.End()

	now := time.Now()
	id := rt.ID
	if id == "" {
		id = uuid.New().String()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "name", "description", "from_kind", "to_kind", "forward_label", "reverse_label", "is_system", "is_symmetric", "created_at", "updated_at")
	sb.Values(id, tenantID, rt.Name, rt.Description, rt.FromKind, rt.ToKind, rt.ForwardLabel, rt.ReverseLabel, rt.IsSystem, rt.IsSymmetric, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, &models.DuplicateNameError{Name: rt.Name}
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
			"name":      rt.Name,
		}).Error("failed to create relationship type")
		return nil, fmt.Errorf("failed to create relationship type: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":        id,
		"tenant_id": tenantID,
		"name":      rt.Name,
	}).Info("created relationship type")

	return r.GetByID(ctx, tenantID, id)
}

// GetByID gets a relationship type by ID
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipTypeRepository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rt models.RelationshipType
	err := r.db.GetContext(ctx, &rt, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		}).Error("failed to get relationship type by ID")
		return nil, fmt.Errorf("failed to get relationship type: %w", err)
	}

	return &rt, nil
}

// GetByName gets a relationship type by its unique name
func (r *Repository) GetByName(ctx context.Context, tenantID string, name string) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipTypeRepository.GetByName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("name", name),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rt models.RelationshipType
	err := r.db.GetContext(ctx, &rt, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get relationship type by name")
		return nil, fmt.Errorf("failed to get relationship type: %w", err)
	}

	return &rt, nil
}

// List lists relationship types for a tenant, optionally filtered by endpoint
// kinds, ordered by name.
func (r *Repository) List(ctx context.Context, tenantID string, fromKind, toKind models.EntityKind) ([]models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipTypeRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)
	if fromKind != "" {
		sb.Where(sb.Equal("from_kind", fromKind))
	}
	if toKind != "" {
		sb.Where(sb.Equal("to_kind", toKind))
	}
	sb.OrderBy("name ASC")

	query, args := sb.Build()

	items := []models.RelationshipType{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
		}).Error("failed to list relationship types")
		return nil, fmt.Errorf("failed to list relationship types: %w", err)
	}

	return items, nil
}

// Update updates the mutable fields of a relationship type
func (r *Repository) Update(ctx context.Context, tenantID string, id string, req models.UpdateRelationshipTypeRequest) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipTypeRepository.Update")
	defer span.End()

	existing, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("updated_at", time.Now()))

	if req.Description != nil {
		sb.SetMore(sb.Assign("description", *req.Description))
	}
	if req.ForwardLabel != nil {
		sb.SetMore(sb.Assign("forward_label", *req.ForwardLabel))
	}
	if req.ReverseLabel != nil {
		sb.SetMore(sb.Assign("reverse_label", *req.ReverseLabel))
	}

	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		}).Error("failed to update relationship type")
		return nil, fmt.Errorf("failed to update relationship type: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("updated relationship type")

	return r.GetByID(ctx, tenantID, id)
}

// Delete soft deletes a relationship type
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "RelationshipTypeRepository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(sb.Assign("deleted_at", time.Now()))
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		}).Error("failed to delete relationship type")
		return fmt.Errorf("failed to delete relationship type: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":            id,
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("deleted relationship type")

	return nil
}
