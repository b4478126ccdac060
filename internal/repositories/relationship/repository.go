package relationship

import (
	"context"
	"database/sql"
	"encoding/json"
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

// RelationshipRepository defines the interface for relationship edge operations
type RelationshipRepository interface {
	DB() database.DB
	Insert(ctx context.Context, tenantID string, rel *models.Relationship) (*models.Relationship, error)
	GetByID(ctx context.Context, tenantID string, id string) (*models.Relationship, error)
	GetByTriple(ctx context.Context, tenantID string, typeID, fromID, toID string) (*models.Relationship, error)
	List(ctx context.Context, tenantID string, filter models.RelationshipFilter) ([]models.RelationshipWithType, error)
	ListInferredByType(ctx context.Context, tenantID string, typeID string) ([]models.Relationship, error)
	UpdateProperties(ctx context.Context, tenantID string, id string, properties json.RawMessage) error
	SetPairedEdgeID(ctx context.Context, tenantID string, id string, pairedEdgeID *string) error
	SoftDeleteByIDs(ctx context.Context, tenantID string, ids []string) error
	CountByType(ctx context.Context, tenantID string, typeID string) (int, error)
}

// Repository implements RelationshipRepository
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new relationship repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "relationships"

var columns = []string{"id", "tenant_id", "type_id", "from_kind", "from_id", "to_kind", "to_id", "source", "properties", "paired_edge_id", "created_at", "updated_at", "deleted_at"}

// DB exposes the underlying database handle so engines can scope several
// repository calls to one transaction.
func (r *Repository) DB() database.DB {
	return r.db
}

// Insert inserts a new edge. The unique index on the live (tenant_id, type_id,
// from_id, to_id) triple turns duplicates into a DuplicateEdgeError.
func (r *Repository) Insert(ctx context.Context, tenantID string, rel *models.Relationship) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.Insert")
	defer span.End()

	now := time.Now()
	id := rel.ID
	if id == "" {
		id = uuid.New().String()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "tenant_id", "type_id", "from_kind", "from_id", "to_kind", "to_id", "source", "properties", "paired_edge_id", "created_at", "updated_at")
	sb.Values(id, tenantID, rel.TypeID, rel.FromKind, rel.FromID, rel.ToKind, rel.ToID, rel.Source, rel.Properties, rel.PairedEdgeID, now, now)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, &models.DuplicateEdgeError{TypeID: rel.TypeID, FromID: rel.FromID, ToID: rel.ToID}
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
			"type_id":   rel.TypeID,
		}).Error("failed to insert relationship")
		return nil, fmt.Errorf("failed to insert relationship: %w", err)
	}

	return r.GetByID(ctx, tenantID, id)
}

// GetByID gets an edge by ID
func (r *Repository) GetByID(ctx context.Context, tenantID string, id string) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.GetByID")
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

	var rel models.Relationship
	err := r.db.GetContext(ctx, &rel, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		}).Error("failed to get relationship by ID")
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}

	return &rel, nil
}

// GetByTriple gets the live edge for a (type, from, to) triple, if any.
func (r *Repository) GetByTriple(ctx context.Context, tenantID string, typeID, fromID, toID string) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.GetByTriple")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("type_id", typeID),
		sb.Equal("from_id", fromID),
		sb.Equal("to_id", toID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var rel models.Relationship
	err := r.db.GetContext(ctx, &rel, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"type_id":   typeID,
		}).Error("failed to get relationship by triple")
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}

	return &rel, nil
}

// List lists edges joined with their type labels, narrowed by the filter.
// Results are ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, tenantID string, filter models.RelationshipFilter) ([]models.RelationshipWithType, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"relationships.id", "relationships.tenant_id", "relationships.type_id",
		"relationships.from_kind", "relationships.from_id", "relationships.to_kind", "relationships.to_id",
		"relationships.source", "relationships.properties", "relationships.paired_edge_id",
		"relationships.created_at", "relationships.updated_at", "relationships.deleted_at",
		"relationship_types.name AS type_name",
		"relationship_types.forward_label", "relationship_types.reverse_label", "relationship_types.is_symmetric",
	)
	sb.From(tableName)
	sb.Join("relationship_types", "relationship_types.id = relationships.type_id")
	sb.Where(
		sb.Equal("relationships.tenant_id", tenantID),
		sb.IsNull("relationships.deleted_at"),
	)

	if filter.EntityID != "" {
		sb.Where(sb.Or(
			sb.Equal("relationships.from_id", filter.EntityID),
			sb.Equal("relationships.to_id", filter.EntityID),
		))
	}
	if filter.TypeID != "" {
		sb.Where(sb.Equal("relationships.type_id", filter.TypeID))
	}
	if filter.Source != "" {
		sb.Where(sb.Equal("relationships.source", filter.Source))
	}
	if filter.MinStrength != nil {
		sb.Where(sb.GreaterEqualThan("(relationships.properties->>'strength')::float", *filter.MinStrength))
	}

	sb.OrderBy("relationships.created_at DESC")

	query, args := sb.Build()

	items := []models.RelationshipWithType{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
		}).Error("failed to list relationships")
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}

	return items, nil
}

// ListInferredByType lists every live inferred edge of the given type.
func (r *Repository) ListInferredByType(ctx context.Context, tenantID string, typeID string) ([]models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.ListInferredByType")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("type_id", typeID),
		sb.Equal("source", models.SourceInferred),
		sb.IsNull("deleted_at"),
	)
	sb.OrderBy("from_id ASC", "to_id ASC")

	query, args := sb.Build()

	items := []models.Relationship{}
	err := r.db.SelectContext(ctx, &items, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"type_id":   typeID,
		}).Error("failed to list inferred relationships")
		return nil, fmt.Errorf("failed to list inferred relationships: %w", err)
	}

	return items, nil
}

// UpdateProperties replaces the properties payload of an edge in place, keeping
// its identity stable.
func (r *Repository) UpdateProperties(ctx context.Context, tenantID string, id string, properties json.RawMessage) error {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.UpdateProperties")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("properties", properties),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		}).Error("failed to update relationship properties")
		return fmt.Errorf("failed to update relationship properties: %w", err)
	}

	return nil
}

// SetPairedEdgeID links or unlinks the reverse edge of a symmetric pair.
func (r *Repository) SetPairedEdgeID(ctx context.Context, tenantID string, id string, pairedEdgeID *string) error {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.SetPairedEdgeID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("paired_edge_id", pairedEdgeID),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"id":        id,
			"tenant_id": tenantID,
		}).Error("failed to set paired edge ID")
		return fmt.Errorf("failed to set paired edge ID: %w", err)
	}

	return nil
}

// SoftDeleteByIDs soft deletes the given edges.
func (r *Repository) SoftDeleteByIDs(ctx context.Context, tenantID string, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.SoftDeleteByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("deleted_at", time.Now()),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.In("id", sqlbuilder.Flatten(ids)...),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"count":     len(ids),
		}).Error("failed to soft delete relationships")
		return fmt.Errorf("failed to soft delete relationships: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":     tenantID,
		"rows_affected": rowsAffected,
	}).Info("soft deleted relationships")

	return nil
}

// CountByType counts the live edges referencing a relationship type.
func (r *Repository) CountByType(ctx context.Context, tenantID string, typeID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "RelationshipRepository.CountByType")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(tableName)
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("type_id", typeID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()

	var count int
	err := r.db.GetContext(ctx, &count, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"tenant_id": tenantID,
			"type_id":   typeID,
		}).Error("failed to count relationships by type")
		return 0, fmt.Errorf("failed to count relationships: %w", err)
	}

	return count, nil
}
