// Package catalog manages the registry of relationship types.
package catalog

import (
	"context"
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
)

// SystemTypeKnows is the name of the symmetric system type owned by the
// inference engine.
const SystemTypeKnows = "knows"

// TypeRepository is the slice of the relationship type store the catalog needs.
type TypeRepository interface {
	Create(ctx context.Context, tenantID string, rt models.RelationshipType) (*models.RelationshipType, error)
	GetByID(ctx context.Context, tenantID string, id string) (*models.RelationshipType, error)
	GetByName(ctx context.Context, tenantID string, name string) (*models.RelationshipType, error)
	List(ctx context.Context, tenantID string, fromKind, toKind models.EntityKind) ([]models.RelationshipType, error)
	Update(ctx context.Context, tenantID string, id string, req models.UpdateRelationshipTypeRequest) (*models.RelationshipType, error)
	Delete(ctx context.Context, tenantID string, id string) error
}

// EdgeCounter reports how many live edges reference a type.
type EdgeCounter interface {
	CountByType(ctx context.Context, tenantID string, typeID string) (int, error)
}

// Service exposes the relationship type catalog. The seed set is loaded lazily
// per tenant on first use and never mutated afterwards.
type Service struct {
	types  TypeRepository
	edges  EdgeCounter
	logger ectologger.Logger
}

// NewService creates a new catalog service
func NewService(types TypeRepository, edges EdgeCounter, logger ectologger.Logger) *Service {
	return &Service{
		types:  types,
		edges:  edges,
		logger: logger,
	}
}

// seedTypes returns the fixed bootstrap set. Only "knows" is a system type;
// the rest are ordinary starter types users may delete.
func seedTypes() []models.RelationshipType {
	return []models.RelationshipType{
		{
			Name:         SystemTypeKnows,
			Description:  "Derived from communication co-occurrence",
			FromKind:     models.EntityKindContact,
			ToKind:       models.EntityKindContact,
			ForwardLabel: "knows",
			ReverseLabel: "knows",
			IsSystem:     true,
			IsSymmetric:  true,
		},
		{
			Name:         "reports_to",
			Description:  "Organizational reporting line",
			FromKind:     models.EntityKindContact,
			ToKind:       models.EntityKindContact,
			ForwardLabel: "reports to",
			ReverseLabel: "manages",
		},
		{
			Name:         "mentor_of",
			Description:  "Mentorship",
			FromKind:     models.EntityKindContact,
			ToKind:       models.EntityKindContact,
			ForwardLabel: "mentor of",
			ReverseLabel: "mentored by",
		},
		{
			Name:         "employs",
			Description:  "Employment",
			FromKind:     models.EntityKindCompany,
			ToKind:       models.EntityKindContact,
			ForwardLabel: "employs",
			ReverseLabel: "works at",
		},
		{
			Name:         "partner_of",
			Description:  "Business partnership",
			FromKind:     models.EntityKindCompany,
			ToKind:       models.EntityKindCompany,
			ForwardLabel: "partner of",
			ReverseLabel: "partner of",
			IsSymmetric:  true,
		},
		{
			Name:         "subsidiary_of",
			Description:  "Corporate ownership",
			FromKind:     models.EntityKindCompany,
			ToKind:       models.EntityKindCompany,
			ForwardLabel: "subsidiary of",
			ReverseLabel: "parent of",
		},
	}
}

// EnsureSeeded creates any missing seed types for the tenant. Concurrent
// seeding is safe, duplicate names from a racing writer are ignored.
func (s *Service) EnsureSeeded(ctx context.Context, tenantID string) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.EnsureSeeded")
	defer span.End()

	for _, seed := range seedTypes() {
		existing, err := s.types.GetByName(ctx, tenantID, seed.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		if _, err := s.types.Create(ctx, tenantID, seed); err != nil {
			var dup *models.DuplicateNameError
			if errors.As(err, &dup) {
				continue
			}
			return err
		}

		s.logger.WithContext(ctx).WithFields(map[string]any{
			"tenant_id": tenantID,
			"name":      seed.Name,
		}).Info("seeded relationship type")
	}

	return nil
}

// CreateType registers a user-defined relationship type. Symmetric types
// always carry identical forward and reverse labels.
func (s *Service) CreateType(ctx context.Context, tenantID string, req models.CreateRelationshipTypeRequest) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.CreateType")
	defer span.End()

	if err := s.EnsureSeeded(ctx, tenantID); err != nil {
		return nil, err
	}

	if !req.FromKind.Valid() || !req.ToKind.Valid() {
		return nil, &models.ValidationError{Message: "endpoint kinds must be contact or company"}
	}
	// The mirror edge of a symmetric pair swaps the endpoints, so unequal
	// kinds would put a reverse edge in conflict with its own type.
	if req.IsSymmetric && req.FromKind != req.ToKind {
		return nil, &models.ValidationError{Message: "symmetric types require matching endpoint kinds"}
	}

	reverseLabel := req.ReverseLabel
	if req.IsSymmetric {
		reverseLabel = req.ForwardLabel
	}

	return s.types.Create(ctx, tenantID, models.RelationshipType{
		Name:         req.Name,
		Description:  req.Description,
		FromKind:     req.FromKind,
		ToKind:       req.ToKind,
		ForwardLabel: req.ForwardLabel,
		ReverseLabel: reverseLabel,
		IsSymmetric:  req.IsSymmetric,
	})
}

// GetType returns one relationship type by ID.
func (s *Service) GetType(ctx context.Context, tenantID string, id string) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.GetType")
	defer span.End()

	rt, err := s.types.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, &models.NotFoundError{Resource: "relationship type", ID: id}
	}
	return rt, nil
}

// GetTypeByName returns one relationship type by its unique name.
func (s *Service) GetTypeByName(ctx context.Context, tenantID string, name string) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.GetTypeByName")
	defer span.End()

	rt, err := s.types.GetByName(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, &models.NotFoundError{Resource: "relationship type", ID: name}
	}
	return rt, nil
}

// ListTypes lists relationship types ordered by name, optionally filtered by
// endpoint kinds.
func (s *Service) ListTypes(ctx context.Context, tenantID string, fromKind, toKind models.EntityKind) ([]models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.ListTypes")
	defer span.End()

	if err := s.EnsureSeeded(ctx, tenantID); err != nil {
		return nil, err
	}

	if fromKind != "" && !fromKind.Valid() {
		return nil, &models.ValidationError{Message: "from_kind must be contact or company"}
	}
	if toKind != "" && !toKind.Valid() {
		return nil, &models.ValidationError{Message: "to_kind must be contact or company"}
	}

	return s.types.List(ctx, tenantID, fromKind, toKind)
}

// UpdateType updates labels and description. Endpoint kinds and symmetry are
// immutable, changing them would invalidate existing edges.
func (s *Service) UpdateType(ctx context.Context, tenantID string, id string, req models.UpdateRelationshipTypeRequest) (*models.RelationshipType, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.UpdateType")
	defer span.End()

	rt, err := s.types.Update(ctx, tenantID, id, req)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, &models.NotFoundError{Resource: "relationship type", ID: id}
	}
	return rt, nil
}

// DeleteType deletes an unreferenced, non-system relationship type.
func (s *Service) DeleteType(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "catalog.Service.DeleteType")
	defer span.End()

	rt, err := s.types.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if rt == nil {
		return &models.NotFoundError{Resource: "relationship type", ID: id}
	}
	if rt.IsSystem {
		return &models.SystemTypeError{Name: rt.Name}
	}

	count, err := s.edges.CountByType(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &models.InUseError{Name: rt.Name, EdgeCount: count}
	}

	return s.types.Delete(ctx, tenantID, id)
}
