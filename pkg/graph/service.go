package graph

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
)

// TypeCatalog is the slice of the catalog the graph service reads.
type TypeCatalog interface {
	GetType(ctx context.Context, tenantID string, id string) (*models.RelationshipType, error)
}

// EventEmitter publishes relationship lifecycle events.
type EventEmitter interface {
	EmitRelationshipCreated(ctx context.Context, rel *models.Relationship, typeName string) error
	EmitRelationshipDeleted(ctx context.Context, tenantID string, relID string, typeName string) error
}

// Service handles user-asserted edges and edge listings.
type Service struct {
	types   TypeCatalog
	edges   EdgeStore
	pairer  *Pairer
	emitter EventEmitter
	logger  ectologger.Logger
}

// NewService creates a new graph service
func NewService(types TypeCatalog, edges EdgeStore, pairer *Pairer, emitter EventEmitter, logger ectologger.Logger) *Service {
	return &Service{
		types:   types,
		edges:   edges,
		pairer:  pairer,
		emitter: emitter,
		logger:  logger,
	}
}

// CreateManual asserts a user-owned edge. Endpoint kinds must agree with the
// type, and the (type, from, to) triple must not already have a live edge.
// Symmetric types get both directions through the pairer.
func (s *Service) CreateManual(ctx context.Context, tenantID string, req models.CreateManualRelationshipRequest) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Service.CreateManual")
	defer span.End()

	rt, err := s.types.GetType(ctx, tenantID, req.TypeID)
	if err != nil {
		return nil, err
	}

	if req.From.Kind != rt.FromKind || req.To.Kind != rt.ToKind {
		return nil, &models.ValidationError{Message: "endpoint kinds do not match the relationship type"}
	}

	existing, err := s.edges.GetByTriple(ctx, tenantID, rt.ID, req.From.ID, req.To.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &models.DuplicateEdgeError{TypeID: rt.ID, FromID: req.From.ID, ToID: req.To.ID}
	}

	var rel *models.Relationship
	if rt.IsSymmetric {
		rel, err = s.pairer.CreatePair(ctx, tenantID, rt.ID, req.From, req.To, models.SourceManual, nil)
	} else {
		rel, err = s.edges.Insert(ctx, tenantID, &models.Relationship{
			TypeID:   rt.ID,
			FromKind: req.From.Kind,
			FromID:   req.From.ID,
			ToKind:   req.To.Kind,
			ToID:     req.To.ID,
			Source:   models.SourceManual,
		})
	}
	if err != nil {
		return nil, err
	}

	if err := s.emitter.EmitRelationshipCreated(ctx, rel, rt.Name); err != nil {
		// The edge is committed, a lost event is not worth failing the call.
		s.logger.WithContext(ctx).WithError(err).Warn("relationship.created event not emitted")
	}

	return rel, nil
}

// DeleteManual deletes a user-owned edge, and its mirror if the type is
// symmetric. Inferred edges are off limits to this path.
func (s *Service) DeleteManual(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Service.DeleteManual")
	defer span.End()

	edge, err := s.edges.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if edge == nil {
		return &models.NotFoundError{Resource: "relationship", ID: id}
	}
	if edge.Source == models.SourceInferred {
		return &models.NotAllowedError{Message: "inferred relationships cannot be deleted manually"}
	}

	if err := s.pairer.DeletePair(ctx, tenantID, edge); err != nil {
		return err
	}

	typeName := ""
	if rt, typeErr := s.types.GetType(ctx, tenantID, edge.TypeID); typeErr == nil {
		typeName = rt.Name
	}
	if err := s.emitter.EmitRelationshipDeleted(ctx, tenantID, edge.ID, typeName); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("relationship.deleted event not emitted")
	}

	return nil
}

// List lists edges joined with type labels, narrowed by the filter.
func (s *Service) List(ctx context.Context, tenantID string, filter models.RelationshipFilter) ([]models.RelationshipWithType, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Service.List")
	defer span.End()

	if filter.Source != "" && !filter.Source.Valid() {
		return nil, &models.ValidationError{Message: "source must be inferred or manual"}
	}

	return s.edges.List(ctx, tenantID, filter)
}
