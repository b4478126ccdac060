// Package graph owns edge writes: the bidirectional pairer that keeps
// symmetric edges mirrored, and the service for user-asserted edges.
package graph

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/database"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/tracing"
)

// EdgeStore is the slice of the relationship repository the graph package
// writes through.
type EdgeStore interface {
	DB() database.DB
	Insert(ctx context.Context, tenantID string, rel *models.Relationship) (*models.Relationship, error)
	GetByID(ctx context.Context, tenantID string, id string) (*models.Relationship, error)
	GetByTriple(ctx context.Context, tenantID string, typeID, fromID, toID string) (*models.Relationship, error)
	List(ctx context.Context, tenantID string, filter models.RelationshipFilter) ([]models.RelationshipWithType, error)
	UpdateProperties(ctx context.Context, tenantID string, id string, properties json.RawMessage) error
	SetPairedEdgeID(ctx context.Context, tenantID string, id string, pairedEdgeID *string) error
	SoftDeleteByIDs(ctx context.Context, tenantID string, ids []string) error
}

// Pairer maintains the mirror edge of symmetric types. Every operation is a
// single transaction, a symmetric edge is never visible without its reverse.
type Pairer struct {
	edges  EdgeStore
	logger ectologger.Logger
}

// NewPairer creates a new bidirectional pairer
func NewPairer(edges EdgeStore, logger ectologger.Logger) *Pairer {
	return &Pairer{
		edges:  edges,
		logger: logger,
	}
}

// CreatePair creates the forward and reverse edges with identical properties
// and links them to each other. Returns the forward edge.
func (p *Pairer) CreatePair(ctx context.Context, tenantID string, typeID string, from, to models.EntityRef, source models.RelationshipSource, properties json.RawMessage) (*models.Relationship, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Pairer.CreatePair")
	defer span.End()

	ctxTx, tx, err := p.edges.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctxTx)

	forward, err := p.edges.Insert(ctxTx, tenantID, &models.Relationship{
		TypeID:     typeID,
		FromKind:   from.Kind,
		FromID:     from.ID,
		ToKind:     to.Kind,
		ToID:       to.ID,
		Source:     source,
		Properties: properties,
	})
	if err != nil {
		return nil, err
	}

	reverse, err := p.edges.Insert(ctxTx, tenantID, &models.Relationship{
		TypeID:     typeID,
		FromKind:   to.Kind,
		FromID:     to.ID,
		ToKind:     from.Kind,
		ToID:       from.ID,
		Source:     source,
		Properties: properties,
	})
	if err != nil {
		return nil, err
	}

	if err := p.edges.SetPairedEdgeID(ctxTx, tenantID, forward.ID, &reverse.ID); err != nil {
		return nil, err
	}
	if err := p.edges.SetPairedEdgeID(ctxTx, tenantID, reverse.ID, &forward.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctxTx); err != nil {
		return nil, err
	}

	forward.PairedEdgeID = &reverse.ID
	return forward, nil
}

// UpdatePair replaces the properties on both sides of a pair identically. For
// an unpaired edge only that edge is updated.
func (p *Pairer) UpdatePair(ctx context.Context, tenantID string, edge *models.Relationship, properties json.RawMessage) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Pairer.UpdatePair")
	defer span.End()

	ctxTx, tx, err := p.edges.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctxTx)

	if err := p.edges.UpdateProperties(ctxTx, tenantID, edge.ID, properties); err != nil {
		return err
	}
	if edge.PairedEdgeID != nil {
		if err := p.edges.UpdateProperties(ctxTx, tenantID, *edge.PairedEdgeID, properties); err != nil {
			return err
		}
	}

	return tx.Commit(ctxTx)
}

// DeletePair deletes an edge and its paired reverse in one transaction.
// Deleting an unpaired edge deletes just that row.
func (p *Pairer) DeletePair(ctx context.Context, tenantID string, edge *models.Relationship) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Pairer.DeletePair")
	defer span.End()

	ctxTx, tx, err := p.edges.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctxTx)

	ids := []string{edge.ID}
	if edge.PairedEdgeID != nil {
		ids = append(ids, *edge.PairedEdgeID)
	}

	if err := p.edges.SoftDeleteByIDs(ctxTx, tenantID, ids); err != nil {
		return err
	}

	return tx.Commit(ctxTx)
}
