// Package inference derives "knows" edges from communication co-occurrence
// and reconciles them against the stored graph.
package inference

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/tendril/pkg/catalog"
	"github.com/Ramsey-B/tendril/pkg/cooccurrence"
	"github.com/Ramsey-B/tendril/pkg/graph"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/resolver"
	"github.com/Ramsey-B/tendril/pkg/scoring"
	"github.com/Ramsey-B/tendril/pkg/tracing"
)

// ContactDirectory feeds the resolver with the tenant's contact records.
type ContactDirectory interface {
	List(ctx context.Context, tenantID string) ([]models.Contact, error)
}

// ParticipationFeed feeds the miner with conversation participation facts.
type ParticipationFeed interface {
	ListFacts(ctx context.Context, tenantID string) ([]models.ParticipationFact, error)
}

// EdgeStore is the slice of the relationship repository the reconciler needs
// beyond what it writes through the pairer.
type EdgeStore interface {
	graph.EdgeStore
	ListInferredByType(ctx context.Context, tenantID string, typeID string) ([]models.Relationship, error)
}

// TypeCatalog resolves the system type the reconciler owns.
type TypeCatalog interface {
	EnsureSeeded(ctx context.Context, tenantID string) error
	GetTypeByName(ctx context.Context, tenantID string, name string) (*models.RelationshipType, error)
}

// InferenceEmitter publishes run outcomes.
type InferenceEmitter interface {
	EmitInferenceCompleted(ctx context.Context, tenantID string, upserted int) error
}

// Reconciler runs inference: resolve duplicates, mine co-occurrence, score
// pairs, then delete stale inferred edges and upsert fresh ones inside one
// transaction. Manual edges are invisible to the whole process.
type Reconciler struct {
	directory ContactDirectory
	feed      ParticipationFeed
	edges     EdgeStore
	types     TypeCatalog
	pairer    *graph.Pairer
	scorer    *scoring.Scorer
	emitter   InferenceEmitter
	logger    ectologger.Logger

	// mu serializes runs, inference is a single-writer batch process.
	mu  sync.Mutex
	now func() time.Time
}

// NewReconciler creates a new inference reconciler
func NewReconciler(
	directory ContactDirectory,
	feed ParticipationFeed,
	edges EdgeStore,
	types TypeCatalog,
	pairer *graph.Pairer,
	scorer *scoring.Scorer,
	emitter InferenceEmitter,
	logger ectologger.Logger,
) *Reconciler {
	return &Reconciler{
		directory: directory,
		feed:      feed,
		edges:     edges,
		types:     types,
		pairer:    pairer,
		scorer:    scorer,
		emitter:   emitter,
		logger:    logger,
		now:       time.Now,
	}
}

type pairKey struct {
	a string
	b string
}

// Run executes one inference run for the tenant and returns the number of
// edges upserted. On any failure the store is rolled back to the pre-run
// state and a ReconciliationError is returned.
func (r *Reconciler) Run(ctx context.Context, tenantID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "inference.Reconciler.Run")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.types.EnsureSeeded(ctx, tenantID); err != nil {
		return 0, &models.ReconciliationError{Err: err}
	}
	knows, err := r.types.GetTypeByName(ctx, tenantID, catalog.SystemTypeKnows)
	if err != nil {
		return 0, &models.ReconciliationError{Err: err}
	}

	contacts, err := r.directory.List(ctx, tenantID)
	if err != nil {
		return 0, &models.ReconciliationError{Err: err}
	}
	facts, err := r.feed.ListFacts(ctx, tenantID)
	if err != nil {
		return 0, &models.ReconciliationError{Err: err}
	}

	factCounts := make(map[string]int, len(contacts))
	for _, f := range facts {
		factCounts[f.ContactID]++
	}

	res := resolver.Build(contacts, factCounts)
	pairs := cooccurrence.Mine(facts, res.Resolve)

	// One clock per run so every pair decays against the same instant.
	now := r.now().UTC()

	upserted, err := r.reconcile(ctx, tenantID, knows.ID, pairs, now)
	if err != nil {
		return 0, &models.ReconciliationError{Err: err}
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"pairs":     len(pairs),
		"upserted":  upserted,
	}).Info("inference run completed")

	if err := r.emitter.EmitInferenceCompleted(ctx, tenantID, upserted); err != nil {
		r.logger.WithContext(ctx).WithError(err).Warn("inference.completed event not emitted")
	}

	return upserted, nil
}

// reconcile is the transactional phase: delete stale inferred pairs and
// upsert the scored ones. Existing pairs are updated in place so edge IDs
// stay stable across runs.
func (r *Reconciler) reconcile(ctx context.Context, tenantID string, typeID string, pairs []models.PairStats, now time.Time) (int, error) {
	ctxTx, tx, err := r.edges.DB().GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctxTx)

	existing, err := r.edges.ListInferredByType(ctxTx, tenantID, typeID)
	if err != nil {
		return 0, err
	}

	// Each stored pair appears as two mutually linked rows; index the forward
	// (A < B) side only.
	forward := make(map[pairKey]*models.Relationship)
	for i := range existing {
		edge := &existing[i]
		if edge.FromID < edge.ToID {
			forward[pairKey{a: edge.FromID, b: edge.ToID}] = edge
		}
	}

	scored := make(map[pairKey]bool, len(pairs))
	upserted := 0

	for _, ps := range pairs {
		key := pairKey{a: ps.A, b: ps.B}
		scored[key] = true

		properties, err := json.Marshal(models.InferredProperties{
			Strength:            r.scorer.Score(ps, now),
			SharedConversations: ps.SharedConversations,
			SharedMessages:      ps.SharedMessages,
			FirstInteraction:    ps.FirstInteraction,
			LastInteraction:     ps.LastInteraction,
		})
		if err != nil {
			return 0, err
		}

		if edge, ok := forward[key]; ok {
			if err := r.pairer.UpdatePair(ctxTx, tenantID, edge, properties); err != nil {
				return 0, err
			}
		} else {
			occupied, err := r.occupiedTriple(ctxTx, tenantID, typeID, ps.A, ps.B)
			if err != nil {
				return 0, err
			}
			if occupied {
				// A manual edge holds this triple. It is not ours to touch,
				// and the pair stays scored so nothing inferred is deleted.
				r.logger.WithContext(ctx).WithFields(map[string]any{
					"tenant_id": tenantID,
					"from_id":   ps.A,
					"to_id":     ps.B,
				}).Info("skipping scored pair held by a manual edge")
				continue
			}

			from := models.EntityRef{Kind: models.EntityKindContact, ID: ps.A}
			to := models.EntityRef{Kind: models.EntityKindContact, ID: ps.B}
			if _, err := r.pairer.CreatePair(ctxTx, tenantID, typeID, from, to, models.SourceInferred, properties); err != nil {
				return 0, err
			}
		}
		upserted++
	}

	for key, edge := range forward {
		if scored[key] {
			continue
		}
		if err := r.pairer.DeletePair(ctxTx, tenantID, edge); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctxTx); err != nil {
		return 0, err
	}

	return upserted, nil
}

// occupiedTriple reports whether either direction of the pair already has a
// live edge outside the inferred set. The unique triple index ignores source,
// so inserting over a manual edge would fail the whole run.
func (r *Reconciler) occupiedTriple(ctx context.Context, tenantID string, typeID string, a, b string) (bool, error) {
	edge, err := r.edges.GetByTriple(ctx, tenantID, typeID, a, b)
	if err != nil {
		return false, err
	}
	if edge == nil {
		edge, err = r.edges.GetByTriple(ctx, tenantID, typeID, b, a)
		if err != nil {
			return false, err
		}
	}
	return edge != nil, nil
}
