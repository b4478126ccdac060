package graph

import (
	"context"
	"testing"

	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTypeCatalog struct {
	types map[string]*models.RelationshipType
}

func (c *fakeTypeCatalog) GetType(_ context.Context, _ string, id string) (*models.RelationshipType, error) {
	rt, ok := c.types[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "relationship type", ID: id}
	}
	return rt, nil
}

type fakeEmitter struct {
	created []string
	deleted []string
	err     error
}

func (e *fakeEmitter) EmitRelationshipCreated(_ context.Context, rel *models.Relationship, _ string) error {
	if e.err != nil {
		return e.err
	}
	e.created = append(e.created, rel.ID)
	return nil
}

func (e *fakeEmitter) EmitRelationshipDeleted(_ context.Context, _ string, relID string, _ string) error {
	if e.err != nil {
		return e.err
	}
	e.deleted = append(e.deleted, relID)
	return nil
}

type serviceFixture struct {
	service   *Service
	store     *fakeEdgeStore
	emitter   *fakeEmitter
	knows     *models.RelationshipType
	reportsTo *models.RelationshipType
}

func newServiceFixture() *serviceFixture {
	knows := &models.RelationshipType{
		ID:          uuid.New().String(),
		Name:        "knows",
		FromKind:    models.EntityKindContact,
		ToKind:      models.EntityKindContact,
		IsSymmetric: true,
		IsSystem:    true,
	}
	reportsTo := &models.RelationshipType{
		ID:       uuid.New().String(),
		Name:     "reports_to",
		FromKind: models.EntityKindContact,
		ToKind:   models.EntityKindContact,
	}

	catalog := &fakeTypeCatalog{types: map[string]*models.RelationshipType{
		knows.ID:     knows,
		reportsTo.ID: reportsTo,
	}}

	store := newFakeEdgeStore()
	store.typeNames[knows.ID] = knows.Name
	store.typeNames[reportsTo.ID] = reportsTo.Name

	emitter := &fakeEmitter{}
	logger := testLogger()
	service := NewService(catalog, store, NewPairer(store, logger), emitter, logger)

	return &serviceFixture{
		service:   service,
		store:     store,
		emitter:   emitter,
		knows:     knows,
		reportsTo: reportsTo,
	}
}

func contactRef(id string) models.EntityRef {
	return models.EntityRef{Kind: models.EntityKindContact, ID: id}
}

func TestService_CreateManual(t *testing.T) {
	ctx := context.Background()

	t.Run("asymmetric type creates one edge", func(t *testing.T) {
		f := newServiceFixture()

		rel, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		require.NoError(t, err)

		assert.Equal(t, models.SourceManual, rel.Source)
		assert.Nil(t, rel.PairedEdgeID)
		assert.Len(t, f.store.live("tenant1"), 1)
		assert.Equal(t, []string{rel.ID}, f.emitter.created)
	})

	t.Run("symmetric type creates a linked pair", func(t *testing.T) {
		f := newServiceFixture()

		rel, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.knows.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		require.NoError(t, err)

		require.NotNil(t, rel.PairedEdgeID)
		assert.Len(t, f.store.live("tenant1"), 2)

		reverse, err := f.store.GetByID(ctx, "tenant1", *rel.PairedEdgeID)
		require.NoError(t, err)
		require.NotNil(t, reverse)
		assert.Equal(t, "bob", reverse.FromID)
		assert.Equal(t, "alice", reverse.ToID)
		assert.Equal(t, models.SourceManual, reverse.Source)
	})

	t.Run("unknown type", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: uuid.New().String(),
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		var notFound *models.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("endpoint kind mismatch", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   models.EntityRef{Kind: models.EntityKindCompany, ID: "acme"},
			To:     contactRef("bob"),
		})
		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
		assert.Empty(t, f.store.live("tenant1"))
	})

	t.Run("duplicate triple", func(t *testing.T) {
		f := newServiceFixture()

		req := models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		}
		_, err := f.service.CreateManual(ctx, "tenant1", req)
		require.NoError(t, err)

		_, err = f.service.CreateManual(ctx, "tenant1", req)
		var dupErr *models.DuplicateEdgeError
		assert.ErrorAs(t, err, &dupErr)
	})

	t.Run("lost event does not fail the call", func(t *testing.T) {
		f := newServiceFixture()
		f.emitter.err = assert.AnError

		rel, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		require.NoError(t, err)
		assert.NotEmpty(t, rel.ID)
	})
}

func TestService_DeleteManual(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes an asymmetric manual edge", func(t *testing.T) {
		f := newServiceFixture()

		rel, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		require.NoError(t, err)

		require.NoError(t, f.service.DeleteManual(ctx, "tenant1", rel.ID))
		assert.Empty(t, f.store.live("tenant1"))
		assert.Equal(t, []string{rel.ID}, f.emitter.deleted)
	})

	t.Run("deletes both sides of a symmetric pair", func(t *testing.T) {
		f := newServiceFixture()

		rel, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.knows.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		require.NoError(t, err)

		require.NoError(t, f.service.DeleteManual(ctx, "tenant1", rel.ID))
		assert.Empty(t, f.store.live("tenant1"))
	})

	t.Run("missing edge", func(t *testing.T) {
		f := newServiceFixture()

		err := f.service.DeleteManual(ctx, "tenant1", uuid.New().String())
		var notFound *models.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("inferred edges are off limits", func(t *testing.T) {
		f := newServiceFixture()

		edge, err := f.store.Insert(ctx, "tenant1", &models.Relationship{
			TypeID:   f.knows.ID,
			FromKind: models.EntityKindContact,
			FromID:   "alice",
			ToKind:   models.EntityKindContact,
			ToID:     "bob",
			Source:   models.SourceInferred,
		})
		require.NoError(t, err)

		err = f.service.DeleteManual(ctx, "tenant1", edge.ID)
		var notAllowed *models.NotAllowedError
		assert.ErrorAs(t, err, &notAllowed)
		assert.Len(t, f.store.live("tenant1"), 1)
	})
}

func TestService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid source filter", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.service.List(ctx, "tenant1", models.RelationshipFilter{Source: "guessed"})
		var validationErr *models.ValidationError
		assert.ErrorAs(t, err, &validationErr)
	})

	t.Run("filters by entity on either end", func(t *testing.T) {
		f := newServiceFixture()

		_, err := f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   contactRef("alice"),
			To:     contactRef("bob"),
		})
		require.NoError(t, err)
		_, err = f.service.CreateManual(ctx, "tenant1", models.CreateManualRelationshipRequest{
			TypeID: f.reportsTo.ID,
			From:   contactRef("carol"),
			To:     contactRef("dave"),
		})
		require.NoError(t, err)

		edges, err := f.service.List(ctx, "tenant1", models.RelationshipFilter{EntityID: "bob"})
		require.NoError(t, err)
		require.Len(t, edges, 1)
		assert.Equal(t, "alice", edges[0].FromID)
		assert.Equal(t, "reports_to", edges[0].TypeName)
	})
}
