package models

import (
	"encoding/json"
	"time"
)

// RelationshipSource discriminates who owns an edge.
type RelationshipSource string

const (
	// SourceInferred edges are owned exclusively by the inference engine.
	SourceInferred RelationshipSource = "inferred"
	// SourceManual edges are asserted by users and never touched by inference.
	SourceManual RelationshipSource = "manual"
)

// Valid reports whether the source is one of the known discriminators.
func (s RelationshipSource) Valid() bool {
	return s == SourceInferred || s == SourceManual
}

// Relationship is a typed directional edge between two CRM entities.
type Relationship struct {
	ID       string     `json:"id" db:"id"`
	TenantID string     `json:"tenant_id" db:"tenant_id"`
	TypeID   string     `json:"type_id" db:"type_id"`
	FromKind EntityKind `json:"from_kind" db:"from_kind"`
	FromID   string     `json:"from_id" db:"from_id"`
	ToKind   EntityKind `json:"to_kind" db:"to_kind"`
	ToID     string     `json:"to_id" db:"to_id"`
	Source   RelationshipSource `json:"source" db:"source"`
	// Properties carries the inference payload for inferred edges and is
	// empty for manual edges.
	Properties json.RawMessage `json:"properties,omitempty" db:"properties"`
	// PairedEdgeID links the reverse edge of a symmetric pair. Always nil
	// for non-symmetric types.
	PairedEdgeID *string    `json:"paired_edge_id,omitempty" db:"paired_edge_id"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// From returns the from endpoint as an EntityRef.
func (r *Relationship) From() EntityRef {
	return EntityRef{Kind: r.FromKind, ID: r.FromID}
}

// To returns the to endpoint as an EntityRef.
func (r *Relationship) To() EntityRef {
	return EntityRef{Kind: r.ToKind, ID: r.ToID}
}

// InferredProperties is the payload stored on inferred edges.
type InferredProperties struct {
	Strength            float64   `json:"strength"`
	SharedConversations int       `json:"shared_conversations"`
	SharedMessages      int       `json:"shared_messages"`
	FirstInteraction    time.Time `json:"first_interaction"`
	LastInteraction     time.Time `json:"last_interaction"`
}

// RelationshipWithType is an edge joined with its type labels for read APIs.
type RelationshipWithType struct {
	Relationship
	TypeName     string `json:"type_name" db:"type_name"`
	ForwardLabel string `json:"forward_label" db:"forward_label"`
	ReverseLabel string `json:"reverse_label" db:"reverse_label"`
	IsSymmetric  bool   `json:"is_symmetric" db:"is_symmetric"`
}

// CreateManualRelationshipRequest is the request body for manually asserting an
// edge. Endpoint kinds must agree with the kinds declared by the type.
type CreateManualRelationshipRequest struct {
	TypeID string    `json:"type_id" validate:"required"`
	From   EntityRef `json:"from" validate:"required"`
	To     EntityRef `json:"to" validate:"required"`
}

// RelationshipFilter narrows edge listings.
type RelationshipFilter struct {
	// EntityID matches edges touching the entity on either end.
	EntityID    string
	MinStrength *float64
	TypeID      string
	Source      RelationshipSource
}

// RelationshipResponse is the API response for single-edge operations.
type RelationshipResponse struct {
	Relationship
}

// RelationshipListResponse is the API response for edge listings.
type RelationshipListResponse struct {
	Items []RelationshipWithType `json:"items"`
}

// InferenceRunResponse reports the outcome of an inference run.
type InferenceRunResponse struct {
	Upserted int `json:"upserted"`
}
