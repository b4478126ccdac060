package models

import (
	"time"
)

// RelationshipType defines the schema for a type of relationship between entities.
type RelationshipType struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	// Name is typically snake_case (e.g. "reports_to").
	Name        string     `json:"name" db:"name" validate:"required"`
	Description string     `json:"description,omitempty" db:"description"`
	FromKind    EntityKind `json:"from_kind" db:"from_kind" validate:"required"`
	ToKind      EntityKind `json:"to_kind" db:"to_kind" validate:"required"`
	// ForwardLabel renders the edge read from -> to ("reports to"),
	// ReverseLabel renders it read to -> from ("manages"). For symmetric
	// types both labels are identical.
	ForwardLabel string `json:"forward_label" db:"forward_label" validate:"required"`
	ReverseLabel string `json:"reverse_label" db:"reverse_label" validate:"required"`
	// IsSystem marks types owned by the inference engine. System types can
	// never be deleted.
	IsSystem bool `json:"is_system" db:"is_system"`
	// IsSymmetric means every edge of this type exists as a linked
	// forward/reverse pair with identical properties.
	IsSymmetric bool       `json:"is_symmetric" db:"is_symmetric"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// CreateRelationshipTypeRequest is the request body for creating a relationship
// type. Endpoint kinds and symmetry are immutable after creation; IsSystem is
// never user-settable.
type CreateRelationshipTypeRequest struct {
	Name         string     `json:"name" validate:"required"`
	Description  string     `json:"description,omitempty"`
	FromKind     EntityKind `json:"from_kind" validate:"required,oneof=contact company"`
	ToKind       EntityKind `json:"to_kind" validate:"required,oneof=contact company"`
	ForwardLabel string     `json:"forward_label" validate:"required"`
	ReverseLabel string     `json:"reverse_label" validate:"required"`
	IsSymmetric  bool       `json:"is_symmetric"`
}

// UpdateRelationshipTypeRequest is the request body for updating a relationship
// type. Only labels and description are updatable; endpoint kinds and symmetry
// would invalidate existing edges if they changed.
type UpdateRelationshipTypeRequest struct {
	Description  *string `json:"description,omitempty"`
	ForwardLabel *string `json:"forward_label,omitempty"`
	ReverseLabel *string `json:"reverse_label,omitempty"`
}

// RelationshipTypeResponse is the API response for relationship type operations.
type RelationshipTypeResponse struct {
	RelationshipType
}

// RelationshipTypeListResponse is the API response for listing relationship types.
type RelationshipTypeListResponse struct {
	Items []RelationshipType `json:"items"`
}
