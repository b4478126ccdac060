package models

// EntityKind identifies which kind of CRM record an edge endpoint points at.
type EntityKind string

const (
	EntityKindContact EntityKind = "contact"
	EntityKindCompany EntityKind = "company"
)

// Valid reports whether the kind is one of the known endpoint kinds.
func (k EntityKind) Valid() bool {
	return k == EntityKindContact || k == EntityKindCompany
}

// EntityRef is a polymorphic endpoint reference (kind + id) used at the API
// boundary so kind/type agreement can be validated before anything is written.
type EntityRef struct {
	Kind EntityKind `json:"kind" validate:"required"`
	ID   string     `json:"id" validate:"required"`
}
