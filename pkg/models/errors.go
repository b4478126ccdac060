package models

import "fmt"

// NotFoundError is returned when a referenced resource does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError is returned for bad endpoint kinds, unknown type ids and
// other boundary violations.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DuplicateNameError is returned when a relationship type name is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("relationship type %q already exists", e.Name)
}

// DuplicateEdgeError is returned when the (from, to, type) triple already has a
// live edge.
type DuplicateEdgeError struct {
	TypeID string
	FromID string
	ToID   string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("relationship of type %s from %s to %s already exists", e.TypeID, e.FromID, e.ToID)
}

// SystemTypeError is returned when attempting to delete a system relationship type.
type SystemTypeError struct {
	Name string
}

func (e *SystemTypeError) Error() string {
	return fmt.Sprintf("relationship type %q is a system type and cannot be deleted", e.Name)
}

// InUseError is returned when deleting a relationship type that still has edges.
type InUseError struct {
	Name      string
	EdgeCount int
}

func (e *InUseError) Error() string {
	return fmt.Sprintf("relationship type %q is referenced by %d relationship(s)", e.Name, e.EdgeCount)
}

// NotAllowedError is returned when an operation targets an edge the caller does
// not own, e.g. deleting an inferred edge through the manual-delete path.
type NotAllowedError struct {
	Message string
}

func (e *NotAllowedError) Error() string {
	return e.Message
}

// ReconciliationError wraps any failure inside an inference run. The run is
// rolled back in full, so to external observers a failed run never happened.
type ReconciliationError struct {
	Err error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("inference run failed: %v", e.Err)
}

func (e *ReconciliationError) Unwrap() error {
	return e.Err
}
