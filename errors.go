package distgraph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/distgraph/property"
)

var (
	// ErrNotAttached is returned when a coordinator is used before Attach.
	ErrNotAttached = errors.New("coordinator not attached to a graph")

	// ErrVertexNotFound is returned when no vertex carries the requested pedigree.
	ErrVertexNotFound = errors.New("vertex not found")

	// ErrEdgeNotFound is returned when an edge id was never minted by its owner.
	ErrEdgeNotFound = errors.New("edge not found")

	// ErrVertexNotLocal is returned when a local step addresses a vertex that
	// is not resident on this rank.
	ErrVertexNotLocal = errors.New("vertex not resident on this rank")

	// ErrInvalidEndpoint is returned for an endpoint with neither id nor pedigree.
	ErrInvalidEndpoint = errors.New("endpoint has neither id nor pedigree")

	// ErrCapacityExceeded is returned when a rank has used every local index
	// its id layout can represent.
	ErrCapacityExceeded = errors.New("local index exceeds id capacity")
)

// SchemaMismatchError indicates a property bundle that does not fit the
// table's columns. It matches property.ErrSchemaMismatch via errors.Is.
type SchemaMismatchError = property.MismatchError

// ConfigurationError indicates an invalid coordinator setup.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigurationError struct {
	Reason string
	cause  error
}

func (e *ConfigurationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.cause)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigurationError) Unwrap() error { return e.cause }
