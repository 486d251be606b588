package connection

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNoVertices indicates the source entity carries no vertices.
	ErrNoVertices = errors.New("connection: curve must have vertices to find connections")

	// ErrInvalidParameter indicates a tuning scalar outside its domain.
	ErrInvalidParameter = errors.New("connection: invalid parameter")
)

// ErrLengthMismatch indicates a per-vertex array whose length differs from
// the vertex count.
type ErrLengthMismatch struct {
	Field    string
	Expected int
	Actual   int
}

func (e *ErrLengthMismatch) Error() string {
	return fmt.Sprintf("connection: %s has %d values, expected %d", e.Field, e.Actual, e.Expected)
}

// ErrFit wraps a Fitter failure with the label being processed.
type ErrFit struct {
	Label int32
	cause error
}

func (e *ErrFit) Error() string {
	return fmt.Sprintf("connection: fitting label %d: %v", e.Label, e.cause)
}

func (e *ErrFit) Unwrap() error { return e.cause }

// Validate checks the contract FindConnections relies on. It is meant for
// the collaborator assembling the Input; the builder does not call it.
func (in Input) Validate() error {
	n := len(in.Vertices)
	if n == 0 {
		return ErrNoVertices
	}
	if in.Parts != nil && len(in.Parts) != n {
		return &ErrLengthMismatch{Field: "parts", Expected: n, Actual: len(in.Parts)}
	}
	if in.Labels != nil && len(in.Labels) != n {
		return &ErrLengthMismatch{Field: "labels", Expected: n, Actual: len(in.Labels)}
	}

	p := in.Params
	if d := p.MaxDistance; d != nil && (*d < 0 || math.IsNaN(*d)) {
		return fmt.Errorf("%w: max_distance must be non-negative, got %g", ErrInvalidParameter, *d)
	}
	if p.MinEdges < 0 {
		return fmt.Errorf("%w: min_edges must be non-negative, got %d", ErrInvalidParameter, p.MinEdges)
	}
	if p.Damping < 0 || math.IsNaN(p.Damping) {
		return fmt.Errorf("%w: damping must be non-negative, got %g", ErrInvalidParameter, p.Damping)
	}
	return nil
}
