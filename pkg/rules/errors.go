package rules

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Use errors.Is against these for classification.
var (
	// ErrMissingType is returned when a fact payload is asserted without a type.
	ErrMissingType = errors.New("rules: fact type is required")

	// ErrTypeImmutable is returned when updateFact attempts to change a fact's type.
	ErrTypeImmutable = errors.New("rules: fact type cannot be changed")

	// ErrNotFound is returned when no fact exists with the given id.
	ErrNotFound = errors.New("rules: fact not found")

	// ErrMaxCyclesExceeded is returned when run() hits the configured cycle cap
	// without reaching a fixed point.
	ErrMaxCyclesExceeded = errors.New("rules: max cycles exceeded")

	// ErrNetworkUninitialized is a programmer error: a node was evaluated before
	// working memory was injected into the compiled network.
	ErrNetworkUninitialized = errors.New("rules: node network evaluated before working memory was injected")
)

// DSLError reports a compile-time rejection of an ill-formed condition tree.
// It wraps a human-readable description of the offending shape, per §4.3's
// InvalidDSL error kind.
type DSLError struct {
	Shape string // human-readable description of the offending condition
}

func (e *DSLError) Error() string {
	return fmt.Sprintf("rules: invalid condition: %s", e.Shape)
}

func newDSLError(format string, args ...interface{}) *DSLError {
	return &DSLError{Shape: fmt.Sprintf(format, args...)}
}

// IsInvalidDSL reports whether err is (or wraps) a DSLError.
func IsInvalidDSL(err error) bool {
	var dslErr *DSLError
	return errors.As(err, &dslErr)
}
