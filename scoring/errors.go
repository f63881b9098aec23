/*
errors.go - Centralized error types for the scoring engine

PURPOSE:
  All error types in one place. The taxonomy is deliberately small and
  every member is terminal for the operation that raised it: nothing is
  retried internally and nothing is downgraded to a default.

ERROR CATEGORIES:
  1. ValidationError   - Malformed delivery (extras table), rejected
                         before it touches the ledger
  2. SequenceViolation - Well-formed delivery that is illegal given
                         fold-time context (wrong bowler, innings over)
  3. ErrDeliveryNotFound / ErrMatchCompleted - Correction failures

USAGE:
  Callers classify with errors.Is/errors.As:

    if errors.Is(err, scoring.ErrSequenceViolation) { ... }

SEE ALSO:
  - ledger.go: Raises ValidationError
  - reducer.go: Raises SequenceViolation
  - correction.go: Raises the correction errors
*/
package scoring

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all extras-table violations.
	ErrValidation = errors.New("invalid delivery")

	// ErrSequenceViolation is the root of all fold-time rejections. The
	// delivery is well-formed but illegal in context; the reducer is the
	// authority that rejects it rather than silently skipping it.
	ErrSequenceViolation = errors.New("sequence violation")

	// ErrDeliveryNotFound is returned when a correction or undo names a
	// delivery id that does not exist in the ledger.
	ErrDeliveryNotFound = errors.New("delivery not found")

	// ErrMatchCompleted is returned when a mutation is attempted on a
	// finished match. Corrections are only valid while the match is live.
	ErrMatchCompleted = errors.New("match already completed")

	// ErrEmptyLedger is returned by undo when there is nothing to remove.
	ErrEmptyLedger = errors.New("ledger is empty")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports an extras-table violation on a single delivery.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid delivery: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// SequenceError reports a fold-time rejection with the position at which
// the fold failed.
type SequenceError struct {
	DeliveryID DeliveryID
	Inning     int
	Reason     string
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("sequence violation at delivery %s (innings %d): %s",
		e.DeliveryID, e.Inning, e.Reason)
}

func (e *SequenceError) Unwrap() error { return ErrSequenceViolation }

// InvalidEditError wraps the validation failure of an edited delivery so
// correction callers can distinguish it from an edit to a missing id.
type InvalidEditError struct {
	DeliveryID DeliveryID
	Cause      error
}

func (e *InvalidEditError) Error() string {
	return fmt.Sprintf("invalid edit to delivery %s: %v", e.DeliveryID, e.Cause)
}

func (e *InvalidEditError) Unwrap() error { return e.Cause }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrEmptyLedger)
}

// IsConflict reports whether the error is a state conflict rather than a
// malformed input (wrong bowler, finished match).
func IsConflict(err error) bool {
	return errors.Is(err, ErrSequenceViolation) || errors.Is(err, ErrMatchCompleted)
}

// IsNotFound reports whether the error indicates a missing delivery.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDeliveryNotFound)
}
