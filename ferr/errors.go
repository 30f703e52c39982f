// Package ferr defines the structured fatal-error kinds used throughout the
// tensor and effective-Hamiltonian core. The original EXP-T engine calls
// errquit() and aborts the process on any of these conditions; here they are
// ordinary Go errors so a caller can choose whether to abort or unwind, per
// the design notes in SPEC_FULL.md.
package ferr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a fatal condition as described in spec.md §7.
type Kind int

const (
	// Config marks a malformed call: bad signatures, unknown diagram name,
	// incompatible ranks.
	Config Kind = iota
	// Invariant marks an internal consistency failure: inconsistent
	// uniqueness tags, a missing expected block. Indicates a bug in the
	// core, not in the caller.
	Invariant
	// IO marks an open/read/write/magic-mismatch failure.
	IO
	// Numeric marks a failed numerical procedure: an eigenvalue iteration
	// that did not converge, a singular overlap, a degenerate recovery.
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "config"
	case Invariant:
		return "invariant"
	case IO:
		return "io"
	case Numeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Error is a structured fatal error. Op names the offending call
// ("dpd.Mult", "heff.Diagonalize", ...), Diagram (when relevant) names the
// offending diagram, and Arg carries the offending argument or value.
type Error struct {
	Kind    Kind
	Op      string
	Diagram string
	Arg     interface{}
	cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	if e.Diagram != "" {
		msg += fmt.Sprintf(" (diagram %q)", e.Diagram)
	}
	if e.Arg != nil {
		msg += fmt.Sprintf(": %v", e.Arg)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// NewConfig builds a Config-kind error identifying the offending call.
func NewConfig(op string, arg interface{}) *Error {
	return &Error{Kind: Config, Op: op, Arg: arg, cause: errors.New("configuration error")}
}

// NewInvariant builds an Invariant-kind error identifying the offending
// diagram.
func NewInvariant(op, diagram string, arg interface{}) *Error {
	return &Error{Kind: Invariant, Op: op, Diagram: diagram, Arg: arg, cause: errors.New("invariant violation")}
}

// NewIO wraps an I/O failure (open/read/write/magic mismatch) with the
// offending operation, preserving the original error via Unwrap.
func NewIO(op string, cause error) *Error {
	return &Error{Kind: IO, Op: op, cause: errors.WithStack(cause)}
}

// IsNotExist reports whether err is an IO-kind error wrapping a
// file-not-found condition — the one IO failure that spec.md §7 treats as a
// soft fall-through (reuse-of-precomputed-amplitudes) rather than fatal.
func IsNotExist(err error) bool {
	var fe *Error
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Kind == IO && errors.Is(fe.cause, errNotExistSentinel)
}

var errNotExistSentinel = errors.New("file does not exist")

// NewIONotExist builds the soft-fallthrough variant of an IO error.
func NewIONotExist(op string, cause error) *Error {
	return &Error{Kind: IO, Op: op, cause: errors.Wrap(errNotExistSentinel, cause.Error())}
}

// NewNumeric builds a Numeric-kind error identifying the offending call.
func NewNumeric(op string, arg interface{}) *Error {
	return &Error{Kind: Numeric, Op: op, Arg: arg, cause: errors.New("numerical procedure failed")}
}
