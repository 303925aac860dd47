// Package errs defines the error kinds shared by the estimation, search and
// forecast packages.
//
// Callers match kinds with errors.Is against the exported sentinels:
//
//	if errors.Is(err, errs.ErrEstimationFailed) {
//	    // optimizer did not converge
//	}
package errs

import (
	"errors"
	"fmt"
)

// Kind is the category of an error.
type Kind string

const (
	KindDimensionMismatch Kind = "dimension_mismatch"
	KindEstimationFailed  Kind = "estimation_failed"
	KindInvalidOrder      Kind = "invalid_order"
	KindNonFinite         Kind = "non_finite"
	KindInsufficientData  Kind = "insufficient_data"
	// KindDegenerateBenchmark marks relative measures against a benchmark
	// that made no error.
	KindDegenerateBenchmark Kind = "degenerate_benchmark"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrDimensionMismatch   = &Error{Kind: KindDimensionMismatch, Msg: "dimension mismatch"}
	ErrEstimationFailed    = &Error{Kind: KindEstimationFailed, Msg: "estimation failed"}
	ErrInvalidOrder        = &Error{Kind: KindInvalidOrder, Msg: "invalid model order"}
	ErrNonFinite           = &Error{Kind: KindNonFinite, Msg: "non-finite value"}
	ErrInsufficientData    = &Error{Kind: KindInsufficientData, Msg: "insufficient data"}
	ErrDegenerateBenchmark = &Error{Kind: KindDegenerateBenchmark, Msg: "degenerate benchmark"}
)

// Error carries a kind, the operation that failed and an optional cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New creates an error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to an existing error.
func Wrap(err error, kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
