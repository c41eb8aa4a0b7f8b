// Package errors defines the error taxonomy shared by every forust package.
//
// Errors are built with github.com/cockroachdb/errors so they carry a stack
// trace, and every error is marked with one of the sentinel kinds below.
// Callers classify failures with Is:
//
//	if errors.Is(err, errors.ErrShape) { ... }
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Error kinds. An error returned by this module matches at least one of them.
var (
	// ErrInvalidInput marks malformed shapes, out-of-range parameters and negative weights.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidObjective marks an unrecognized loss kind.
	ErrInvalidObjective = errors.New("invalid objective")
	// ErrFit marks a training-time contract violation.
	ErrFit = errors.New("fit error")
	// ErrShape marks a prediction matrix that does not match the fitted ensemble.
	ErrShape = errors.New("shape error")
	// ErrNotFitted is returned when a booster is used before it was fitted.
	ErrNotFitted = errors.New("booster is not fitted")
)

// InvalidInputf returns a new error of kind ErrInvalidInput.
func InvalidInputf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrInvalidInput)
}

// InvalidObjectivef returns a new error of kind ErrInvalidObjective.
func InvalidObjectivef(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrInvalidObjective)
}

// Fitf returns a new error of kind ErrFit.
func Fitf(format string, args ...interface{}) error {
	return errors.Mark(errors.NewWithDepthf(1, format, args...), ErrFit)
}

// WrapFit wraps err with a message and marks it as ErrFit. The kinds of err are kept.
func WrapFit(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.WrapWithDepth(1, err, msg), ErrFit)
}

// NotFitted returns ErrNotFitted annotated with the operation that needed a fitted model.
func NotFitted(op string) error {
	return errors.Mark(errors.NewWithDepthf(1, "%s: booster is not fitted, call Fit first", op), ErrNotFitted)
}

// DimensionError reports a shape mismatch along one axis.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("%s: dimension mismatch on axis %d (%s): expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds the mismatch details to a log event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis)
}

// NewDimensionError returns a *DimensionError with a stack trace, marked with kind.
func NewDimensionError(kind error, op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.Mark(errors.WithStackDepth(err, 1), kind)
}

// NonFiniteError reports a NaN or infinite value found at flat position Index.
type NonFiniteError struct {
	Op    string
	Index int
	Value float64
}

func (e *NonFiniteError) Error() string {
	return fmt.Sprintf("%s: non-finite value %v at index %d", e.Op, e.Value, e.Index)
}

// MarshalZerologObject adds the offending position to a log event.
func (e *NonFiniteError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("index", e.Index).
		Float64("value", e.Value)
}

// NewNonFiniteError returns a *NonFiniteError with a stack trace, marked with kind.
func NewNonFiniteError(kind error, op string, index int, value float64) error {
	err := &NonFiniteError{Op: op, Index: index, Value: value}
	return errors.Mark(errors.WithStackDepth(err, 1), kind)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrapf wraps err with a formatted message, keeping its kinds.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.WrapWithDepthf(1, err, format, args...)
}
