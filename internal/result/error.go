// Package result models the outcome of an operation that can fail for expected,
// business-level reasons. Failures are values carried by Result and Of[T];
// only contract violations (invalid construction, reading the value of a failed
// result) panic.
package result

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ErrContract is wrapped by every panic raised for a misuse of this package.
var ErrContract = errors.New("result: contract violation")

// Fault is implemented by every error variant a failed result can carry.
type Fault interface {
	error
	// Base returns the code and description shared by all variants.
	Base() Error
	// Equal reports structural equality, including nested errors.
	Equal(other Fault) bool
}

// Error is a code and a human readable description. Callers tell kinds of
// failure apart by Code.
type Error struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// None is the absence of an error.
var None = Error{}

// NewError returns an Error with the given code and description.
func NewError(code, description string) Error {
	return Error{Code: code, Description: description}
}

func (e Error) Error() string {
	if e.Description == "" {
		return e.Code
	}
	return e.Code + ": " + e.Description
}

// Base returns e.
func (e Error) Base() Error { return e }

// IsNone reports whether e is the None sentinel.
func (e Error) IsNone() bool { return e == None }

// Equal reports whether other is an Error with the same code and description.
func (e Error) Equal(other Fault) bool {
	o, ok := other.(Error)
	return ok && o == e
}

// AggregateError carries an ordered list of nested errors.
type AggregateError struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Errors      []Error `json:"errors"`
}

// NewAggregateError copies errs into a new AggregateError.
func NewAggregateError(code, description string, errs ...Error) AggregateError {
	return AggregateError{Code: code, Description: description, Errors: slices.Clone(errs)}
}

func (e AggregateError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%s [%s]", e.Base().Error(), strings.Join(parts, "; "))
}

func (e AggregateError) Base() Error { return NewError(e.Code, e.Description) }

// Equal also compares the nested errors element by element.
func (e AggregateError) Equal(other Fault) bool {
	o, ok := other.(AggregateError)
	return ok && o.Base() == e.Base() && slices.Equal(o.Errors, e.Errors)
}

// Contains reports whether one of the nested errors has the given code.
func (e AggregateError) Contains(code string) bool {
	return slices.ContainsFunc(e.Errors, func(err Error) bool { return err.Code == code })
}

// ValidationError groups messages by field name.
type ValidationError struct {
	Code        string              `json:"code"`
	Description string              `json:"description"`
	Errors      map[string][]string `json:"errors"`
}

// NewValidationError copies fields into a new ValidationError.
func NewValidationError(code, description string, fields map[string][]string) ValidationError {
	errs := make(map[string][]string, len(fields))
	for k, v := range fields {
		errs[k] = slices.Clone(v)
	}
	return ValidationError{Code: code, Description: description, Errors: errs}
}

func (e ValidationError) Error() string {
	keys := e.Fields()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + strings.Join(e.Errors[k], ", ")
	}
	return fmt.Sprintf("%s [%s]", e.Base().Error(), strings.Join(parts, "; "))
}

func (e ValidationError) Base() Error { return NewError(e.Code, e.Description) }

// Equal also compares field names and their message sequences.
func (e ValidationError) Equal(other Fault) bool {
	o, ok := other.(ValidationError)
	return ok && o.Base() == e.Base() && maps.EqualFunc(o.Errors, e.Errors, slices.Equal[[]string])
}

// Fields returns the field names in sorted order.
func (e ValidationError) Fields() []string {
	return slices.Sorted(maps.Keys(e.Errors))
}

// UnexpectedCode is the code of faults created by Unexpected.
const UnexpectedCode = "Unexpected"

// UnexpectedError wraps an infrastructure error that is not a business failure.
// The cause is kept for logging and never rendered to clients.
type UnexpectedError struct {
	Cause error
}

// Unexpected wraps err so it can travel through a Result.
func Unexpected(err error) Fault {
	if err == nil {
		panic(fmt.Errorf("%w: unexpected error is nil", ErrContract))
	}
	return UnexpectedError{Cause: err}
}

func (e UnexpectedError) Error() string { return e.Base().Error() + ": " + e.Cause.Error() }

func (e UnexpectedError) Unwrap() error { return e.Cause }

func (e UnexpectedError) Base() Error {
	return NewError(UnexpectedCode, "an unexpected error occurred")
}

func (e UnexpectedError) Equal(other Fault) bool {
	o, ok := other.(UnexpectedError)
	return ok && errors.Is(o.Cause, e.Cause)
}
