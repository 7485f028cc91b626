package result

import (
	"fmt"
	"reflect"
)

// Result is the outcome of an operation without a payload. A successful
// result carries None, a failed one carries a Fault whose base is not None.
type Result struct {
	fault Fault
}

// Success returns a successful Result.
func Success() Result {
	return Result{}
}

// Failure returns a failed Result carrying f. It panics if f is nil or its
// base error is None.
func Failure(f Fault) Result {
	if f == nil || f.Base().IsNone() {
		panic(fmt.Errorf("%w: a failed result requires an error", ErrContract))
	}
	return Result{fault: f}
}

// From builds a Result from a flag and a fault, enforcing that success goes
// with a nil or None fault and failure with a real one.
func From(isSuccess bool, f Fault) Result {
	none := f == nil || f.Base().IsNone()
	switch {
	case isSuccess && !none:
		panic(fmt.Errorf("%w: a successful result cannot carry an error", ErrContract))
	case !isSuccess && none:
		panic(fmt.Errorf("%w: a failed result requires an error", ErrContract))
	case isSuccess:
		return Success()
	}
	return Result{fault: f}
}

func (r Result) IsSuccess() bool { return r.fault == nil }

func (r Result) IsFailure() bool { return r.fault != nil }

// Error returns the fault of a failed result, or None on success.
func (r Result) Error() Fault {
	if r.fault == nil {
		return None
	}
	return r.fault
}

// Code is shorthand for r.Error().Base().Code.
func (r Result) Code() string {
	return r.Error().Base().Code
}

func (r Result) String() string {
	if r.IsSuccess() {
		return "Success"
	}
	return "Failure(" + r.fault.Error() + ")"
}

// Of is the outcome of an operation that yields a T on success.
type Of[T any] struct {
	Result
	value T
}

// SuccessOf returns a successful result holding v. It panics if v is a nil
// pointer, map, slice, channel, function or interface.
func SuccessOf[T any](v T) Of[T] {
	if isNil(v) {
		panic(fmt.Errorf("%w: a successful result requires a value", ErrContract))
	}
	return Of[T]{value: v}
}

// FailureOf returns a failed result carrying f.
func FailureOf[T any](f Fault) Of[T] {
	return Of[T]{Result: Failure(f)}
}

// Value returns the payload. It panics when r is a failure.
func (r Of[T]) Value() T {
	if r.IsFailure() {
		panic(fmt.Errorf("%w: cannot access the value of a failed result", ErrContract))
	}
	return r.value
}

// ValueOr returns the payload, or def when r is a failure.
func (r Of[T]) ValueOr(def T) T {
	if r.IsFailure() {
		return def
	}
	return r.value
}

// Get returns the payload and the fault in the usual Go shape. The fault is
// nil on success.
func (r Of[T]) Get() (T, Fault) {
	if r.IsFailure() {
		var zero T
		return zero, r.fault
	}
	return r.value, nil
}

// Void drops the payload.
func (r Of[T]) Void() Result {
	return r.Result
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
