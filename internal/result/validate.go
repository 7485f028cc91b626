package result

import "fmt"

// ValidateCode is the code of the aggregate produced by Validate.
const ValidateCode = "Result.Validate"

// Validation is a deferred check bound to the error reported when it fails.
type Validation struct {
	Valid func() bool
	Err   Error
}

// Ensure returns a Validation.
func Ensure(valid func() bool, err Error) Validation {
	return Validation{Valid: valid, Err: err}
}

// Validate evaluates every validation, in order and without stopping at the
// first failure. It succeeds when none failed and otherwise fails with an
// AggregateError listing the failing errors in input order.
func Validate(first Validation, more ...Validation) Result {
	failed := collect(append([]Validation{first}, more...))
	if len(failed) == 0 {
		return Success()
	}
	return Failure(NewAggregateError(ValidateCode, describe(len(failed)), failed...))
}

func collect(validations []Validation) []Error {
	var failed []Error
	for _, v := range validations {
		if v.Valid == nil {
			panic(fmt.Errorf("%w: validation %q has no predicate", ErrContract, v.Err.Code))
		}
		if !v.Valid() {
			failed = append(failed, v.Err)
		}
	}
	return failed
}

func describe(n int) string {
	if n == 1 {
		return "1 validation failed"
	}
	return fmt.Sprintf("%d validations failed", n)
}

// Checks accumulates validations and evaluates them all at once. The zero
// value is ready to use.
type Checks struct {
	validations []Validation
}

// NewChecks starts a chain of checks.
func NewChecks() *Checks {
	return &Checks{}
}

// Ensure adds a check and returns c for chaining.
func (c *Checks) Ensure(valid func() bool, err Error) *Checks {
	c.validations = append(c.validations, Ensure(valid, err))
	return c
}

// EnsureAll adds several checks.
func (c *Checks) EnsureAll(validations ...Validation) *Checks {
	c.validations = append(c.validations, validations...)
	return c
}

// Len returns the number of accumulated checks.
func (c *Checks) Len() int { return len(c.validations) }

// Result evaluates every accumulated check.
func (c *Checks) Result() Result {
	if len(c.validations) == 0 {
		return Success()
	}
	return Validate(c.validations[0], c.validations[1:]...)
}

// CreateOf evaluates checks and calls build only when all of them passed.
func CreateOf[T any](c *Checks, build func() T) Of[T] {
	return OnSuccessOf(c.Result(), func() Of[T] { return SuccessOf(build()) })
}
