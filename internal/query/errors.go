package query

import (
	"errors"
	"fmt"

	"github.com/mvaleed/seedwork/internal/result"
)

// ErrUnsupported is wrapped by panics for operators or member types the
// compiler cannot handle. Validated input never reaches them.
var ErrUnsupported = errors.New("query: not supported")

// Error codes reported by this package.
const (
	CodeRequestRequired        = "Query.RequestRequired"
	CodeOffsetCannotBeNegative = "Query.OffsetCannotBeNegative"
	CodeLimitMustBePositive    = "Query.LimitMustBePositive"
	CodeOffsetNotANumber       = "Query.OffsetNotANumber"
	CodeLimitNotANumber        = "Query.LimitNotANumber"
	CodeSortInvalidPattern     = "Query.SortInvalidPattern"
	CodeFilterInvalidPattern   = "Query.FilterInvalidPattern"
	CodeSortUnknownField       = "Query.SortUnknownField"
	CodeFilterUnknownProperty  = "Query.FilterUnknownProperty"
	CodeFilterInvalidValue     = "Query.FilterInvalidValue"
	CodeSortNotOrderable       = "Query.SortNotOrderable"
)

var (
	ErrRequestRequired        = result.NewError(CodeRequestRequired, "a query request is required")
	ErrOffsetCannotBeNegative = result.NewError(CodeOffsetCannotBeNegative, "offset cannot be negative")
	ErrLimitMustBePositive    = result.NewError(CodeLimitMustBePositive, "limit must be greater than zero")
)

func OffsetNotANumber(raw string) result.Error {
	return result.NewError(CodeOffsetNotANumber, fmt.Sprintf("offset %q is not a number", raw))
}

func LimitNotANumber(raw string) result.Error {
	return result.NewError(CodeLimitNotANumber, fmt.Sprintf("limit %q is not a number", raw))
}

// SortInvalidPattern reports a sort term that is not [-]field.
func SortInvalidPattern(term string) result.Error {
	return result.NewError(CodeSortInvalidPattern, fmt.Sprintf("sort %q must match [-]field", term))
}

// FilterInvalidPattern reports a filter term that is not property:op:value.
func FilterInvalidPattern(term string) result.Error {
	return result.NewError(CodeFilterInvalidPattern,
		fmt.Sprintf("filter %q must match property:(eq|ne|lt|le|gt|ge):value", term))
}

func SortUnknownField(field string) result.Error {
	return result.NewError(CodeSortUnknownField, fmt.Sprintf("cannot sort by unknown field %q", field))
}

func FilterUnknownProperty(property string) result.Error {
	return result.NewError(CodeFilterUnknownProperty, fmt.Sprintf("cannot filter by unknown property %q", property))
}

func FilterInvalidValue(term string, reason error) result.Error {
	return result.NewError(CodeFilterInvalidValue, fmt.Sprintf("filter %q has an invalid value: %v", term, reason))
}

func SortNotOrderable(field string) result.Error {
	return result.NewError(CodeSortNotOrderable, fmt.Sprintf("field %q has no ordering", field))
}
