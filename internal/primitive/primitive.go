// Package primitive provides single-value wrapper types, most notably
// strongly-typed identifiers.
//
// A wrapper exposes its underlying value through Value. The query package
// relies on that capability to filter and sort on the raw value of a wrapped
// field.
package primitive

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/result"
)

// Wrapper is implemented by types that wrap exactly one underlying value.
type Wrapper[T any] interface {
	Value() T
}

// InvalidIDCode is reported when text does not parse as an identifier.
const InvalidIDCode = "Id.Invalid"

// ID is a UUID-backed identifier. The Tag parameter only distinguishes
// identifier kinds at compile time, so a user ID cannot be passed where a
// role ID is expected.
type ID[Tag any] struct {
	value uuid.UUID
}

// NewID returns a fresh random identifier.
func NewID[Tag any]() ID[Tag] {
	return ID[Tag]{value: uuid.New()}
}

// IDFrom wraps an existing UUID.
func IDFrom[Tag any](v uuid.UUID) ID[Tag] {
	return ID[Tag]{value: v}
}

// ParseID parses s, failing with InvalidIDCode on malformed input.
func ParseID[Tag any](s string) result.Of[ID[Tag]] {
	v, err := uuid.Parse(s)
	if err != nil {
		return result.FailureOf[ID[Tag]](result.NewError(InvalidIDCode, fmt.Sprintf("%q is not a valid identifier", s)))
	}
	return result.SuccessOf(ID[Tag]{value: v})
}

// MustParseID is like ParseID but panics on malformed input. Meant for
// constants and tests.
func MustParseID[Tag any](s string) ID[Tag] {
	return ParseID[Tag](s).Value()
}

func (id ID[Tag]) Value() uuid.UUID { return id.value }

func (id ID[Tag]) String() string { return id.value.String() }

func (id ID[Tag]) IsZero() bool { return id.value == uuid.Nil }

func (id ID[Tag]) MarshalText() ([]byte, error) {
	return id.value.MarshalText()
}

func (id *ID[Tag]) UnmarshalText(b []byte) error {
	return id.value.UnmarshalText(b)
}
