// Package query turns offset/limit/sort/filter text parameters into a
// validated Params value and compiles it against a record type into a Plan
// that filters, orders and pages a sequence of records.
//
// Filter terms have the form property:op:value with op one of eq, ne, lt, le,
// gt, ge; sort terms have the form [-]field. All filter terms must match
// (logical AND) and sort terms compose into a stable multi-key ordering.
package query

import (
	"hash/fnv"
	"math"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/mvaleed/seedwork/internal/result"
)

// Params is an immutable, validated query specification. Build it with
// Create, FromRequest or FromValues.
type Params struct {
	offset int
	limit  int
	sort   []string
	filter []string
}

// Empty is the query that selects everything in natural order.
var Empty = Params{limit: math.MaxInt}

// Request is the capability of a request-like value that carries raw query
// parameters.
type Request interface {
	QueryOffset() int
	QueryLimit() int
	QuerySort() []string
	QueryFilter() []string
}

// RawRequest is a plain Request.
type RawRequest struct {
	Offset int      `json:"offset"`
	Limit  int      `json:"limit"`
	Sort   []string `json:"sort"`
	Filter []string `json:"filter"`
}

func (r RawRequest) QueryOffset() int      { return r.Offset }
func (r RawRequest) QueryLimit() int       { return r.Limit }
func (r RawRequest) QuerySort() []string   { return r.Sort }
func (r RawRequest) QueryFilter() []string { return r.Filter }

// Create validates its arguments and returns the resulting Params. Every
// check runs; all failures are reported together. Nil slices are treated as
// empty.
func Create(offset, limit int, sort, filter []string) result.Of[Params] {
	return create(offset, limit, sort, filter)
}

// FromRequest is Create over the fields of req. A nil request is a failure
// with ErrRequestRequired.
func FromRequest(req Request) result.Of[Params] {
	if req == nil || isNilPointer(req) {
		return result.FailureOf[Params](ErrRequestRequired)
	}
	return create(req.QueryOffset(), req.QueryLimit(), req.QuerySort(), req.QueryFilter())
}

// FromValues reads offset, limit, sort and filter from URL query values.
// Missing offset and limit fall back to the defaults of Empty. Sort accepts
// repeated and comma separated terms; filter only repeated terms, since a
// filter value may itself contain commas.
func FromValues(values url.Values) result.Of[Params] {
	offset, offsetOK := intValue(values, "offset", 0)
	limit, limitOK := intValue(values, "limit", math.MaxInt)

	var sort []string
	for _, v := range values["sort"] {
		for _, term := range strings.Split(v, ",") {
			if term = strings.TrimSpace(term); term != "" {
				sort = append(sort, term)
			}
		}
	}

	return create(offset, limit, sort, values["filter"],
		result.Ensure(func() bool { return offsetOK }, OffsetNotANumber(values.Get("offset"))),
		result.Ensure(func() bool { return limitOK }, LimitNotANumber(values.Get("limit"))),
	)
}

func create(offset, limit int, sort, filter []string, extra ...result.Validation) result.Of[Params] {
	checks := result.NewChecks().EnsureAll(extra...).
		Ensure(func() bool { return offset >= 0 }, ErrOffsetCannotBeNegative).
		Ensure(func() bool { return limit > 0 }, ErrLimitMustBePositive)
	for _, term := range sort {
		checks.Ensure(func() bool { return sortPattern.MatchString(term) }, SortInvalidPattern(term))
	}
	for _, term := range filter {
		checks.Ensure(func() bool { return filterPattern.MatchString(term) }, FilterInvalidPattern(term))
	}

	return result.CreateOf(checks, func() Params {
		return Params{
			offset: offset,
			limit:  limit,
			sort:   slices.Clone(sort),
			filter: slices.Clone(filter),
		}
	})
}

func intValue(values url.Values, key string, def int) (int, bool) {
	raw := values.Get(key)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def, false
	}
	return n, true
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

func (p Params) Offset() int { return p.offset }

func (p Params) Limit() int { return p.limit }

// Sort returns a copy of the sort terms.
func (p Params) Sort() []string { return slices.Clone(p.sort) }

// Filter returns a copy of the filter terms.
func (p Params) Filter() []string { return slices.Clone(p.filter) }

// WithMaxLimit returns p with its limit lowered to n when it exceeds it.
func (p Params) WithMaxLimit(n int) Params {
	if n > 0 && p.limit > n {
		p.limit = n
	}
	return p
}

// Equal compares offset, limit and the sort and filter terms in order.
func (p Params) Equal(other Params) bool {
	return p.offset == other.offset &&
		p.limit == other.limit &&
		slices.Equal(p.sort, other.sort) &&
		slices.Equal(p.filter, other.filter)
}

// Hash is consistent with Equal.
func (p Params) Hash() uint64 {
	h := fnv.New64a()
	h.Write(strconv.AppendInt(nil, int64(p.offset), 10))
	h.Write([]byte{0})
	h.Write(strconv.AppendInt(nil, int64(p.limit), 10))
	for _, s := range p.sort {
		h.Write([]byte{1})
		h.Write([]byte(s))
	}
	for _, s := range p.filter {
		h.Write([]byte{2})
		h.Write([]byte(s))
	}
	return h.Sum64()
}

func (p Params) String() string {
	var b strings.Builder
	b.WriteString("offset=")
	b.WriteString(strconv.Itoa(p.offset))
	b.WriteString(" limit=")
	b.WriteString(strconv.Itoa(p.limit))
	if len(p.sort) > 0 {
		b.WriteString(" sort=")
		b.WriteString(strings.Join(p.sort, ","))
	}
	for _, f := range p.filter {
		b.WriteString(" filter=")
		b.WriteString(f)
	}
	return b.String()
}
