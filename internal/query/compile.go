package query

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"

	"github.com/mvaleed/seedwork/internal/result"
)

// Condition is a compiled filter term, exposed so storage adapters can
// translate a plan into their own query language.
type Condition struct {
	// Property is the canonical member path.
	Property string
	// Column is the storage name of the member.
	Column   string
	Operator Operator
	// Value is the parsed filter value, of the member's unwrapped type.
	Value any
	// Nested is set when the member lives in a nested struct.
	Nested bool
}

// Order is a compiled sort term.
type Order struct {
	Field      string
	Column     string
	Descending bool
	Nested     bool
}

// Page is one window of a filtered and sorted sequence.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

type filter struct {
	op    Operator
	acc   Accessor
	want  reflect.Value
	equal func(a, b reflect.Value) bool
	cmp   compareFunc
}

type sortKey struct {
	acc  Accessor
	desc bool
	cmp  compareFunc
}

// Plan is Params compiled against the record type T. It is immutable and
// safe for concurrent use.
type Plan[T any] struct {
	offset     int
	limit      int
	filters    []filter
	sorts      []sortKey
	conditions []Condition
	ordering   []Order
}

type options struct {
	resolver Resolver
}

// Option configures compilation.
type Option func(*options)

// WithResolver replaces the default cached reflection resolver.
func WithResolver(r Resolver) Option {
	return func(o *options) {
		if r != nil {
			o.resolver = r
		}
	}
}

// Compile resolves every filter and sort term of p against T and parses the
// filter values. Unknown names and unparseable values are reported together
// as a failure. A filter on a member type that cannot be parsed panics with
// ErrUnsupported. The zero Params compiles like Empty.
func Compile[T any](p Params, opts ...Option) result.Of[Plan[T]] {
	o := options{resolver: defaultResolver()}
	for _, opt := range opts {
		opt(&o)
	}
	if p.limit <= 0 {
		p.limit = math.MaxInt
	}

	t := reflect.TypeFor[T]()
	plan := Plan[T]{offset: p.offset, limit: p.limit}
	checks := result.NewChecks()
	fail := func(err result.Error) { checks.Ensure(func() bool { return false }, err) }

	for _, term := range p.FilterTerms() {
		f, cond, err := compileFilter(o.resolver, t, term)
		if !err.IsNone() {
			fail(err)
			continue
		}
		plan.filters = append(plan.filters, f)
		plan.conditions = append(plan.conditions, cond)
	}
	for _, term := range p.SortTerms() {
		acc, ok := o.resolver.Resolve(t, term.Field)
		if !ok {
			fail(SortUnknownField(term.Field))
			continue
		}
		c, ok := comparerFor(acc.Type)
		if !ok {
			fail(SortNotOrderable(term.Field))
			continue
		}
		plan.sorts = append(plan.sorts, sortKey{acc: acc, desc: term.Descending, cmp: c})
		plan.ordering = append(plan.ordering, Order{
			Field:      acc.Path,
			Column:     acc.Column,
			Descending: term.Descending,
			Nested:     acc.Nested(),
		})
	}

	return result.CreateOf(checks, func() Plan[T] { return plan })
}

func compileFilter(r Resolver, t reflect.Type, term FilterTerm) (filter, Condition, result.Error) {
	switch term.Operator {
	case Eq, Ne, Lt, Le, Gt, Ge:
	default:
		panic(fmt.Errorf("%w: operator %q", ErrUnsupported, term.Operator))
	}

	acc, ok := r.Resolve(t, term.Property)
	if !ok {
		return filter{}, Condition{}, FilterUnknownProperty(term.Property)
	}
	parse, ok := parserFor(acc.Type)
	if !ok {
		panic(fmt.Errorf("%w: cannot filter %s by a value of type %s", ErrUnsupported, acc.Path, acc.Type))
	}
	want, err := parse(term.Value)
	if err != nil {
		return filter{}, Condition{}, FilterInvalidValue(term.Raw, err)
	}

	f := filter{op: term.Operator, acc: acc, want: want}
	f.equal, ok = equalFor(acc.Type)
	if !ok {
		panic(fmt.Errorf("%w: %s of type %s is not comparable", ErrUnsupported, acc.Path, acc.Type))
	}
	if term.Operator.Ordered() {
		if f.cmp, ok = comparerFor(acc.Type); !ok {
			return filter{}, Condition{}, FilterInvalidValue(term.Raw, errNotOrdered)
		}
	}

	cond := Condition{
		Property: acc.Path,
		Column:   acc.Column,
		Operator: term.Operator,
		Value:    want.Interface(),
		Nested:   acc.Nested(),
	}
	return f, cond, result.None
}

func (f filter) match(record reflect.Value) bool {
	v, ok := f.acc.Get(record)
	if !ok {
		// A missing value is distinct from every concrete value.
		return f.op == Ne
	}
	switch f.op {
	case Eq:
		return f.equal(v, f.want)
	case Ne:
		return !f.equal(v, f.want)
	case Lt:
		return f.cmp(v, f.want) < 0
	case Le:
		return f.cmp(v, f.want) <= 0
	case Gt:
		return f.cmp(v, f.want) > 0
	case Ge:
		return f.cmp(v, f.want) >= 0
	}
	panic(fmt.Errorf("%w: operator %q", ErrUnsupported, f.op))
}

// compare orders missing values before present ones, then flips the whole
// result for descending keys.
func (k sortKey) compare(a, b reflect.Value) int {
	av, aok := k.acc.Get(a)
	bv, bok := k.acc.Get(b)
	var c int
	switch {
	case !aok || !bok:
		c = cmp.Compare(presence(aok), presence(bok))
	default:
		c = k.cmp(av, bv)
	}
	if k.desc {
		return -c
	}
	return c
}

func presence(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

func (p Plan[T]) Offset() int { return p.offset }

func (p Plan[T]) Limit() int { return p.limit }

// Conditions returns the compiled filter terms in input order.
func (p Plan[T]) Conditions() []Condition { return slices.Clone(p.conditions) }

// Ordering returns the compiled sort terms, primary key first.
func (p Plan[T]) Ordering() []Order { return slices.Clone(p.ordering) }

// Unbounded reports whether the plan neither skips nor limits records.
func (p Plan[T]) Unbounded() bool { return p.offset == 0 && p.limit == math.MaxInt }

// Match reports whether item satisfies every filter term.
func (p Plan[T]) Match(item T) bool {
	rv := reflect.ValueOf(&item).Elem()
	for _, f := range p.filters {
		if !f.match(rv) {
			return false
		}
	}
	return true
}

// Apply filters, sorts and pages items. The input is never modified.
func (p Plan[T]) Apply(items []T) []T {
	return p.Page(items).Items
}

// Page is Apply that also reports how many items matched before paging.
func (p Plan[T]) Page(items []T) Page[T] {
	matched := make([]T, 0, len(items))
	for _, item := range items {
		if p.Match(item) {
			matched = append(matched, item)
		}
	}
	if len(p.sorts) > 0 {
		slices.SortStableFunc(matched, p.compare)
	}

	total := len(matched)
	start := min(p.offset, total)
	end := total
	if p.limit < total-start {
		end = start + p.limit
	}
	return Page[T]{
		Items:  slices.Clip(matched[start:end]),
		Total:  total,
		Offset: p.offset,
		Limit:  p.limit,
	}
}

func (p Plan[T]) compare(a, b T) int {
	av := reflect.ValueOf(&a).Elem()
	bv := reflect.ValueOf(&b).Elem()
	for _, k := range p.sorts {
		if c := k.compare(av, bv); c != 0 {
			return c
		}
	}
	return 0
}

// CreateFor is Create followed by name resolution against T, so unknown
// properties and fields are rejected when the query is created.
func CreateFor[T any](offset, limit int, sort, filter []string, opts ...Option) result.Of[Params] {
	return result.Bind(Create(offset, limit, sort, filter), func(p Params) result.Of[Params] {
		return result.Map(Compile[T](p, opts...), func(Plan[T]) Params { return p })
	})
}

// Apply compiles p against T and runs it over items.
func Apply[T any](items []T, p Params, opts ...Option) result.Of[[]T] {
	return result.Map(Compile[T](p, opts...), func(plan Plan[T]) []T { return plan.Apply(items) })
}
