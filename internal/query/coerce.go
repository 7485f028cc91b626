package query

import (
	"cmp"
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType        = reflect.TypeFor[time.Duration]()
	timeType            = reflect.TypeFor[time.Time]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// timeLayouts are tried in order when a filter targets a time.Time member.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	time.TimeOnly,
}

type parser func(raw string) (reflect.Value, error)

type compareFunc func(a, b reflect.Value) int

// parserFor returns the function that reads filter values into t. ok is false
// for types filters cannot target. Surrounding whitespace is ignored for
// every type except strings, which match verbatim.
func parserFor(t reflect.Type) (parser, bool) {
	p, ok := valueParser(t)
	if !ok || t.Kind() == reflect.String {
		return p, ok
	}
	return func(raw string) (reflect.Value, error) {
		return p(strings.TrimSpace(raw))
	}, true
}

func valueParser(t reflect.Type) (parser, bool) {
	switch {
	case t == durationType:
		return func(raw string) (reflect.Value, error) {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(d).Convert(t), nil
		}, true
	case t == timeType:
		return parseTime, true
	case reflect.PointerTo(t).Implements(textUnmarshalerType):
		return func(raw string) (reflect.Value, error) {
			v := reflect.New(t)
			if err := v.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw)); err != nil {
				return reflect.Value{}, err
			}
			return v.Elem(), nil
		}, true
	}

	switch t.Kind() {
	case reflect.String:
		return func(raw string) (reflect.Value, error) {
			return reflect.ValueOf(raw).Convert(t), nil
		}, true
	case reflect.Bool:
		return func(raw string) (reflect.Value, error) {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetBool(b)
			return v, nil
		}, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseInt(raw, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetInt(n)
			return v, nil
		}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return func(raw string) (reflect.Value, error) {
			n, err := strconv.ParseUint(raw, 10, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetUint(n)
			return v, nil
		}, true
	case reflect.Float32, reflect.Float64:
		return func(raw string) (reflect.Value, error) {
			f, err := strconv.ParseFloat(raw, t.Bits())
			if err != nil {
				return reflect.Value{}, err
			}
			v := reflect.New(t).Elem()
			v.SetFloat(f)
			return v, nil
		}, true
	}
	return nil, false
}

func parseTime(raw string) (reflect.Value, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return reflect.ValueOf(t), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("%q is not a RFC 3339 timestamp, date or time of day", raw)
}

// comparerFor returns a three-way comparison over values of t. ok is false
// when t has no ordering; such members support only eq and ne.
func comparerFor(t reflect.Type) (compareFunc, bool) {
	if t == timeType {
		return func(a, b reflect.Value) int {
			return a.Interface().(time.Time).Compare(b.Interface().(time.Time))
		}, true
	}
	if c, ok := compareMethod(t, "Compare"); ok {
		return c, true
	}
	if c, ok := compareMethod(t, "Cmp"); ok {
		return c, true
	}

	switch t.Kind() {
	case reflect.String:
		return func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) }, true
	case reflect.Bool:
		return func(a, b reflect.Value) int { return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool())) }, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) }, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) }, true
	case reflect.Float32, reflect.Float64:
		return func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) }, true
	case reflect.Array:
		elem, ok := comparerFor(t.Elem())
		if !ok {
			return nil, false
		}
		return func(a, b reflect.Value) int {
			for i := range a.Len() {
				if c := elem(a.Index(i), b.Index(i)); c != 0 {
					return c
				}
			}
			return 0
		}, true
	}
	return nil, false
}

// compareMethod finds a value-receiver method name(T) int on t.
func compareMethod(t reflect.Type, name string) (compareFunc, bool) {
	m, ok := t.MethodByName(name)
	if !ok {
		return nil, false
	}
	mt := m.Type
	if mt.NumIn() != 2 || mt.In(1) != t || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Int {
		return nil, false
	}
	index := m.Index
	return func(a, b reflect.Value) int {
		return int(a.Method(index).Call([]reflect.Value{b})[0].Int())
	}, true
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// equalFor returns the equality used by eq and ne. Ordered types compare
// equal when their comparison is zero, so 1.0 and 1.00 decimals match.
func equalFor(t reflect.Type) (func(a, b reflect.Value) bool, bool) {
	if c, ok := comparerFor(t); ok {
		return func(a, b reflect.Value) bool { return c(a, b) == 0 }, true
	}
	if t.Comparable() {
		return func(a, b reflect.Value) bool { return a.Equal(b) }, true
	}
	return nil, false
}

var errNotOrdered = errors.New("value type has no ordering")
