package query

import (
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// Accessor reads one member of a record. It is produced by a Resolver and is
// safe to share between goroutines.
type Accessor struct {
	// Path is the canonical Go field path, e.g. "Profile.City".
	Path string
	// Column is the storage name of the leaf field, from its db tag.
	Column string
	// Type is the type values are compared as, after unwrapping.
	Type reflect.Type
	// Nullable is set for pointer members.
	Nullable bool
	// Wrapped is set when the member is a single-value wrapper and Type is
	// the type of its underlying value.
	Wrapped bool

	steps  [][]int
	method int
}

// Nested reports whether the accessor descends into nested structs.
func (a Accessor) Nested() bool { return len(a.steps) > 1 }

// Get reads the member from record. ok is false when the member or a struct
// on the way to it is nil.
func (a Accessor) Get(record reflect.Value) (v reflect.Value, ok bool) {
	v = record
	for _, index := range a.steps {
		if v, ok = deref(v); !ok {
			return reflect.Value{}, false
		}
		f, err := v.FieldByIndexErr(index)
		if err != nil {
			return reflect.Value{}, false
		}
		v = f
	}
	if v, ok = deref(v); !ok {
		return reflect.Value{}, false
	}
	if a.Wrapped {
		v = v.Method(a.method).Call(nil)[0]
	}
	return v, true
}

func deref(v reflect.Value) (reflect.Value, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, true
}

// Resolver finds the accessor for a dotted member path of a record type.
// Lookups are case-insensitive.
type Resolver interface {
	Resolve(t reflect.Type, path string) (Accessor, bool)
}

// ReflectResolver resolves paths with reflection. It matches exported Go
// field names first and json tag names second, and sees the fields promoted
// from embedded structs. Fields tagged query:"-" are never resolved.
type ReflectResolver struct{}

func (ReflectResolver) Resolve(t reflect.Type, path string) (Accessor, bool) {
	var (
		acc   Accessor
		names []string
		leaf  reflect.StructField
	)
	cur := indirect(t)
	for _, seg := range strings.Split(path, ".") {
		if cur.Kind() != reflect.Struct {
			return Accessor{}, false
		}
		f, ok := findField(cur, seg)
		if !ok {
			return Accessor{}, false
		}
		acc.steps = append(acc.steps, f.Index)
		names = append(names, f.Name)
		leaf = f
		cur = indirect(f.Type)
	}

	ft := leaf.Type
	if ft.Kind() == reflect.Pointer {
		acc.Nullable = true
		ft = ft.Elem()
	}
	if m, ok := wrapperMethod(ft); ok {
		acc.Wrapped = true
		acc.method = m.Index
		ft = m.Type.Out(0)
	}
	acc.Type = ft
	acc.Path = strings.Join(names, ".")
	acc.Column = columnName(leaf)
	return acc, true
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// findField skips unexported fields and fields tagged query:"-".
func findField(t reflect.Type, name string) (reflect.StructField, bool) {
	fields := slices.DeleteFunc(reflect.VisibleFields(t), func(f reflect.StructField) bool {
		return !f.IsExported() || f.Anonymous || f.Tag.Get("query") == "-"
	})
	for _, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	for _, f := range fields {
		if strings.EqualFold(tagName(f.Tag.Get("json")), name) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// wrapperMethod reports whether t has a value-receiver method Value() R with
// a single result, the capability of primitive.Wrapper.
func wrapperMethod(t reflect.Type) (reflect.Method, bool) {
	m, ok := t.MethodByName("Value")
	if !ok || m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
		return reflect.Method{}, false
	}
	return m, true
}

func columnName(f reflect.StructField) string {
	if name := tagName(f.Tag.Get("db")); name != "" {
		return name
	}
	return strings.ToLower(f.Name)
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	return name
}

type cachedAccessor struct {
	acc Accessor
	ok  bool
}

// CachedResolver memoizes the lookups of another resolver in a bounded
// in-process cache.
type CachedResolver struct {
	next  Resolver
	cache *ristretto.Cache[string, cachedAccessor]
}

// NewCachedResolver caches up to maxEntries lookups of next.
func NewCachedResolver(next Resolver, maxEntries int64) (*CachedResolver, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, cachedAccessor]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		// Every entry costs 1 so MaxCost is an entry count.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &CachedResolver{next: next, cache: c}, nil
}

func (r *CachedResolver) Resolve(t reflect.Type, path string) (Accessor, bool) {
	key := t.PkgPath() + "." + t.String() + "#" + strings.ToLower(path)
	if hit, ok := r.cache.Get(key); ok {
		return hit.acc, hit.ok
	}
	acc, ok := r.next.Resolve(t, path)
	r.cache.Set(key, cachedAccessor{acc: acc, ok: ok}, 1)
	return acc, ok
}

// Close releases the cache.
func (r *CachedResolver) Close() {
	r.cache.Close()
}

var defaultResolver = sync.OnceValue(func() Resolver {
	r, err := NewCachedResolver(ReflectResolver{}, 4096)
	if err != nil {
		return ReflectResolver{}
	}
	return r
})
