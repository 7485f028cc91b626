package result

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
)

var (
	errA = NewError("A", "first")
	errB = NewError("B", "second")
)

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, ErrContract) {
			t.Fatalf("expected ErrContract panic, got %v", r)
		}
	}()
	fn()
}

func TestFailureCarriesError(t *testing.T) {
	for _, f := range []Fault{
		errA,
		NewAggregateError("Agg", "agg", errA, errB),
		NewValidationError("Val", "val", map[string][]string{"name": {"required"}}),
	} {
		r := Failure(f)
		if !r.IsFailure() || r.IsSuccess() {
			t.Errorf("%v: expected failure", f)
		}
		if !r.Error().Equal(f) {
			t.Errorf("expected %v, got %v", f, r.Error())
		}
	}
}

func TestSuccess(t *testing.T) {
	r := Success()
	if !r.IsSuccess() {
		t.Fatal("expected success")
	}
	if r.Error() != Fault(None) {
		t.Errorf("expected None, got %v", r.Error())
	}
	if r.Code() != "" {
		t.Errorf("expected empty code, got %q", r.Code())
	}
}

func TestSuccessOf(t *testing.T) {
	v := 42
	r := SuccessOf(&v)
	if !r.IsSuccess() {
		t.Fatal("expected success")
	}
	if r.Value() != &v {
		t.Error("expected same pointer back")
	}
	if got := SuccessOf("x").Value(); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
}

func TestContractViolations(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"failure with none", func() { Failure(None) }},
		{"failure with nil", func() { Failure(nil) }},
		{"from success with error", func() { From(true, errA) }},
		{"from failure without error", func() { From(false, None) }},
		{"success with nil pointer", func() { SuccessOf[*int](nil) }},
		{"success with nil slice", func() { SuccessOf[[]int](nil) }},
		{"value of failure", func() { FailureOf[int](errA).Value() }},
		{"unexpected nil", func() { Unexpected(nil) }},
		{"validation without predicate", func() { Validate(Validation{Err: errA}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) { mustPanic(t, tt.fn) })
	}
}

func TestFrom(t *testing.T) {
	if !From(true, nil).IsSuccess() || !From(true, None).IsSuccess() {
		t.Error("expected success")
	}
	if r := From(false, errA); !r.IsFailure() || r.Code() != "A" {
		t.Errorf("expected failure A, got %v", r)
	}
}

func TestValueOrAndGet(t *testing.T) {
	if got := FailureOf[int](errA).ValueOr(7); got != 7 {
		t.Errorf("expected default, got %d", got)
	}
	v, f := SuccessOf(3).Get()
	if v != 3 || f != nil {
		t.Errorf("expected (3, nil), got (%d, %v)", v, f)
	}
	_, f = FailureOf[int](errB).Get()
	if f == nil || f.Base() != errB {
		t.Errorf("expected B, got %v", f)
	}
}

func TestErrorEquality(t *testing.T) {
	if !errA.Equal(NewError("A", "first")) {
		t.Error("expected structural equality")
	}
	if errA.Equal(errB) {
		t.Error("expected inequality")
	}

	agg := NewAggregateError("X", "x", errA, errB)
	if !agg.Equal(NewAggregateError("X", "x", errA, errB)) {
		t.Error("expected aggregate equality")
	}
	if agg.Equal(NewAggregateError("X", "x", errB, errA)) {
		t.Error("aggregate equality must be order sensitive")
	}
	if agg.Equal(NewError("X", "x")) {
		t.Error("aggregate must not equal its base")
	}

	val := NewValidationError("V", "v", map[string][]string{"a": {"1", "2"}})
	if !val.Equal(NewValidationError("V", "v", map[string][]string{"a": {"1", "2"}})) {
		t.Error("expected validation equality")
	}
	if val.Equal(NewValidationError("V", "v", map[string][]string{"a": {"2", "1"}})) {
		t.Error("validation messages must be order sensitive")
	}
}

func TestUnexpectedUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	f := Unexpected(cause)
	if f.Base().Code != UnexpectedCode {
		t.Errorf("expected %s, got %s", UnexpectedCode, f.Base().Code)
	}
	if !errors.Is(f, cause) {
		t.Error("expected cause to be reachable through errors.Is")
	}
}

func TestOnSuccessShortCircuits(t *testing.T) {
	called := false
	r := OnSuccess(Failure(errA), func() Result {
		called = true
		return Success()
	})
	if called {
		t.Error("continuation must not run on failure")
	}
	if !r.Error().Equal(errA) {
		t.Errorf("expected original error, got %v", r.Error())
	}

	r = OnSuccess(Success(), func() Result { return Failure(errB) })
	if !r.Error().Equal(errB) {
		t.Errorf("expected continuation result, got %v", r)
	}
}

func TestBindAndMap(t *testing.T) {
	double := func(v int) Of[int] { return SuccessOf(v * 2) }
	if got := Bind(SuccessOf(2), double).Value(); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
	if r := Bind(FailureOf[int](errA), double); r.Code() != "A" {
		t.Errorf("expected A, got %v", r)
	}
	s := Map(SuccessOf(5), func(v int) string { return fmt.Sprint(v) })
	if s.Value() != "5" {
		t.Errorf("expected \"5\", got %q", s.Value())
	}
	if r := Then(SuccessOf(1), func(int) Result { return Failure(errB) }); r.Code() != "B" {
		t.Errorf("expected B, got %v", r)
	}
	if r := OnSuccessOf(Failure(errA), func() Of[int] { return SuccessOf(1) }); r.Code() != "A" {
		t.Errorf("expected A, got %v", r)
	}
}

func TestOnFailure(t *testing.T) {
	r := OnFailure(Failure(errA), func(f Fault) Result {
		if f.Base() != errA {
			t.Errorf("expected A, got %v", f)
		}
		return Success()
	})
	if !r.IsSuccess() {
		t.Error("expected recovery to success")
	}

	called := false
	OnFailure(Success(), func(Fault) Result { called = true; return Success() })
	if called {
		t.Error("continuation must not run on success")
	}

	recovered := OnFailureOf(FailureOf[int](errA), func(Fault) Of[int] { return SuccessOf(9) })
	if recovered.Value() != 9 {
		t.Errorf("expected 9, got %d", recovered.Value())
	}
}

func TestMatchRunsOneBranch(t *testing.T) {
	var branches []string
	onOK := func() string { branches = append(branches, "ok"); return "ok" }
	onErr := func(f Fault) string { branches = append(branches, "err"); return f.Base().Code }

	if got := Match(Success(), onOK, onErr); got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}
	if got := Match(Failure(errB), onOK, onErr); got != "B" {
		t.Errorf("expected B, got %q", got)
	}
	if !slices.Equal(branches, []string{"ok", "err"}) {
		t.Errorf("unexpected branches %v", branches)
	}

	got := MatchOf(SuccessOf(2), func(v int) int { return v + 1 }, func(Fault) int { return -1 })
	if got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestValidateCollectsAllFailures(t *testing.T) {
	var evaluated []string
	check := func(name string, ok bool) func() bool {
		return func() bool {
			evaluated = append(evaluated, name)
			return ok
		}
	}
	e1 := NewError("E1", "one")
	e3 := NewError("E3", "three")

	r := Validate(
		Ensure(check("v1", false), e1),
		Ensure(check("v2", true), NewError("E2", "two")),
		Ensure(check("v3", false), e3),
	)

	if !slices.Equal(evaluated, []string{"v1", "v2", "v3"}) {
		t.Errorf("expected every predicate evaluated in order, got %v", evaluated)
	}
	want := NewAggregateError(ValidateCode, "2 validations failed", e1, e3)
	if !r.Error().Equal(want) {
		t.Errorf("expected %v, got %v", want, r.Error())
	}
}

func TestValidatePluralization(t *testing.T) {
	r := Validate(Ensure(func() bool { return false }, errA))
	if got := r.Error().Base().Description; got != "1 validation failed" {
		t.Errorf("expected singular description, got %q", got)
	}
	r = Validate(Ensure(func() bool { return true }, errA))
	if !r.IsSuccess() {
		t.Errorf("expected success, got %v", r)
	}
}

func TestChecks(t *testing.T) {
	calls := 0
	c := NewChecks().
		Ensure(func() bool { calls++; return false }, errA).
		Ensure(func() bool { calls++; return false }, errB)
	if c.Len() != 2 {
		t.Fatalf("expected 2 checks, got %d", c.Len())
	}

	built := false
	r := CreateOf(c, func() string { built = true; return "x" })
	if calls != 2 {
		t.Errorf("expected both checks evaluated, got %d", calls)
	}
	if built {
		t.Error("build must not run when a check fails")
	}
	agg, ok := r.Error().(AggregateError)
	if !ok || !slices.Equal(agg.Errors, []Error{errA, errB}) {
		t.Errorf("unexpected error %v", r.Error())
	}

	var empty Checks
	if got := CreateOf(&empty, func() int { return 1 }).Value(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

type ctxKey struct{}

func TestAsyncIsSequentialAndLazy(t *testing.T) {
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	var steps []string

	load := AsyncOf[int](func(ctx context.Context) Of[int] {
		steps = append(steps, "load")
		if ctx.Value(ctxKey{}) != "v" {
			t.Error("context not propagated to input")
		}
		return SuccessOf(10)
	})
	chained := BindAsync(load, func(ctx context.Context, v int) Of[int] {
		steps = append(steps, "next")
		if ctx.Value(ctxKey{}) != "v" {
			t.Error("context not propagated to continuation")
		}
		return SuccessOf(v + 1)
	})
	doubled := MapAsync(chained, func(ctx context.Context, v int) int {
		steps = append(steps, "map")
		if ctx.Value(ctxKey{}) != "v" {
			t.Error("context not propagated to map")
		}
		return v * 2
	})
	recovered := OnFailureOfAsync(doubled, func(context.Context, Fault) Of[int] {
		steps = append(steps, "recover")
		return SuccessOf(0)
	})

	if len(steps) != 0 {
		t.Fatalf("expected lazy composition, ran %v", steps)
	}
	got := MatchOfAsync(ctx, recovered,
		func(_ context.Context, v int) int { return v },
		func(context.Context, Fault) int { return -1 },
	)
	if got != 22 {
		t.Errorf("expected 22, got %d", got)
	}
	if !slices.Equal(steps, []string{"load", "next", "map"}) {
		t.Errorf("unexpected order %v", steps)
	}
}

func TestAsyncShortCircuits(t *testing.T) {
	ctx := context.Background()
	failing := Async(func(context.Context) Result { return Failure(errA) })

	called := false
	r := OnSuccessAsync(failing, func(context.Context) Result {
		called = true
		return Success()
	}).Await(ctx)
	if called || r.Code() != "A" {
		t.Errorf("expected short circuit with A, got %v (called=%v)", r, called)
	}

	r = OnFailureAsync(failing, func(_ context.Context, f Fault) Result {
		return Failure(NewError("Wrapped", f.Base().Code))
	}).Await(ctx)
	if r.Code() != "Wrapped" {
		t.Errorf("expected Wrapped, got %v", r)
	}

	r = ThenAsync(AsyncOf[int](func(context.Context) Of[int] { return FailureOf[int](errB) }),
		func(context.Context, int) Result { return Success() },
	).Await(ctx)
	if r.Code() != "B" {
		t.Errorf("expected B, got %v", r)
	}

	got := MatchAsync(ctx, Async(func(context.Context) Result { return Success() }),
		func(context.Context) string { return "ok" },
		func(context.Context, Fault) string { return "err" },
	)
	if got != "ok" {
		t.Errorf("expected ok, got %q", got)
	}

	failingOf := AsyncOf[int](func(context.Context) Of[int] { return FailureOf[int](errB) })
	mapped := false
	n := MapAsync(failingOf, func(context.Context, int) string {
		mapped = true
		return "never"
	}).Await(ctx)
	if mapped || n.Code() != "B" {
		t.Errorf("expected map to short circuit with B, got %v (mapped=%v)", n, mapped)
	}

	fallback := OnFailureOfAsync(failingOf, func(_ context.Context, f Fault) Of[int] {
		if f.Base().Code != "B" {
			t.Errorf("expected fault B, got %v", f)
		}
		return SuccessOf(5)
	}).Await(ctx)
	if fallback.Value() != 5 {
		t.Errorf("expected 5, got %v", fallback)
	}

	v := OnSuccessOfAsync(Async(func(context.Context) Result { return Success() }),
		func(context.Context) Of[string] { return SuccessOf("done") },
	).Await(ctx)
	if v.Value() != "done" {
		t.Errorf("expected done, got %q", v.Value())
	}
}
