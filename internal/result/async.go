package result

import "context"

// Async is a deferred Result. Calling it runs the underlying operation.
type Async func(ctx context.Context) Result

// AsyncOf is a deferred Of[T].
type AsyncOf[T any] func(ctx context.Context) Of[T]

// Await runs a and returns its outcome.
func (a Async) Await(ctx context.Context) Result { return a(ctx) }

// Await runs a and returns its outcome.
func (a AsyncOf[T]) Await(ctx context.Context) Of[T] { return a(ctx) }

// The async combinators compose lazily: nothing runs until the returned
// function is awaited. The input is always awaited before the continuation,
// and ctx is handed to both unchanged.

// OnSuccessAsync awaits in, then next when in succeeded.
func OnSuccessAsync(in Async, next func(ctx context.Context) Result) Async {
	return func(ctx context.Context) Result {
		return OnSuccess(in(ctx), func() Result { return next(ctx) })
	}
}

// OnSuccessOfAsync awaits in, then next when in succeeded.
func OnSuccessOfAsync[T any](in Async, next func(ctx context.Context) Of[T]) AsyncOf[T] {
	return func(ctx context.Context) Of[T] {
		return OnSuccessOf(in(ctx), func() Of[T] { return next(ctx) })
	}
}

// BindAsync awaits in, then passes its value to next when in succeeded.
func BindAsync[TIn, TOut any](in AsyncOf[TIn], next func(ctx context.Context, v TIn) Of[TOut]) AsyncOf[TOut] {
	return func(ctx context.Context) Of[TOut] {
		return Bind(in(ctx), func(v TIn) Of[TOut] { return next(ctx, v) })
	}
}

// ThenAsync awaits in, then passes its value to next when in succeeded.
func ThenAsync[TIn any](in AsyncOf[TIn], next func(ctx context.Context, v TIn) Result) Async {
	return func(ctx context.Context) Result {
		return Then(in(ctx), func(v TIn) Result { return next(ctx, v) })
	}
}

// MapAsync awaits in, then transforms its value when in succeeded.
func MapAsync[TIn, TOut any](in AsyncOf[TIn], fn func(ctx context.Context, v TIn) TOut) AsyncOf[TOut] {
	return func(ctx context.Context) Of[TOut] {
		return Map(in(ctx), func(v TIn) TOut { return fn(ctx, v) })
	}
}

// OnFailureAsync awaits in, then next with the fault when in failed.
func OnFailureAsync(in Async, next func(ctx context.Context, f Fault) Result) Async {
	return func(ctx context.Context) Result {
		return OnFailure(in(ctx), func(f Fault) Result { return next(ctx, f) })
	}
}

// OnFailureOfAsync awaits in, then next with the fault when in failed.
func OnFailureOfAsync[T any](in AsyncOf[T], next func(ctx context.Context, f Fault) Of[T]) AsyncOf[T] {
	return func(ctx context.Context) Of[T] {
		return OnFailureOf(in(ctx), func(f Fault) Of[T] { return next(ctx, f) })
	}
}

// MatchAsync awaits in and runs exactly one of the branches.
func MatchAsync[TOut any](
	ctx context.Context,
	in Async,
	onSuccess func(ctx context.Context) TOut,
	onFailure func(ctx context.Context, f Fault) TOut,
) TOut {
	return Match(in(ctx),
		func() TOut { return onSuccess(ctx) },
		func(f Fault) TOut { return onFailure(ctx, f) },
	)
}

// MatchOfAsync awaits in and runs exactly one of the branches.
func MatchOfAsync[TIn, TOut any](
	ctx context.Context,
	in AsyncOf[TIn],
	onSuccess func(ctx context.Context, v TIn) TOut,
	onFailure func(ctx context.Context, f Fault) TOut,
) TOut {
	return MatchOf(in(ctx),
		func(v TIn) TOut { return onSuccess(ctx, v) },
		func(f Fault) TOut { return onFailure(ctx, f) },
	)
}
