package result

// Combinators are package functions since methods cannot declare their own
// type parameters. Every one of them short-circuits on the branch it does not
// handle and passes the original fault through unchanged.

// OnSuccess calls next when r succeeded.
func OnSuccess(r Result, next func() Result) Result {
	if r.IsFailure() {
		return r
	}
	return next()
}

// OnSuccessOf calls next when r succeeded.
func OnSuccessOf[T any](r Result, next func() Of[T]) Of[T] {
	if r.IsFailure() {
		return Of[T]{Result: r}
	}
	return next()
}

// Bind passes the value of r to next when r succeeded.
func Bind[TIn, TOut any](r Of[TIn], next func(TIn) Of[TOut]) Of[TOut] {
	if r.IsFailure() {
		return Of[TOut]{Result: r.Result}
	}
	return next(r.value)
}

// Then passes the value of r to next when r succeeded and drops the payload.
func Then[TIn any](r Of[TIn], next func(TIn) Result) Result {
	if r.IsFailure() {
		return r.Result
	}
	return next(r.value)
}

// Map transforms the value of a successful result.
func Map[TIn, TOut any](r Of[TIn], fn func(TIn) TOut) Of[TOut] {
	if r.IsFailure() {
		return Of[TOut]{Result: r.Result}
	}
	return SuccessOf(fn(r.value))
}

// OnFailure calls next with the fault when r failed.
func OnFailure(r Result, next func(Fault) Result) Result {
	if r.IsSuccess() {
		return r
	}
	return next(r.fault)
}

// OnFailureOf calls next with the fault when r failed.
func OnFailureOf[T any](r Of[T], next func(Fault) Of[T]) Of[T] {
	if r.IsSuccess() {
		return r
	}
	return next(r.fault)
}

// Match runs exactly one of the two branches.
func Match[TOut any](r Result, onSuccess func() TOut, onFailure func(Fault) TOut) TOut {
	if r.IsSuccess() {
		return onSuccess()
	}
	return onFailure(r.fault)
}

// MatchOf runs exactly one of the two branches.
func MatchOf[TIn, TOut any](r Of[TIn], onSuccess func(TIn) TOut, onFailure func(Fault) TOut) TOut {
	if r.IsSuccess() {
		return onSuccess(r.value)
	}
	return onFailure(r.fault)
}
