// Package effects describes asynchronous work whose output is fed back into a
// processor as actions.
//
// An Effect is lazy and single use: nothing happens until Run is called, and
// calling Run twice panics with ErrEffectConsumed. Run blocks until the effect
// completes or its context is cancelled, passing every produced value to emit.
// Emit reports false once the receiver no longer wants values, and the effect
// should stop then.
//
// Effect has no error channel. Work that can fail is built as a Fallible
// (Future, FromFunc, FromCallback) and must go through CatchToResult, which
// turns the failure, or a panic, into an ordinary value:
//
//	fetch := effects.CatchToResult(
//	    effects.Future(client.Fetch),
//	    func(r effects.Result[Item]) Action { return Fetched{Result: r} },
//	).Cancellable("fetch")
//
// Effects are combined with Map, Concat and Merge.
//
// The package also hosts the fire-and-forget handler scopes used for optional
// hooks such as logging. A handler is installed in a context with
// WithFireAndForgetEffectHandler and reached with FireAndForgetEffect; without
// an installed handler the payload is dropped.
package effects
