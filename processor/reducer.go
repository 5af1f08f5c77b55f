package processor

import (
	"github.com/woodycatliu/Processor/effects"
)

// Reducer is the pure part of a processor.
//
// Transform maps a public action to the private action that is actually
// reduced. It must be deterministic and free of side effects.
//
// Reduce mutates state in place and may return an effect whose output is fed
// back as further private actions. A nil effect means there is nothing to run.
// Reduce is never called concurrently for the same processor.
type Reducer[S, A, P, E any] interface {
	Transform(action A) P
	Reduce(state *S, action P, env E) *effects.Effect[P]
}

// AnyReducer builds a Reducer from two funcs.
type AnyReducer[S, A, P, E any] struct {
	Mutated  func(action A) P
	Reducing func(state *S, action P, env E) *effects.Effect[P]
}

func (r AnyReducer[S, A, P, E]) Transform(action A) P {
	return r.Mutated(action)
}

func (r AnyReducer[S, A, P, E]) Reduce(state *S, action P, env E) *effects.Effect[P] {
	return r.Reducing(state, action, env)
}

var _ Reducer[int, int, int, struct{}] = AnyReducer[int, int, int, struct{}]{}
