// Package processor implements a unidirectional state container.
//
// State changes only through actions. A public action sent with Send is first
// transformed into a private action, then reduced against the current state on
// the caller goroutine. A reduce may return an effect; the effect runs on its
// own goroutine and every value it emits is queued on the processor mailbox,
// whose single consumer reduces it in turn. Effect output therefore re-enters
// the same pipeline without recursion, however long the chain.
//
// Every running effect is tracked in a registry under its id, so a family of
// effects can be cancelled with Cancel. Values emitted by a cancelled effect
// that are still waiting in the mailbox are discarded.
//
// Example:
//
//	p := processor.New(State{}, reducer, env, processor.WithLogger(logger))
//	defer p.Close()
//
//	states, stop := p.Subscribe(ctx)
//	defer stop()
//
//	p.Send(Start{})
//	for s := range states {
//	    fmt.Println(s)
//	}
package processor
