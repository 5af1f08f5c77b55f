package effects

import (
	"context"
	"fmt"

	"github.com/woodycatliu/Processor/effects/internal/handlers"
	effectmodel "github.com/woodycatliu/Processor/effects/internal/model"
)

// ErrNoEffectHandler is returned when no handler is installed for an enum.
var ErrNoEffectHandler = effectmodel.ErrNoEffectHandler

// WithFireAndForgetEffectHandler installs a fire-and-forget handler for enum
// in the returned context.
//
// Payloads are handled one at a time on a dedicated goroutine, in the order
// they were submitted. The returned func closes the handler, runs teardown and
// hands back the parent context.
//
// Usage:
//
//	ctx, end := WithFireAndForgetEffectHandler(ctx, 16, MyEnum, handleFn)
//	defer end()
func WithFireAndForgetEffectHandler[P any](
	ctx context.Context,
	bufferSize int,
	enum effectmodel.EffectEnum,
	handleFn func(context.Context, P),
	teardown ...func(),
) (context.Context, func() context.Context) {
	td := normalizeTeardown(teardown)
	handler := handlers.NewFireAndForgetHandler(
		ctx,
		effectmodel.NewEffectScopeConfig(bufferSize),
		handleFn,
		td,
	)
	ctxWith := context.WithValue(ctx, enum, handler)

	return ctxWith, func() context.Context {
		handler.Close()
		return ctx
	}
}

// FireAndForgetEffect hands payload to the handler installed for enum.
//
// It reports false when the payload was dropped. A missing handler is not an
// error here: callers use this for optional hooks such as tracing.
func FireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) bool {
	handler, err := getHandler[handlers.FireAndForgetHandler[P]](ctx, enum)
	if err != nil {
		return false
	}
	return handler.FireAndForgetEffect(ctx, payload)
}

// TryFireAndForgetEffect is FireAndForgetEffect for callers that must not
// wait on the handler. It drops the payload when the handler buffer is full
// and reports whether it was accepted.
func TryFireAndForgetEffect[P any](
	ctx context.Context,
	enum effectmodel.EffectEnum,
	payload P,
) bool {
	handler, err := getHandler[handlers.FireAndForgetHandler[P]](ctx, enum)
	if err != nil {
		return false
	}
	return handler.TryFireAndForgetEffect(payload)
}

// HasEffectHandler reports whether a handler for enum is installed in ctx.
func HasEffectHandler(ctx context.Context, enum effectmodel.EffectEnum) bool {
	return ctx.Value(enum) != nil
}

func getHandler[H any](ctx context.Context, enum effectmodel.EffectEnum) (H, error) {
	var zero H
	raw := ctx.Value(enum)
	if raw == nil {
		return zero, fmt.Errorf("%w: %v", ErrNoEffectHandler, enum)
	}
	h, ok := raw.(H)
	if !ok {
		return zero, fmt.Errorf("unexpected handler type for %v: %T", enum, raw)
	}
	return h, nil
}

// normalizeTeardown flattens optional teardown functions into a single callable.
//
// Accepts either 0 or 1 teardown functions. Panics if more than one is passed.
func normalizeTeardown(teardown []func()) func() {
	switch len(teardown) {
	case 1:
		return teardown[0]
	case 0:
		return func() {}
	default:
		panic("normalizeTeardown: only one or zero teardown functions allowed")
	}
}
