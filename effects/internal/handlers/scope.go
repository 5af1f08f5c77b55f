package handlers

import (
	"github.com/google/uuid"
)

// effectScope owns the lifetime of one installed handler.
//
// Close is meant to be called once by whoever installed the handler, from a
// single goroutine; it is not synchronized.
type effectScope struct {
	EffectId string
	closeFn  func()
	closed   bool
}

func (es *effectScope) Close() {
	if !es.closed {
		es.closeFn()
		es.closed = true
	}
}

func newEffectScope(teardown func()) *effectScope {
	return &effectScope{
		EffectId: uuid.New().String(),
		closeFn:  teardown,
		closed:   false,
	}
}
