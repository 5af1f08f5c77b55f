package effectmodel

import "errors"

// EffectEnum is the context key under which a handler scope is installed.
type EffectEnum string

const (
	EffectLog EffectEnum = "processor_effect_enum_log"
)

var ErrNoEffectHandler = errors.New("no effect handler registered for this effect")

type EffectScopeConfig struct {
	BufferSize int // default: 1
}

func NewEffectScopeConfig(bufferSize int) EffectScopeConfig {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return EffectScopeConfig{
		BufferSize: bufferSize,
	}
}
