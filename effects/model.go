package effects

import (
	effectmodel "github.com/woodycatliu/Processor/effects/internal/model"
)

// EffectEnum keys an installed handler scope in a context.
type EffectEnum = effectmodel.EffectEnum

const EffectLog = effectmodel.EffectLog
