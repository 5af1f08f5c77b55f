// Package metrics declares the instrumentation surface of the processor
// runtime. Backends such as Prometheus implement these interfaces without the
// core packages importing them.
package metrics

// Timer measures the duration of an operation. Call ObserveDuration when the
// operation completes.
type Timer interface {
	ObserveDuration()
}

// EffectOutcome is the terminal outcome of one effect run.
type EffectOutcome string

const (
	OutcomeCompleted EffectOutcome = "completed"
	OutcomeCancelled EffectOutcome = "cancelled"
	OutcomePanicked  EffectOutcome = "panicked"
)

// Source tells where a dispatched private action came from.
type Source string

const (
	SourceSend   Source = "send"
	SourceEffect Source = "effect"
)

// ProcessorMetrics is the metrics interface of a processor.
// Implementations must be safe for concurrent use.
type ProcessorMetrics interface {
	// Dispatch
	ActionDispatched(processorID string, source Source)
	ReduceDuration(source Source) Timer

	// Effects
	EffectStarted(processorID string)
	EffectFinished(processorID string, outcome EffectOutcome)
	DeliveryDropped(processorID string)

	// Observers
	Subscribers(processorID string, count int)
	TraceDropped(processorID string)
}
