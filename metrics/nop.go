package metrics

type nopTimer struct{}

func (nopTimer) ObserveDuration() {}

// NopTimer returns a no-op Timer.
func NopTimer() Timer { return nopTimer{} }

type nopProcessorMetrics struct{}

func (nopProcessorMetrics) ActionDispatched(string, Source) {}
func (nopProcessorMetrics) ReduceDuration(Source) Timer     { return nopTimer{} }

func (nopProcessorMetrics) EffectStarted(string)                 {}
func (nopProcessorMetrics) EffectFinished(string, EffectOutcome) {}
func (nopProcessorMetrics) DeliveryDropped(string)               {}

func (nopProcessorMetrics) Subscribers(string, int) {}
func (nopProcessorMetrics) TraceDropped(string)     {}

// NopProcessorMetrics returns a no-op ProcessorMetrics implementation.
func NopProcessorMetrics() ProcessorMetrics { return nopProcessorMetrics{} }
