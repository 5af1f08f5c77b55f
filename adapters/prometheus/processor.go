package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/woodycatliu/Processor/metrics"
)

type processorMetrics struct {
	actionsTotal      *prometheus.CounterVec
	reduceDuration    *prometheus.HistogramVec
	effectsStarted    *prometheus.CounterVec
	effectsFinished   *prometheus.CounterVec
	effectsLive       *prometheus.GaugeVec
	deliveriesDropped *prometheus.CounterVec
	subscribers       *prometheus.GaugeVec
	traceDropped      *prometheus.CounterVec
}

// NewProcessorMetrics creates the processor metrics and registers them with reg.
func NewProcessorMetrics(reg prometheus.Registerer) metrics.ProcessorMetrics {
	m := &processorMetrics{
		actionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_actions_dispatched_total",
			Help: "Total number of private actions reduced",
		}, []string{"processor_id", "source"}),

		reduceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "processor_reduce_duration_seconds",
			Help:    "Time spent in a single reduce call in seconds",
			Buckets: reduceBuckets,
		}, []string{"source"}),

		effectsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_effects_started_total",
			Help: "Total number of effects started",
		}, []string{"processor_id"}),

		effectsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_effects_finished_total",
			Help: "Total number of effects that reached a terminal event",
		}, []string{"processor_id", "outcome"}),

		effectsLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "processor_effects_live",
			Help: "Number of effects currently running",
		}, []string{"processor_id"}),

		deliveriesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_deliveries_dropped_total",
			Help: "Effect outputs discarded because their effect was cancelled",
		}, []string{"processor_id"}),

		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "processor_subscribers",
			Help: "Number of live state subscriptions",
		}, []string{"processor_id"}),

		traceDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "processor_trace_entries_dropped_total",
			Help: "Trace log entries dropped because the log handler was behind",
		}, []string{"processor_id"}),
	}

	reg.MustRegister(
		m.actionsTotal,
		m.reduceDuration,
		m.effectsStarted,
		m.effectsFinished,
		m.effectsLive,
		m.deliveriesDropped,
		m.subscribers,
		m.traceDropped,
	)

	return m
}

func (m *processorMetrics) ActionDispatched(processorID string, source metrics.Source) {
	m.actionsTotal.WithLabelValues(processorID, string(source)).Inc()
}

func (m *processorMetrics) ReduceDuration(source metrics.Source) metrics.Timer {
	return newTimer(m.reduceDuration.WithLabelValues(string(source)))
}

func (m *processorMetrics) EffectStarted(processorID string) {
	m.effectsStarted.WithLabelValues(processorID).Inc()
	m.effectsLive.WithLabelValues(processorID).Inc()
}

func (m *processorMetrics) EffectFinished(processorID string, outcome metrics.EffectOutcome) {
	m.effectsFinished.WithLabelValues(processorID, string(outcome)).Inc()
	m.effectsLive.WithLabelValues(processorID).Dec()
}

func (m *processorMetrics) DeliveryDropped(processorID string) {
	m.deliveriesDropped.WithLabelValues(processorID).Inc()
}

func (m *processorMetrics) Subscribers(processorID string, count int) {
	m.subscribers.WithLabelValues(processorID).Set(float64(count))
}

func (m *processorMetrics) TraceDropped(processorID string) {
	m.traceDropped.WithLabelValues(processorID).Inc()
}

var _ metrics.ProcessorMetrics = (*processorMetrics)(nil)
