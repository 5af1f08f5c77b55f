// Package prometheus provides the Prometheus implementation of the processor
// metrics interface.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/woodycatliu/Processor/metrics"
)

// timer wraps a Prometheus observer to implement metrics.Timer.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Reduce calls are expected to be much faster than network latencies.
var reduceBuckets = []float64{
	.00001, .00005, .0001, .00025, .0005, .001, .0025, .005, .01, .025, .1,
}
