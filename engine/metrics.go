package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus-compatible instrumentation for scheduler
// activity. All metrics are namespaced "depengine_".
//
//  1. inflight_instructions (gauge): instructions currently executing.
//  2. queue_depth (gauge): pending instructions per resource, labeled tag.
//  3. claim_wait_ms (histogram): time a resource's worker spent waiting
//     for a claimable head before each claim, labeled tag. It is measured
//     from when the worker starts waiting, not from when the instruction
//     was pushed.
//  4. instructions_fired_total (counter): instructions whose fn has run.
//  5. instruction_errors_total (counter): instructions whose fn panicked.
//  6. resource_mode (gauge): current access mode per resource, labeled tag
//     and mode — 1 for the active mode, 0 otherwise.
type Metrics struct {
	inflight        prometheus.Gauge
	queueDepth      *prometheus.GaugeVec
	claimWait       *prometheus.HistogramVec
	instructionsFired prometheus.Counter
	instructionErrors prometheus.Counter
	resourceMode    *prometheus.GaugeVec

	registry prometheus.Registerer
}

// NewMetrics registers all scheduler metrics with registry. A nil registry
// uses prometheus.DefaultRegisterer.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		inflight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "depengine",
			Name:      "inflight_instructions",
			Help:      "Current number of instructions executing concurrently",
		}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "depengine",
			Name:      "queue_depth",
			Help:      "Number of instructions pending on a resource's queue",
		}, []string{"tag"}),
		claimWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "depengine",
			Name:      "claim_wait_ms",
			Help:      "Milliseconds a resource's worker waited for a claimable instruction",
			Buckets:   []float64{0.1, 1, 5, 10, 50, 100, 500, 1000, 5000},
		}, []string{"tag"}),
		instructionsFired: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "depengine",
			Name:      "instructions_fired_total",
			Help:      "Total instructions whose function has run",
		}),
		instructionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "depengine",
			Name:      "instruction_errors_total",
			Help:      "Total instructions whose function panicked",
		}),
		resourceMode: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "depengine",
			Name:      "resource_mode",
			Help:      "1 for a resource's current access mode, 0 otherwise",
		}, []string{"tag", "mode"}),
	}
}

func (m *Metrics) observeQueueDepth(tag string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(tag).Set(float64(depth))
}

func (m *Metrics) observeClaimWaitMs(tag string, ms float64) {
	if m == nil {
		return
	}
	m.claimWait.WithLabelValues(tag).Observe(ms)
}

func (m *Metrics) recordMode(tag string, mode accessMode) {
	if m == nil {
		return
	}
	for _, mm := range []accessMode{modeMR, modeR, modeN} {
		v := 0.0
		if mm == mode {
			v = 1.0
		}
		m.resourceMode.WithLabelValues(tag, mm.String()).Set(v)
	}
}

func (m *Metrics) instructionStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

func (m *Metrics) instructionFinished(err error) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.instructionsFired.Inc()
	if err != nil {
		m.instructionErrors.Inc()
	}
}
