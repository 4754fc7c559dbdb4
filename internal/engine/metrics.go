package engine

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mtxIntentsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routerd_intents_processed_total",
		Help: "Intents picked up for processing",
	})
	mtxOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routerd_intent_outcomes_total",
		Help: "Intent processing outcomes by kind",
	}, []string{"outcome"})
	mtxGasUsed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "routerd_gas_used_total",
		Help: "Cumulative gas charged to submitted settlements",
	})
	mtxTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "routerd_tick_duration_seconds",
		Help:    "Execution loop tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(mtxIntentsProcessed, mtxOutcomes, mtxGasUsed, mtxTickDuration)
}

// Metrics are the engine's monotonic counters. Writes are additive and
// racy-safe; exact real-time readback is not required.
type Metrics struct {
	intentsProcessed atomic.Uint64
	intentsExecuted  atomic.Uint64
	intentsFailed    atomic.Uint64
	intentsSkipped   atomic.Uint64
	totalGasUsed     atomic.Uint64

	startedAt time.Time
}

// Snapshot is a point-in-time copy for the status endpoint.
type Snapshot struct {
	IntentsProcessed uint64    `json:"intentsProcessed"`
	IntentsExecuted  uint64    `json:"intentsExecuted"`
	IntentsFailed    uint64    `json:"intentsFailed"`
	IntentsSkipped   uint64    `json:"intentsSkipped"`
	TotalGasUsed     uint64    `json:"totalGasUsed"`
	StartedAt        time.Time `json:"startedAt"`
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		IntentsProcessed: m.intentsProcessed.Load(),
		IntentsExecuted:  m.intentsExecuted.Load(),
		IntentsFailed:    m.intentsFailed.Load(),
		IntentsSkipped:   m.intentsSkipped.Load(),
		TotalGasUsed:     m.totalGasUsed.Load(),
		StartedAt:        m.startedAt,
	}
}

func (m *Metrics) recordProcessed() {
	m.intentsProcessed.Add(1)
	mtxIntentsProcessed.Inc()
}

func (m *Metrics) recordOutcome(o Outcome) {
	mtxOutcomes.WithLabelValues(o.String()).Inc()
	switch o {
	case OutcomeExecuted:
		m.intentsExecuted.Add(1)
	case OutcomeSubmissionFailed:
		m.intentsFailed.Add(1)
	default:
		m.intentsSkipped.Add(1)
	}
}

func (m *Metrics) recordGas(gas uint64) {
	m.totalGasUsed.Add(gas)
	mtxGasUsed.Add(float64(gas))
}
