package metrics

import "github.com/prometheus/client_golang/prometheus"

var decisionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "guard_decisions_total",
		Help: "The total number of guard decisions by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

func init() {
	prometheus.MustRegister(decisionsTotal)
}

// Recorder implements ports.MetricsRecorder on Prometheus counters.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (Recorder) RecordDecision(operation, outcome string) {
	decisionsTotal.WithLabelValues(operation, outcome).Inc()
}
