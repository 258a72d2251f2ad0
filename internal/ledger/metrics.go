package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	// operations counts finished engine operations by name and outcome.
	operations *prometheus.CounterVec

	// conflictRetries counts conditional writes lost to concurrent writers
	// that triggered an operation retry.
	conflictRetries prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "spendbook",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Finished ledger operations by name and outcome.",
		}, []string{"op", "status"}),
		conflictRetries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "spendbook",
			Subsystem: "ledger",
			Name:      "conflict_retries_total",
			Help:      "Conditional writes lost to concurrent writers and retried.",
		}),
	}
}

func (m *metrics) observe(op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(op, status).Inc()
}
