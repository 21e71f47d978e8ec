package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the registry.
type Metrics struct {
	AttestationsRecorded prometheus.Counter
	ReplaysRejected      prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		AttestationsRecorded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestry_attestations_recorded_total",
			Help: "Total number of attestations committed to the registry",
		}),
		ReplaysRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "attestry_replays_rejected_total",
			Help: "Total number of record calls rejected by the replay index",
		}),
	}
}

// IncAttestationsRecorded increments the recorded-attestation counter by 1.
func (m *Metrics) IncAttestationsRecorded() {
	m.AttestationsRecorded.Inc()
}

// IncReplaysRejected increments the rejected-replay counter by 1.
func (m *Metrics) IncReplaysRejected() {
	m.ReplaysRejected.Inc()
}
