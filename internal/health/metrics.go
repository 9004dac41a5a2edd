// Package health tracks per-agency connector liveness, exposes a
// Prometheus /metrics endpoint alongside the OTel metric pipeline, and
// serves the admin API's health/manual-review endpoints, per spec.md §4.8.
// Metric registration mirrors Generativebots-ocx-backend-go-svc's
// internal/escrow.Metrics (promauto-registered Vecs grouped in one struct).
package health

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every Prometheus series the pipeline exposes.
type Metrics struct {
	ConnectorHealthy   *prometheus.GaugeVec
	ConnectorLastEvent *prometheus.GaugeVec
	ConsumerLag        *prometheus.GaugeVec
	DeadLetterDepth    prometheus.Gauge
	MissingRateConfig  *prometheus.CounterVec
	ManualReviewDepth  prometheus.Gauge
}

// MissingRateConfigCounter returns the missing-tariff counter bound to this
// agency's label value.
func (m *Metrics) MissingRateConfigCounter(agencyID string) prometheus.Counter {
	return m.MissingRateConfig.WithLabelValues(agencyID)
}

// IncMissingRateConfig increments the missing-tariff counter for agencyID,
// satisfying rater.MissingConfigCounter without binding a label at
// construction time.
func (m *Metrics) IncMissingRateConfig(agencyID string) {
	m.MissingRateConfig.WithLabelValues(agencyID).Inc()
}

// NewMetrics constructs and registers every metric with the default registry.
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectorHealthy: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tollhub_connector_healthy",
				Help: "1 if the agency connector's last poll succeeded, 0 otherwise",
			},
			[]string{"agency_id"},
		),
		ConnectorLastEvent: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tollhub_connector_last_event_unix",
				Help: "Unix timestamp of the last raw event published by this connector",
			},
			[]string{"agency_id"},
		),
		ConsumerLag: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tollhub_consumer_lag",
				Help: "Pending message count for a durable consumer",
			},
			[]string{"durable_name"},
		),
		DeadLetterDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tollhub_dead_letter_depth",
				Help: "Pending message count on the dead-letter-queue subject",
			},
		),
		MissingRateConfig: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tollhub_missing_rate_config_total",
				Help: "Number of rated events that fell through to raw_amount for lack of a tariff",
			},
			[]string{"agency_id"},
		),
		ManualReviewDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tollhub_manual_review_depth",
				Help: "Pending entry count in the manual review queue",
			},
		),
	}
}
