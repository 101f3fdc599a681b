package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	DonationsAccepted    prometheus.Counter
	DonationsRejected    prometheus.Counter
	BloodUnitsCreated    prometheus.Counter
	CertificatesIssued   prometheus.Counter
	CertificateFailures  *prometheus.CounterVec
	UsersRegistered      *prometheus.CounterVec
	RequestLatencySecond *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DonationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donations_accepted_total",
			Help: "Total number of donation requests accepted",
		}),
		DonationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_donations_rejected_total",
			Help: "Total number of donation requests rejected",
		}),
		BloodUnitsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_blood_units_created_total",
			Help: "Total number of blood units materialized by acceptances",
		}),
		CertificatesIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodlink_certificates_issued_total",
			Help: "Total number of donation certificates generated and uploaded",
		}),
		CertificateFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_certificate_failures_total",
			Help: "Certificate sub-workflow failures by stage",
		}, []string{"stage"}),
		UsersRegistered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodlink_users_registered_total",
			Help: "Total number of registered users by role",
		}, []string{"role"}),
		RequestLatencySecond: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bloodlink_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// RecordAcceptance tracks a committed acceptance and its created units.
func (m *Metrics) RecordAcceptance(units int) {
	if m == nil {
		return
	}
	m.DonationsAccepted.Inc()
	m.BloodUnitsCreated.Add(float64(units))
}

// RecordRejection tracks a committed rejection.
func (m *Metrics) RecordRejection() {
	if m == nil {
		return
	}
	m.DonationsRejected.Inc()
}

// RecordCertificateIssued tracks a successful generate+upload cycle.
func (m *Metrics) RecordCertificateIssued() {
	if m == nil {
		return
	}
	m.CertificatesIssued.Inc()
}

// RecordCertificateFailure tracks a degraded certificate outcome.
// stage is one of "details", "generate", "upload", "persist".
func (m *Metrics) RecordCertificateFailure(stage string) {
	if m == nil {
		return
	}
	m.CertificateFailures.WithLabelValues(stage).Inc()
}

// RecordRegistration tracks a new user by role.
func (m *Metrics) RecordRegistration(role string) {
	if m == nil {
		return
	}
	m.UsersRegistered.WithLabelValues(role).Inc()
}

// ObserveRequest records request latency for the route/status pair.
func (m *Metrics) ObserveRequest(route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestLatencySecond.WithLabelValues(route, status).Observe(seconds)
}
