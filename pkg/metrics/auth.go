package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Auth operation names used as the "operation" label.
const (
	OperationRegister = "register"
	OperationLogin    = "login"
	OperationRefresh  = "refresh"
)

// Outcomes used as the "outcome" label.
const (
	OutcomeSuccess            = "success"
	OutcomeUserExists         = "user_exists"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInvalidToken       = "invalid_token"
	OutcomeError              = "error"
)

// AuthMetrics records outcomes of the authentication flows.
type AuthMetrics struct {
	outcomes     *prometheus.CounterVec
	hashDuration prometheus.Histogram
}

// NewAuthMetrics registers the auth metrics on the provided registerer.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return &AuthMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usersvc_auth_operations_total",
		Help: "Authentication operations by operation and outcome.",
	}, []string{"operation", "outcome"})
	hashDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "usersvc_password_hash_duration_seconds",
		Help:    "Time spent hashing passwords.",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
	})
	reg.MustRegister(outcomes, hashDuration)
	return &AuthMetrics{
		outcomes:     outcomes,
		hashDuration: hashDuration,
	}
}

// Observe increments the counter for the operation/outcome pair.
func (a *AuthMetrics) Observe(operation, outcome string) {
	if a == nil || a.outcomes == nil {
		return
	}
	a.outcomes.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (a *AuthMetrics) ObserveHashDuration(duration time.Duration) {
	if a == nil || a.hashDuration == nil {
		return
	}
	a.hashDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
