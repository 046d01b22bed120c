package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(quotaDecisionsTotal, quotaBackendErrors) }

var (
	quotaDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_decisions_total",
			Help: "Quota check-and-consume outcomes, labeled by backend and decision.",
		},
		[]string{"backend", "decision"}, // decision: 'allowed', 'denied'
	)

	quotaBackendErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quota_backend_errors_total",
			Help: "Quota backend storage failures (each one is a fail-closed denial).",
		},
		[]string{"backend"},
	)
)

func IncQuotaDecision(backend string, allowed bool) {
	decision := "denied"
	if allowed {
		decision = "allowed"
	}
	quotaDecisionsTotal.WithLabelValues(norm(backend), decision).Inc()
}

func IncQuotaBackendError(backend string) {
	quotaBackendErrors.WithLabelValues(norm(backend)).Inc()
}
