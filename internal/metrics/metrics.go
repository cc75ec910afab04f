// Package metrics registers the Prometheus collectors of the service.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Operations counts core operations by name and outcome.
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidspace",
		Name:      "operations_total",
		Help:      "Core operations by name and outcome.",
	}, []string{"op", "outcome"})

	// NotificationsAppended counts notification log appends.
	NotificationsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "vidspace",
		Name:      "notifications_appended_total",
		Help:      "Notifications appended to account logs.",
	})

	// DroppedSideEffects counts best-effort writes that failed and were dropped.
	DroppedSideEffects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidspace",
		Name:      "dropped_side_effects_total",
		Help:      "Best-effort side effects that failed and were dropped.",
	}, []string{"kind"})

	// Repairs counts fixes applied by the reconciliation pass.
	Repairs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vidspace",
		Name:      "reconcile_repairs_total",
		Help:      "Inconsistencies repaired by reconciliation.",
	}, []string{"kind"})
)

// Outcome labels an error for the operations counter.
func Outcome(err error, classes ...error) string {
	if err == nil {
		return "ok"
	}
	for _, c := range classes {
		if errors.Is(err, c) {
			return c.Error()
		}
	}
	return "error"
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
