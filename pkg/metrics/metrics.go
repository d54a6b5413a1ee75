package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	renderRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "care_calendar",
			Name:      "render_requests_total",
			Help:      "Count of calendar renders by grid mode and viewer role.",
		},
		[]string{"mode", "role"},
	)

	dayDetailRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "care_calendar",
			Name:      "day_detail_requests_total",
			Help:      "Count of day detail lookups by viewer role.",
		},
		[]string{"role"},
	)

	shiftTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "care_calendar",
			Name:      "shift_transitions_total",
			Help:      "Count of shift status transitions by kind and result.",
		},
		[]string{"transition", "result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(renderRequests, dayDetailRequests, shiftTransitions)
	})
}

func IncRender(mode, role string) {
	renderRequests.WithLabelValues(mode, role).Inc()
}

func IncDayDetail(role string) {
	dayDetailRequests.WithLabelValues(role).Inc()
}

// IncTransition records a transition attempt; result is "ok" or "rejected"
func IncTransition(transition string, err error) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	shiftTransitions.WithLabelValues(transition, result).Inc()
}
