package auth

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	loginsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insighthub",
		Subsystem: "oauth",
		Name:      "logins_started_total",
		Help:      "Authorization redirects issued, by prompt mode.",
	}, []string{"prompt"})

	callbacksCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "insighthub",
		Subsystem: "oauth",
		Name:      "callbacks_total",
		Help:      "Provider callbacks handled, by outcome.",
	}, []string{"outcome"})

	statesPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "insighthub",
		Subsystem: "oauth",
		Name:      "states_purged_total",
		Help:      "Stale pending states removed during callbacks.",
	})
)

// RegisterMetrics registers the login flow collectors with reg
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{loginsStarted, callbacksCompleted, statesPurged} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
