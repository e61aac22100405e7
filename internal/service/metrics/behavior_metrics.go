package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	BehaviorLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "trademirror",
			Subsystem: "behavior",
			Name:      "latency_seconds",
			Help:      "Latency of behavior endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	BehaviorErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "trademirror",
			Subsystem: "behavior",
			Name:      "errors_total",
			Help:      "Errors by behavior endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(BehaviorLatency, BehaviorErrors)
	})
}
