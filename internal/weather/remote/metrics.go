package remote

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weather_dashboard",
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Weather service calls by operation and outcome.",
	}, []string{"op", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "weather_dashboard",
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Weather service call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

func observeRequest(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
