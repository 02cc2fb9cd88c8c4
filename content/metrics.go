package content

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts remote round trips and degraded reads.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	degraded *prometheus.CounterVec
}

// NewMetrics registers the repository collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitpress",
			Subsystem: "github",
			Name:      "requests_total",
			Help:      "Contents API requests by method and response status.",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gitpress",
			Subsystem: "github",
			Name:      "request_duration_seconds",
			Help:      "Contents API round trip latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gitpress",
			Subsystem: "content",
			Name:      "degraded_reads_total",
			Help:      "Reads that returned empty or partial results instead of failing.",
		}, []string{"op"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency, m.degraded)
	}
	return m
}

func (m *Metrics) observeRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.latency.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) degradedRead(op string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(op).Inc()
}
