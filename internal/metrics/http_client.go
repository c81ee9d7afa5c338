package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpClientRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "requests_total",
		Help:      "Count of requests to upstream services.",
	}, []string{"service", "operation", "status"})
	httpClientRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http_client",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests to upstream services.",
		Buckets:   []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 30},
	}, []string{"service", "operation", "status"})
)

// HTTPClient tracks calls made to one upstream service.
type HTTPClient struct {
	service string
}

// NewHTTPClient constructs a collector for the named upstream service.
func NewHTTPClient(service string) *HTTPClient {
	return &HTTPClient{service: labelOrUnknown(service)}
}

// Observe records a single request outcome and duration.
func (m HTTPClient) Observe(operation string, err error, started time.Time) {
	s := status(err)
	httpClientRequestsTotal.WithLabelValues(m.service, operation, s).Inc()
	httpClientRequestDuration.WithLabelValues(m.service, operation, s).Observe(time.Since(started).Seconds())
}
