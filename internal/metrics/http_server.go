package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpServerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http_server",
		Name:      "requests_total",
		Help:      "Count of handled API requests.",
	}, []string{"route", "code"})
	httpServerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http_server",
		Name:      "request_duration_seconds",
		Help:      "Duration of handled API requests.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"route"})
)

// HTTPServer tracks requests served by the API.
type HTTPServer struct{}

func NewHTTPServer() *HTTPServer {
	return &HTTPServer{}
}

// Observe records a handled request by its route pattern and status code.
func (HTTPServer) Observe(route string, code int, started time.Time) {
	route = labelOrUnknown(route)
	httpServerRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpServerRequestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
}
