package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "runs_total",
		Help:      "Count of finished analysis runs by status and reason.",
	}, []string{"status", "reason"})
	workflowRunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "run_duration_seconds",
		Help:      "Duration of analysis runs.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"status"})
	workflowStageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "stage_duration_seconds",
		Help:      "Duration of analysis stages.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"stage", "status"})
	workflowRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "workflow",
		Name:      "retries_total",
		Help:      "Count of retried upstream calls.",
	}, []string{"call"})
)

// Workflow tracks analysis runs.
type Workflow struct{}

// NewWorkflow creates a Workflow metrics collector.
func NewWorkflow() *Workflow {
	return &Workflow{}
}

// ObserveStage records duration and status of a single stage.
func (Workflow) ObserveStage(stage string, err error, started time.Time) {
	workflowStageDuration.WithLabelValues(stage, status(err)).Observe(time.Since(started).Seconds())
}

// ObserveRun records a finished run. reason is empty for completed runs.
func (Workflow) ObserveRun(runStatus, reason string, started time.Time) {
	if reason == "" {
		reason = "none"
	}
	runStatus = labelOrUnknown(runStatus)
	workflowRunsTotal.WithLabelValues(runStatus, reason).Inc()
	workflowRunDuration.WithLabelValues(runStatus).Observe(time.Since(started).Seconds())
}

// ObserveRetry records one retry of an upstream call.
func (Workflow) ObserveRetry(call string) {
	workflowRetriesTotal.WithLabelValues(labelOrUnknown(call)).Inc()
}
