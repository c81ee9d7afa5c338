package workflow

import "time"

const (
	DefaultCallTimeout    = 30 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryBaseDelay = 500 * time.Millisecond
	DefaultRetryMaxDelay  = 5 * time.Second
	DefaultOverallTimeout = 5 * time.Minute
	DefaultBatchWorkers   = 4

	// finalizeTimeout bounds the history write that ends a run.
	finalizeTimeout = 10 * time.Second
)

const (
	stageFetch     = "fetch"
	stageExtract   = "extract"
	stageClassify  = "classify"
	stageReport    = "report"
	stageAggregate = "aggregate"

	callClassify = "classify"
	callReport   = "report"
)

// Policy holds the timing and retry knobs of a Controller. Zero values take
// the package defaults.
type Policy struct {
	CallTimeout    time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	OverallTimeout time.Duration
	BatchWorkers   int
}

func (p Policy) withDefaults() Policy {
	if p.CallTimeout <= 0 {
		p.CallTimeout = DefaultCallTimeout
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.RetryBaseDelay <= 0 {
		p.RetryBaseDelay = DefaultRetryBaseDelay
	}
	if p.RetryMaxDelay <= 0 {
		p.RetryMaxDelay = DefaultRetryMaxDelay
	}
	if p.OverallTimeout <= 0 {
		p.OverallTimeout = DefaultOverallTimeout
	}
	if p.BatchWorkers <= 0 {
		p.BatchWorkers = DefaultBatchWorkers
	}
	return p
}
