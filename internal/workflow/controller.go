// Package workflow drives an address analysis from transaction fetch to a
// finalized history item.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/aggregator"
	"github.com/fradiumofficial/fradium-sub002/internal/classifier"
	"github.com/fradiumofficial/fradium-sub002/internal/clock"
	"github.com/fradiumofficial/fradium-sub002/internal/features"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
	"github.com/fradiumofficial/fradium-sub002/internal/retry"
	"github.com/fradiumofficial/fradium-sub002/pkg/workerpool"
	"go.uber.org/zap"
)

// Controller starts and tracks analysis runs.
type Controller struct {
	chains  map[model.ChainKind]Chain
	reports ReportFetcher
	history HistoryRecorder
	metrics Metrics
	clock   clock.Clock
	policy  Policy
	logger  *zap.Logger

	mu     sync.Mutex
	runs   map[string]*Run
	closed bool
	active sync.WaitGroup
}

// NewController validates dependencies. Addresses of chains missing from
// chains are rejected as unsupported. reports may be nil, in which case runs
// rely on the classifier alone.
func NewController(
	chains map[model.ChainKind]Chain,
	reports ReportFetcher,
	history HistoryRecorder,
	metrics Metrics,
	clk clock.Clock,
	policy Policy,
	logger *zap.Logger,
) (*Controller, error) {
	if len(chains) == 0 {
		return nil, errors.New("at least one chain is required")
	}
	for kind, chain := range chains {
		if err := chain.validate(); err != nil {
			return nil, fmt.Errorf("%s chain: %w", kind, err)
		}
	}
	if history == nil {
		return nil, errors.New("history recorder is required")
	}
	if metrics == nil {
		return nil, errors.New("metrics is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &Controller{
		chains:  maps.Clone(chains),
		reports: reports,
		history: history,
		metrics: metrics,
		clock:   clk,
		policy:  policy.withDefaults(),
		logger:  logger.Named("workflow"),
		runs:    make(map[string]*Run),
	}, nil
}

// Start validates address, records an in-progress history item and runs the
// analysis in the background. The run is detached from ctx's cancellation;
// use Run.Cancel to stop it. Unsupported or invalid addresses are rejected
// without touching history.
func (c *Controller) Start(ctx context.Context, address string) (*Run, error) {
	address = strings.TrimSpace(address)
	kind, err := model.ResolveAnalyzable(address)
	if err != nil {
		return nil, err
	}
	chain, ok := c.chains[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s analysis is not configured", model.ErrUnsupportedChain, kind)
	}
	address = model.NormalizeAddress(kind, address)

	if c.isClosed() {
		return nil, ErrShuttingDown
	}

	item, err := c.history.Begin(ctx, address, kind)
	if err != nil {
		return nil, fmt.Errorf("begin history item: %w", err)
	}

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	run := newRun(item, chain, cancel)
	run.advance(StateFetching)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel(ErrCancelled)
		f := newFailure(model.ReasonCancelled, model.CategoryCancelled, ErrShuttingDown)
		if _, err := c.history.Fail(context.WithoutCancel(ctx), item.ID, f.Failure); err != nil {
			c.logger.Error("fail history item", zap.String("run_id", item.ID), zap.Error(err))
		}
		return nil, ErrShuttingDown
	}
	c.runs[run.id] = run
	c.active.Add(1)
	c.mu.Unlock()

	go c.execute(runCtx, run)
	return run, nil
}

// Analyze runs an analysis to its end. Cancelling ctx cancels the run.
func (c *Controller) Analyze(ctx context.Context, address string) (model.AnalysisHistoryItem, error) {
	run, err := c.Start(ctx, address)
	if err != nil {
		return model.AnalysisHistoryItem{}, err
	}
	select {
	case <-run.Done():
	case <-ctx.Done():
		run.Cancel()
		<-run.Done()
	}
	return run.Outcome()
}

// BatchResult is the outcome of one address of a batch.
type BatchResult struct {
	Address string
	Item    model.AnalysisHistoryItem
	Err     error
}

// AnalyzeBatch analyzes addresses with bounded concurrency. Results keep the
// input order; addresses not started before ctx ended carry ctx's error.
func (c *Controller) AnalyzeBatch(ctx context.Context, addresses []string) ([]BatchResult, error) {
	results, err := workerpool.Map(ctx, c.policy.BatchWorkers, addresses, func(ctx context.Context, address string) BatchResult {
		item, err := c.Analyze(ctx, address)
		return BatchResult{Address: address, Item: item, Err: err}
	})
	for i := range results {
		if results[i].Address == "" && results[i].Err == nil {
			results[i] = BatchResult{Address: addresses[i], Err: err}
		}
	}
	return results, err
}

// Lookup returns an active run.
func (c *Controller) Lookup(id string) (*Run, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	run, ok := c.runs[id]
	return run, ok
}

// Cancel cancels an active run and reports whether one was found.
func (c *Controller) Cancel(id string) bool {
	run, ok := c.Lookup(id)
	if ok {
		run.Cancel()
	}
	return ok
}

// Shutdown cancels every active run and waits for them to be finalized or
// for ctx to end.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	for _, run := range c.runs {
		run.Cancel()
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.active.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) execute(ctx context.Context, run *Run) {
	defer c.active.Done()
	defer func() {
		c.mu.Lock()
		delete(c.runs, run.id)
		c.mu.Unlock()
	}()
	defer run.cancel(nil)

	ctx, cancel := context.WithTimeoutCause(ctx, c.policy.OverallTimeout, ErrDeadlineExceeded)
	defer cancel()

	logger := c.logger.With(zap.String("run_id", run.id), zap.String("address", run.address))
	logger.Debug("analysis started")

	result, f := c.pipeline(ctx, run, logger)
	c.finish(ctx, run, result, f, logger)
}

func (c *Controller) pipeline(ctx context.Context, run *Run, logger *zap.Logger) (*model.AnalysisResult, *failure) {
	txs, f := c.fetch(ctx, run.chain.Fetcher, run.address)
	if f != nil {
		return nil, f
	}

	run.advance(StateExtracting)
	started := time.Now()
	vector := run.chain.Extract(txs, run.address)
	c.metrics.ObserveStage(stageExtract, nil, started)
	if f := interruption(ctx); f != nil {
		return nil, f
	}

	run.advance(StateClassifying)
	classification, report, f := c.gather(ctx, run.chain.Classifier, run.address, vector, logger)
	if f != nil {
		return nil, f
	}

	run.advance(StateAggregating)
	started = time.Now()
	result, err := aggregator.Aggregate(classification, report, c.clock.Now())
	c.metrics.ObserveStage(stageAggregate, err, started)
	if err != nil {
		return nil, aggregationFailure(err)
	}
	return &result, nil
}

func (c *Controller) fetch(ctx context.Context, fetcher TransactionFetcher, address string) ([]model.Transaction, *failure) {
	started := time.Now()
	txs, err := fetcher.Fetch(ctx, address)
	c.metrics.ObserveStage(stageFetch, err, started)

	if f := interruption(ctx); f != nil {
		return nil, f
	}
	if err != nil {
		return nil, fetchFailure(err)
	}
	if len(txs) == 0 {
		return nil, noTransactionsFailure()
	}
	return txs, nil
}

type classifyOutcome struct {
	result model.ClassificationResult
	err    error
}

type reportOutcome struct {
	report *model.CommunityReport
	err    error
}

// gather runs the classifier and the community lookup concurrently. A side
// that keeps failing is dropped; the aggregator decides whether what is left
// is enough.
func (c *Controller) gather(
	ctx context.Context,
	cls Classifier,
	address string,
	vector features.Vector,
	logger *zap.Logger,
) (*model.ClassificationResult, *model.CommunityReport, *failure) {
	classifyCh := make(chan classifyOutcome, 1)
	reportCh := make(chan reportOutcome, 1)

	pending := 1
	go func() {
		res, err := c.classify(ctx, cls, address, vector)
		classifyCh <- classifyOutcome{result: res, err: err}
	}()
	if c.reports != nil {
		pending++
		go func() {
			report, err := c.fetchReport(ctx, address)
			reportCh <- reportOutcome{report: report, err: err}
		}()
	}

	var (
		classification *model.ClassificationResult
		report         *model.CommunityReport
	)
	for ; pending > 0; pending-- {
		select {
		case <-ctx.Done():
			return nil, nil, interruption(ctx)
		case out := <-classifyCh:
			if out.err != nil {
				if terminalClassification(out.err) {
					return nil, nil, classificationFailure(out.err)
				}
				logger.Warn("classification unavailable", zap.Error(out.err))
				continue
			}
			res := out.result
			classification = &res
		case out := <-reportCh:
			if out.err != nil {
				logger.Warn("community report unavailable", zap.Error(out.err))
				continue
			}
			report = out.report
		}
	}

	// Results that raced the deadline or a cancellation are discarded.
	if f := interruption(ctx); f != nil {
		return nil, nil, f
	}
	return classification, report, nil
}

func (c *Controller) classify(
	ctx context.Context,
	cls Classifier,
	address string,
	vector features.Vector,
) (res model.ClassificationResult, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveStage(stageClassify, err, started)
	}()

	err = retry.Do(ctx, c.retryPolicy(callClassify, classifier.IsRetryable), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.policy.CallTimeout)
		defer cancel()

		out, err := cls.Classify(callCtx, address, vector)
		if err != nil {
			return err
		}
		res = out
		return nil
	})
	return res, err
}

func (c *Controller) fetchReport(ctx context.Context, address string) (report *model.CommunityReport, err error) {
	started := time.Now()
	defer func() {
		c.metrics.ObserveStage(stageReport, err, started)
	}()

	// Report lookups only fail on transport errors, all of which are retried.
	err = retry.Do(ctx, c.retryPolicy(callReport, nil), func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.policy.CallTimeout)
		defer cancel()

		out, err := c.reports.FetchReport(callCtx, address)
		if err != nil {
			return err
		}
		report = out
		return nil
	})
	return report, err
}

func (c *Controller) retryPolicy(call string, retryable func(error) bool) retry.Policy {
	p := retry.Policy{
		MaxAttempts: c.policy.MaxRetries + 1,
		BaseDelay:   c.policy.RetryBaseDelay,
		MaxDelay:    c.policy.RetryMaxDelay,
		Jitter:      c.policy.RetryBaseDelay / 2,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			c.metrics.ObserveRetry(call)
			c.logger.Debug("retrying call",
				zap.String("call", call), zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
		},
	}
	if retryable != nil {
		p.Classify = func(err error) retry.Class {
			if retryable(err) {
				return retry.Retryable
			}
			return retry.Fatal
		}
	}
	return p
}

// finish finalizes the history item and publishes the outcome. It runs once
// per run, on a context that survives the run's cancellation.
func (c *Controller) finish(ctx context.Context, run *Run, result *model.AnalysisResult, f *failure, logger *zap.Logger) {
	finalCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	pending, _ := run.Outcome()
	now := c.clock.Now()

	if f == nil {
		item, err := c.history.Complete(finalCtx, run.id, *result)
		if err != nil {
			logger.Error("complete history item", zap.Error(err))
			item = pending
			item.Status = model.StatusCompleted
			item.Result = result
			item.UpdatedAt = now
		}
		if run.complete(StateCompleted, item, nil) {
			c.metrics.ObserveRun(StateCompleted.String(), "", run.started)
			logger.Info("analysis completed",
				zap.Bool("is_safe", result.IsSafe), zap.String("source", string(result.Source)))
		}
		return
	}

	item, err := c.history.Fail(finalCtx, run.id, f.Failure)
	if err != nil {
		logger.Error("fail history item", zap.Error(err))
		item = pending
		item.Status = model.StatusFailed
		stored := f.Failure
		item.Failure = &stored
		item.UpdatedAt = now
	}

	state := StateFailed
	if f.Reason == model.ReasonCancelled {
		state = StateCancelled
	}
	runErr := &Error{RunID: run.id, Failure: f.Failure, Err: f.cause}
	if run.complete(state, item, runErr) {
		c.metrics.ObserveRun(state.String(), string(f.Reason), run.started)
		logger.Info("analysis did not complete",
			zap.String("reason", string(f.Reason)), zap.String("category", string(f.Category)), zap.Error(f.cause))
	}
}
