package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fradiumofficial/fradium-sub002/internal/classifier"
	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

var (
	// ErrCancelled is the cancellation cause of a run stopped by its caller.
	ErrCancelled = errors.New("analysis cancelled")
	// ErrDeadlineExceeded is the cancellation cause of a run that outlived its overall timeout.
	ErrDeadlineExceeded = errors.New("analysis deadline exceeded")
	// ErrNoTransactions is reported when the address has no transaction history.
	ErrNoTransactions = errors.New("no transactions found")
	// ErrShuttingDown is returned by Start once Shutdown has been called.
	ErrShuttingDown = errors.New("controller is shutting down")
)

// Error is the terminal error of a run that did not complete.
type Error struct {
	RunID   string
	Failure model.Failure
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("analysis %s %s: %s", e.RunID, e.Failure.Reason, e.Failure.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// failure pairs a user-facing failure with its underlying cause.
type failure struct {
	model.Failure
	cause error
}

func newFailure(reason model.FailureReason, category model.ErrorCategory, cause error) *failure {
	f := &failure{
		Failure: model.Failure{
			Reason:   reason,
			Category: category,
			Message:  category.Message(),
		},
		cause: cause,
	}
	if cause != nil {
		f.Detail = cause.Error()
	}
	return f
}

// interruption returns the failure of a run whose context has ended, or nil.
func interruption(ctx context.Context) *failure {
	if ctx.Err() == nil {
		return nil
	}
	if errors.Is(context.Cause(ctx), ErrDeadlineExceeded) {
		return newFailure(model.ReasonTimeout, model.CategoryTimeout, ErrDeadlineExceeded)
	}
	return newFailure(model.ReasonCancelled, model.CategoryCancelled, ErrCancelled)
}

func fetchFailure(err error) *failure {
	category := model.CategoryConnectivity
	if rateLimited(err) {
		category = model.CategoryRateLimited
	}
	return newFailure(model.ReasonTransactionFetch, category, err)
}

func noTransactionsFailure() *failure {
	return newFailure(model.ReasonNoTransactionsFound, model.CategoryInvalidAddress, ErrNoTransactions)
}

func classificationFailure(err error) *failure {
	category := model.CategoryServiceUnavailable
	var cerr *classifier.Error
	if errors.As(err, &cerr) && cerr.Kind == classifier.KindRemoteRejected {
		category = rejectionCategory(cerr.Message)
	}
	return newFailure(model.ReasonClassification, category, err)
}

func aggregationFailure(err error) *failure {
	return newFailure(model.ReasonAggregation, model.CategoryServiceUnavailable, err)
}

func rejectionCategory(message string) model.ErrorCategory {
	msg := strings.ToLower(message)
	for _, hint := range []string{"auth", "forbidden", "api key", "apikey", "credential"} {
		if strings.Contains(msg, hint) {
			return model.CategoryConfigurationAuth
		}
	}
	if strings.Contains(msg, "rate") {
		return model.CategoryRateLimited
	}
	return model.CategoryServiceUnavailable
}

// rateLimited reports whether any error in the chain says it was throttled.
func rateLimited(err error) bool {
	var limited interface{ RateLimited() bool }
	return errors.As(err, &limited) && limited.RateLimited()
}

// terminalClassification reports whether a classifier error must fail the
// run instead of being treated as a missing signal.
func terminalClassification(err error) bool {
	kind, ok := classifier.KindOf(err)
	return ok && (kind == classifier.KindRemoteRejected || kind == classifier.KindInvalidResponse)
}
