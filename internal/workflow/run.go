package workflow

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fradiumofficial/fradium-sub002/internal/model"
)

// Run is a handle to one analysis in progress. It is safe for concurrent use.
type Run struct {
	id      string
	address string
	chain   Chain
	started time.Time
	cancel  context.CancelCauseFunc
	done    chan struct{}
	state   atomic.Int32

	once sync.Once
	mu   sync.Mutex
	item model.AnalysisHistoryItem
	err  error
}

func newRun(item model.AnalysisHistoryItem, chain Chain, cancel context.CancelCauseFunc) *Run {
	return &Run{
		id:      item.ID,
		address: item.Address,
		chain:   chain,
		started: time.Now(),
		cancel:  cancel,
		done:    make(chan struct{}),
		item:    item,
	}
}

// ID is the history item id of the run.
func (r *Run) ID() string {
	return r.id
}

func (r *Run) Address() string {
	return r.address
}

func (r *Run) State() State {
	return State(r.state.Load())
}

// Cancel asks the run to stop. Results of calls still in flight are discarded.
// Cancelling a finished run has no effect.
func (r *Run) Cancel() {
	r.cancel(ErrCancelled)
}

// Done is closed once the run reached a terminal state and its history item
// was finalized.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes or ctx ends.
func (r *Run) Wait(ctx context.Context) (model.AnalysisHistoryItem, error) {
	select {
	case <-ctx.Done():
		return model.AnalysisHistoryItem{}, ctx.Err()
	case <-r.done:
		return r.Outcome()
	}
}

// Outcome returns the latest history item of the run and, once finished,
// the *Error of a run that did not complete.
func (r *Run) Outcome() (model.AnalysisHistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.item, r.err
}

// advance moves a non-terminal run to next.
func (r *Run) advance(next State) bool {
	for {
		cur := r.state.Load()
		if State(cur).Terminal() {
			return false
		}
		if r.state.CompareAndSwap(cur, int32(next)) {
			return true
		}
	}
}

// complete records the terminal outcome exactly once.
func (r *Run) complete(state State, item model.AnalysisHistoryItem, err error) bool {
	first := false
	r.once.Do(func() {
		first = true
		r.mu.Lock()
		r.item = item
		r.err = err
		r.mu.Unlock()
		r.state.Store(int32(state))
		close(r.done)
	})
	return first
}
