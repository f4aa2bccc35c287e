package kernel

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

type sequencerState int32

const (
	stateAwaitingIdle sequencerState = iota
	stateFired
	stateCancelled
)

// Sequencer submits an initialization program exactly once, deferred until
// the kernel first reports idle.
//
// States: AwaitingIdle -> Fired, or AwaitingIdle -> Cancelled. Both are
// terminal. The transition out of AwaitingIdle is a compare-and-swap, so an
// idle status seen while subscribing and an idle notification racing with
// it still submit once.
type Sequencer struct {
	state  atomic.Int32
	logger *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
	subscribed  bool
}

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) {
		s.logger = l
	}
}

// NewSequencer creates a Sequencer awaiting idle.
func NewSequencer(opts ...Option) *Sequencer {
	s := &Sequencer{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run submits program to k now if k is idle, otherwise on k's first idle
// transition. Run does not wait for the program's outcome. Calling Run
// again after the program fired, or while it is already waiting, is a no-op.
//
// ctx is passed to Execute, which may happen long after Run returns.
func (s *Sequencer) Run(ctx context.Context, k Kernel, program string) {
	if s.done() {
		return
	}

	if k.Status() == StatusIdle {
		s.fire(ctx, k, program)
		return
	}

	s.mu.Lock()
	if s.subscribed {
		s.mu.Unlock()
		return
	}
	s.subscribed = true
	s.mu.Unlock()

	unsubscribe := k.OnStatusChanged(func(st Status) {
		if st == StatusIdle {
			s.fire(ctx, k, program)
		}
	})

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()

	// The notification may have run before unsubscribe was stored, or the
	// kernel may have gone idle between the status check and subscribing.
	if s.done() {
		s.detach()
		return
	}
	if k.Status() == StatusIdle {
		s.fire(ctx, k, program)
	}
}

// Fired reports whether the program was submitted.
func (s *Sequencer) Fired() bool {
	return sequencerState(s.state.Load()) == stateFired
}

// Cancel stops waiting for idle without submitting. It has no effect once
// the program fired.
func (s *Sequencer) Cancel() {
	if s.state.CompareAndSwap(int32(stateAwaitingIdle), int32(stateCancelled)) {
		s.detach()
	}
}

func (s *Sequencer) done() bool {
	return sequencerState(s.state.Load()) != stateAwaitingIdle
}

func (s *Sequencer) fire(ctx context.Context, k Kernel, program string) {
	if !s.state.CompareAndSwap(int32(stateAwaitingIdle), int32(stateFired)) {
		return
	}
	s.detach()

	s.logger.Info("kernel idle, submitting initialization program")
	if err := k.Execute(ctx, program, ExecuteOptions{StopOnError: true}); err != nil {
		s.logger.Warn("initialization program submission failed", "error", err)
	}
}

func (s *Sequencer) detach() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
