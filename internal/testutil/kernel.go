package testutil

import (
	"context"
	"sync"

	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/kernel"
	"github.com/tradingstrategy-ai/notebook-webcomponent/internal/signal"
)

// FakeKernel is a kernel.Kernel driven by SetStatus.
type FakeKernel struct {
	mu         sync.Mutex
	status     kernel.Status
	executed   []Execution
	executeErr error

	changed signal.Signal[kernel.Status]
}

// Execution records one Execute call.
type Execution struct {
	Code string
	Opts kernel.ExecuteOptions

	// CtxErr is the context's error at the time of the call.
	CtxErr error
}

var _ kernel.Kernel = (*FakeKernel)(nil)

// NewFakeKernel creates a kernel reporting initial.
func NewFakeKernel(initial kernel.Status) *FakeKernel {
	return &FakeKernel{status: initial}
}

func (k *FakeKernel) Status() kernel.Status {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.status
}

// SetStatus changes the status and notifies subscribers on the calling goroutine.
func (k *FakeKernel) SetStatus(st kernel.Status) {
	k.mu.Lock()
	k.status = st
	k.mu.Unlock()

	k.changed.Emit(st)
}

func (k *FakeKernel) OnStatusChanged(fn func(kernel.Status)) func() {
	return k.changed.Connect(fn)
}

func (k *FakeKernel) Execute(ctx context.Context, code string, opts kernel.ExecuteOptions) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.executed = append(k.executed, Execution{Code: code, Opts: opts, CtxErr: ctx.Err()})
	return k.executeErr
}

// FailExecute makes every later Execute call return err after recording it.
func (k *FakeKernel) FailExecute(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.executeErr = err
}

// Executed returns the recorded submissions.
func (k *FakeKernel) Executed() []Execution {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]Execution(nil), k.executed...)
}

// Subscribers returns the number of connected status listeners.
func (k *FakeKernel) Subscribers() int {
	return k.changed.Len()
}
