// Package kernel runs one-time initialization work in a compute kernel once
// it reports ready.
package kernel

import (
	"context"
	"fmt"
)

// Status is a kernel's execution status.
type Status int

const (
	StatusUnknown Status = iota
	StatusStarting
	StatusIdle
	StatusBusy
	StatusRestarting
	StatusDead
)

func (s Status) String() string {
	switch s {
	case StatusUnknown:
		return "unknown"
	case StatusStarting:
		return "starting"
	case StatusIdle:
		return "idle"
	case StatusBusy:
		return "busy"
	case StatusRestarting:
		return "restarting"
	case StatusDead:
		return "dead"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ExecuteOptions controls a code submission.
type ExecuteOptions struct {
	StopOnError bool
}

// Kernel is the compute backend a notebook session talks to.
type Kernel interface {
	Status() Status

	// OnStatusChanged registers fn for every status transition and returns
	// a function that unregisters it.
	OnStatusChanged(fn func(Status)) (unsubscribe func())

	// Execute submits code. A nil error acknowledges the submission only;
	// it says nothing about how execution went.
	Execute(ctx context.Context, code string, opts ExecuteOptions) error
}
