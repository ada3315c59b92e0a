// Package nodestore defines where the executor records the evaluation state
// of a run: the status of every instance it visits, the values it pulled for
// requested plugs, and the error that stopped an instance.
//
// The store is separate from the engine. The engine owns plug values and
// dirty flags; the store only remembers what one executor run observed, so a
// caller can report on it after the run ends.
//
// Instances move through
//
//	Pending → Running → Completed | Failed
package nodestore

import (
	"context"

	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/plug"
)

// Status is the evaluation state of one instance within a run.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Store records per-instance status and errors and per-plug outputs.
//
// Implementations must be safe for concurrent use: the executor evaluates the
// instances of one level from several goroutines.
type Store interface {
	// SetStatus records the status of an instance.
	SetStatus(ctx context.Context, instance string, status Status) error
	// GetStatus returns StatusPending for an instance never recorded.
	GetStatus(ctx context.Context, instance string) (Status, error)

	// SetOutput records the value pulled for a plug address.
	SetOutput(ctx context.Context, addr nodeid.Address, value plug.Value) error
	// GetOutput reports false when nothing was recorded for addr.
	GetOutput(ctx context.Context, addr nodeid.Address) (plug.Value, bool, error)

	// SetError records why an instance failed.
	SetError(ctx context.Context, instance string, nodeErr error) error
	// GetError returns nil for an instance that did not fail.
	GetError(ctx context.Context, instance string) (error, error)
}
