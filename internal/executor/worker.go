package executor

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/nodetype"
)

// runInstance pulls every target of one instance and records the outcome.
func (e *Executor) runInstance(ctx context.Context, name string, targets []nodeid.Address) error {
	logger := ctxlog.FromContext(ctx).With("instance", name)

	if err := ctx.Err(); err != nil {
		logger.Debug("Skipping instance, run cancelled.")
		return err
	}

	nt, err := e.graph.NodeType(name)
	if err != nil {
		return err
	}
	if nt.Mode() == nodetype.Serial {
		if err := e.serial.Acquire(ctx, 1); err != nil {
			return err
		}
		defer e.serial.Release(1)
	}

	if err := e.store.SetStatus(ctx, name, nodestore.StatusRunning); err != nil {
		return err
	}
	logger.Debug("Instance picked up for execution.", "targets", len(targets))

	for _, addr := range targets {
		v, err := e.graph.Pull(ctx, addr)
		if err != nil {
			return e.fail(ctx, name, fmt.Errorf("instance '%s': %w", name, err))
		}
		if err := e.store.SetOutput(ctx, addr, v); err != nil {
			return err
		}
	}

	logger.Debug("Instance execution succeeded.")
	return e.store.SetStatus(ctx, name, nodestore.StatusCompleted)
}

func (e *Executor) fail(ctx context.Context, name string, cause error) error {
	ctxlog.FromContext(ctx).Error("Instance execution failed.", "instance", name, "error", cause)
	if err := e.store.SetError(ctx, name, cause); err != nil {
		return err
	}
	if err := e.store.SetStatus(ctx, name, nodestore.StatusFailed); err != nil {
		return err
	}
	return cause
}
