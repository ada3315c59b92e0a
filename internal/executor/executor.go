package executor

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/plug"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Result is the value pulled for one requested address.
type Result struct {
	Address nodeid.Address
	Value   plug.Value
}

// Executor runs requests against one graph.
type Executor struct {
	graph   *graph.Graph
	store   nodestore.Store
	workers int
	serial  *semaphore.Weighted
}

// New creates an executor. A worker limit below one uses GOMAXPROCS.
func New(g *graph.Graph, store nodestore.Store, workers int) *Executor {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Executor{
		graph:   g,
		store:   store,
		workers: workers,
		serial:  semaphore.NewWeighted(1),
	}
}

// Execute evaluates every requested address and returns the results in
// request order.
func (e *Executor) Execute(ctx context.Context, requests []nodeid.Address) ([]Result, error) {
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	p, err := e.plan(requests)
	if err != nil {
		return nil, err
	}
	for _, level := range p.levels {
		for _, name := range level {
			if err := e.store.SetStatus(ctx, name, nodestore.StatusPending); err != nil {
				return nil, err
			}
		}
	}
	logger.Info("Starting execution.", "requests", len(requests), "levels", len(p.levels), "workers", e.workers)

	for i, level := range p.levels {
		logger.Debug("Running level.", "level", i, "instances", level)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.workers)
		for _, name := range level {
			g.Go(func() error {
				return e.runInstance(gctx, name, p.targets[name])
			})
		}
		if err := g.Wait(); err != nil {
			logger.Error("Execution failed.", "level", i, "error", err)
			return nil, err
		}
	}

	results := make([]Result, 0, len(requests))
	for _, addr := range requests {
		v, ok, err := e.store.GetOutput(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("no value recorded for %s", addr)
		}
		results = append(results, Result{Address: addr, Value: v})
	}

	logger.Info("Execution finished.", "results", len(results), "duration", time.Since(start))
	return results, nil
}
