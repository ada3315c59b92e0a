package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/plugflow/internal/executor"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/inmemorystore"
	"github.com/vk/plugflow/internal/nodeid"
)

// Run builds the grid, applies command-line overrides, evaluates every
// request and prints one "address = value" line per result.
func (a *App) Run(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer func() {
			if err := a.closeHealthcheckServer(ctx); err != nil {
				a.logger.Warn("Health check server did not shut down cleanly.", "error", err)
			}
		}()
	}

	g, requests, err := a.buildGraph(ctx)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		a.logger.Warn("No requests found in grid, nothing to evaluate.")
		return nil
	}

	store := inmemorystore.New()
	results, err := executor.New(g, store, a.config.WorkerCount).Execute(ctx, requests)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	for _, r := range results {
		a.printf("%s = %s\n", r.Address, r.Value)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// Validate builds the grid without evaluating it and prints a summary.
func (a *App) Validate(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	g, requests, err := a.buildGraph(ctx)
	if err != nil {
		return err
	}
	if _, err := g.Levels(); err != nil {
		return err
	}
	a.printf("%d node types, %d instances, %d connections, %d requests: ok\n",
		len(a.registry.Names()), len(g.Instances()), len(g.Connections()), len(requests))
	return nil
}

func (a *App) buildGraph(ctx context.Context) (*graph.Graph, []nodeid.Address, error) {
	g, requests, err := graph.Build(ctx, a.engine, a.model.Grid, a.converter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build grid: %w", err)
	}

	for _, s := range a.config.Sets {
		rawAddr, src, _ := strings.Cut(s, "=")
		addr, err := nodeid.Parse(strings.TrimSpace(rawAddr))
		if err != nil {
			return nil, nil, fmt.Errorf("set: %w", err)
		}
		val, err := a.converter.ParseValue(ctx, src)
		if err != nil {
			return nil, nil, fmt.Errorf("set %s: %w", addr, err)
		}
		if err := g.Set(ctx, addr, val); err != nil {
			return nil, nil, err
		}
	}

	for _, raw := range a.config.Requests {
		addr, err := nodeid.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("request: %w", err)
		}
		if _, err := g.NodeType(addr.Instance); err != nil {
			return nil, nil, fmt.Errorf("request: %w", err)
		}
		requests = append(requests, addr)
	}
	return g, requests, nil
}
