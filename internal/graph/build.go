package graph

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/engine"
	"github.com/vk/plugflow/internal/nodeid"
)

// Build creates the graph described by grid: instances first, then
// connections, then the literal input values. It returns the parsed request
// addresses alongside.
func Build(ctx context.Context, eng *engine.Engine, grid *config.Grid, conv config.Converter) (*Graph, []nodeid.Address, error) {
	logger := ctxlog.FromContext(ctx)
	g := New(eng)

	for _, in := range grid.Instances {
		if err := g.AddInstance(ctx, in.NodeType, in.Name); err != nil {
			return nil, nil, err
		}
	}

	for _, c := range grid.Connections {
		from, err := nodeid.Parse(c.From)
		if err != nil {
			return nil, nil, fmt.Errorf("connect from: %w", err)
		}
		to, err := nodeid.Parse(c.To)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to: %w", err)
		}
		if err := g.Connect(ctx, from, to); err != nil {
			return nil, nil, err
		}
	}

	for _, in := range grid.Instances {
		for _, key := range slices.Sorted(maps.Keys(in.Set)) {
			val, err := conv.Evaluate(ctx, in.Set[key])
			if err != nil {
				return nil, nil, fmt.Errorf("instance '%s', input '%s': %w", in.Name, key, err)
			}
			if err := g.Set(ctx, nodeid.New(in.Name, key), val); err != nil {
				return nil, nil, err
			}
		}
	}

	requests := make([]nodeid.Address, 0, len(grid.Requests))
	for _, raw := range grid.Requests {
		addr, err := nodeid.Parse(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("request: %w", err)
		}
		if _, _, err := g.resolve(addr); err != nil {
			return nil, nil, fmt.Errorf("request: %w", err)
		}
		requests = append(requests, addr)
	}

	logger.Info("Grid built.", "instances", len(grid.Instances), "connections", len(grid.Connections), "requests", len(requests))
	return g, requests, nil
}
