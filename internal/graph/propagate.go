package graph

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

// Set assigns an undriven input. When the value changes, every input
// downstream of it is invalidated.
func (g *Graph) Set(ctx context.Context, addr nodeid.Address, value cty.Value) error {
	if addr.HasIndex() {
		return fmt.Errorf("set %s: element addresses cannot be assigned", addr)
	}
	inst, desc, err := g.resolve(addr)
	if err != nil {
		return err
	}
	if !desc.IsInput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, inst.nodeType.Name(), desc.Key, "only inputs can be set")
	}
	addr = nodeid.New(inst.name, desc.Key)
	if from, driven := g.Driver(addr); driven {
		return fmt.Errorf("%w: %s is fed by %s", ErrDrivenInput, addr, from)
	}

	changed, err := g.engine.SetInput(ctx, inst.handle, desc.Key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", addr, err)
	}
	if !changed {
		return nil
	}
	return g.propagate(ctx, inst, desc.Key, map[string]bool{addr.String(): true})
}

// Invalidate marks the input at addr dirty and pushes the invalidation
// through every connection downstream of it.
func (g *Graph) Invalidate(ctx context.Context, addr nodeid.Address) error {
	inst, desc, err := g.resolve(addr)
	if err != nil {
		return err
	}
	if !desc.IsInput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, inst.nodeType.Name(), desc.Key, "only inputs can be invalidated")
	}
	addr = nodeid.New(inst.name, desc.Key)
	if err := g.engine.OnUpstreamChanged(ctx, inst.handle, desc.Key); err != nil {
		return err
	}
	return g.propagate(ctx, inst, desc.Key, map[string]bool{addr.String(): true})
}

// propagate invalidates the consumers of every output affected by input key.
// seen stops repeated work when paths reconverge.
func (g *Graph) propagate(ctx context.Context, inst *instance, key string, seen map[string]bool) error {
	for _, out := range inst.nodeType.Table().DependentsOf(key) {
		g.mu.RLock()
		consumers := append([]nodeid.Address(nil), g.consumers[nodeid.New(inst.name, out).String()]...)
		g.mu.RUnlock()

		for _, to := range consumers {
			if seen[to.String()] {
				continue
			}
			seen[to.String()] = true

			down, err := g.lookup(to.Instance)
			if err != nil {
				return err
			}
			if err := g.engine.OnUpstreamChanged(ctx, down.handle, to.Plug); err != nil {
				return err
			}
			ctxlog.FromContext(ctx).Debug("Invalidated downstream input.", "input", to.String(), "source", inst.name+"."+out)
			if err := g.propagate(ctx, down, to.Plug, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

// Pull returns the current value of the addressed plug. Driven inputs of the
// instance are refreshed from their sources first, recursively, so the value
// reflects every change upstream. An element address selects one element of
// an array plug.
func (g *Graph) Pull(ctx context.Context, addr nodeid.Address) (plug.Value, error) {
	inst, desc, err := g.resolve(addr)
	if err != nil {
		return plug.Value{}, err
	}

	var v plug.Value
	if desc.IsOutput() {
		if err := g.refresh(ctx, inst); err != nil {
			return plug.Value{}, err
		}
		v, err = g.engine.RequestValue(ctx, inst.handle, desc.Key)
	} else {
		if err := g.refreshInput(ctx, inst, desc.Key); err != nil {
			return plug.Value{}, err
		}
		v, err = g.engine.Input(inst.handle, desc.Key)
	}
	if err != nil {
		return plug.Value{}, fmt.Errorf("pull %s: %w", addr, err)
	}

	if addr.HasIndex() {
		return plug.Element(desc, v, addr.Index)
	}
	return v, nil
}

// refresh copies fresh values into every stale driven input of inst.
func (g *Graph) refresh(ctx context.Context, inst *instance) error {
	for _, key := range inst.nodeType.Plugs().Inputs() {
		if err := g.refreshInput(ctx, inst, key); err != nil {
			return err
		}
	}
	return nil
}

func (g *Graph) refreshInput(ctx context.Context, inst *instance, key string) error {
	from, driven := g.Driver(nodeid.New(inst.name, key))
	if !driven {
		return nil
	}
	dirty, err := g.engine.IsDirty(inst.handle, key)
	if err != nil || !dirty {
		return err
	}

	v, err := g.Pull(ctx, from)
	if err != nil {
		return err
	}
	if _, err := g.engine.SetInput(ctx, inst.handle, key, v.Cty()); err != nil {
		return fmt.Errorf("feed %s into %s.%s: %w", from, inst.name, key, err)
	}
	return nil
}
