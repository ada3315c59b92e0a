package graph

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodeid"
)

// Connect feeds the output at from into the input at to. The input is
// invalidated, together with everything downstream of it.
func (g *Graph) Connect(ctx context.Context, from, to nodeid.Address) error {
	if from.HasIndex() || to.HasIndex() {
		return fmt.Errorf("connect %s -> %s: element addresses cannot be connected", from, to)
	}
	src, srcDesc, err := g.resolve(from)
	if err != nil {
		return err
	}
	dst, dstDesc, err := g.resolve(to)
	if err != nil {
		return err
	}
	if !srcDesc.IsOutput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, src.nodeType.Name(), srcDesc.Key, "connection source must be an output")
	}
	if !dstDesc.IsInput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, dst.nodeType.Name(), dstDesc.Key, "connection target must be an input")
	}
	if srcDesc.Kind != dstDesc.Kind || !srcDesc.Type().Equals(dstDesc.Type()) {
		return fmt.Errorf("%w: %s is %s, %s is %s", ErrKindMismatch, from, srcDesc.Type().FriendlyName(), to, dstDesc.Type().FriendlyName())
	}

	from = nodeid.New(src.name, srcDesc.Key)
	to = nodeid.New(dst.name, dstDesc.Key)

	g.mu.Lock()
	if prev, driven := g.drivers[to.String()]; driven {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s is fed by %s", ErrAlreadyDriven, to, prev)
	}
	if g.topology.Reachable(dst.name, src.name) {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrCycle, from, to)
	}
	pair := [2]string{src.name, dst.name}
	if g.links[pair] == 0 {
		if err := g.topology.AddEdge(src.name, dst.name); err != nil {
			g.mu.Unlock()
			return err
		}
	}
	g.links[pair]++
	g.drivers[to.String()] = from
	g.consumers[from.String()] = append(g.consumers[from.String()], to)
	g.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Plugs connected.", "from", from.String(), "to", to.String())
	return g.Invalidate(ctx, to)
}

// Disconnect removes the connection feeding the input at to. The input
// keeps its last pulled value and is invalidated.
func (g *Graph) Disconnect(ctx context.Context, to nodeid.Address) error {
	dst, dstDesc, err := g.resolve(to)
	if err != nil {
		return err
	}
	to = nodeid.New(dst.name, dstDesc.Key)

	g.mu.Lock()
	from, driven := g.drivers[to.String()]
	if !driven {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotConnected, to)
	}
	g.unlinkLocked(from, to)
	g.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Plugs disconnected.", "from", from.String(), "to", to.String())
	return g.Invalidate(ctx, to)
}

// Driver returns the output feeding the input at to, if any.
func (g *Graph) Driver(to nodeid.Address) (nodeid.Address, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	from, ok := g.drivers[to.Whole().String()]
	return from, ok
}

// Connections returns every connection ordered by target address.
func (g *Graph) Connections() []Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Connection, 0, len(g.drivers))
	for key, from := range g.drivers {
		out = append(out, Connection{From: from, To: nodeid.MustParse(key)})
	}
	slices.SortFunc(out, func(a, b Connection) int {
		return strings.Compare(a.To.String(), b.To.String())
	})
	return out
}

func (g *Graph) unlinkLocked(from, to nodeid.Address) {
	delete(g.drivers, to.String())

	key := from.String()
	g.consumers[key] = slices.DeleteFunc(g.consumers[key], func(a nodeid.Address) bool { return a == to })
	if len(g.consumers[key]) == 0 {
		delete(g.consumers, key)
	}

	pair := [2]string{from.Instance, to.Instance}
	g.links[pair]--
	if g.links[pair] <= 0 {
		delete(g.links, pair)
		g.topology.RemoveEdge(from.Instance, to.Instance)
	}
}
