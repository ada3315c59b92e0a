package graph

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/dag"
	"github.com/vk/plugflow/internal/engine"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
)

var (
	ErrDuplicateInstance = errors.New("duplicate instance name")
	ErrInvalidName       = errors.New("invalid instance name")
	ErrKindMismatch      = errors.New("plug kinds do not match")
	ErrAlreadyDriven     = errors.New("input already has a source")
	ErrCycle             = errors.New("connection would create a cycle")
	ErrDrivenInput       = errors.New("input is driven by a connection")
	ErrNotConnected      = errors.New("input has no source")
)

// Connection links an output plug to an input plug. Both addresses carry
// canonical plug keys.
type Connection struct {
	From nodeid.Address
	To   nodeid.Address
}

type instance struct {
	name     string
	handle   uuid.UUID
	nodeType *nodetype.NodeType
}

// Graph holds named instances of an engine and the connections between
// their plugs. It is safe for concurrent use.
type Graph struct {
	engine   *engine.Engine
	topology *dag.Graph

	mu        sync.RWMutex
	instances map[string]*instance
	// drivers maps an input address to the output feeding it.
	drivers map[string]nodeid.Address
	// consumers maps an output address to the inputs it feeds.
	consumers map[string][]nodeid.Address
	// links counts connections per instance pair to keep topology edges.
	links map[[2]string]int
}

// New creates an empty graph over eng.
func New(eng *engine.Engine) *Graph {
	return &Graph{
		engine:    eng,
		topology:  dag.New(),
		instances: make(map[string]*instance),
		drivers:   make(map[string]nodeid.Address),
		consumers: make(map[string][]nodeid.Address),
		links:     make(map[[2]string]int),
	}
}

// Engine returns the engine the graph's instances live in.
func (g *Graph) Engine() *engine.Engine { return g.engine }

// AddInstance instantiates typeName under name.
func (g *Graph) AddInstance(ctx context.Context, typeName, name string) error {
	if !nodeid.ValidInstanceName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.instances[name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateInstance, name)
	}
	h, err := g.engine.Instantiate(ctx, typeName)
	if err != nil {
		return fmt.Errorf("instance '%s': %w", name, err)
	}
	inst, err := g.engine.Instance(h)
	if err != nil {
		return err
	}
	g.instances[name] = &instance{name: name, handle: h, nodeType: inst.NodeType()}
	g.topology.AddNode(name)

	ctxlog.FromContext(ctx).Debug("Instance added to graph.", "instance", name, "node_type", typeName)
	return nil
}

// RemoveInstance disconnects and destroys an instance. Inputs it fed are
// invalidated.
func (g *Graph) RemoveInstance(ctx context.Context, name string) error {
	g.mu.Lock()
	inst, ok := g.instances[name]
	if !ok {
		g.mu.Unlock()
		return unknownInstance(name)
	}

	var orphaned []nodeid.Address
	for key, src := range g.drivers {
		to := nodeid.MustParse(key)
		switch {
		case src.Instance == name:
			orphaned = append(orphaned, to)
			g.unlinkLocked(src, to)
		case to.Instance == name:
			g.unlinkLocked(src, to)
		}
	}
	delete(g.instances, name)
	g.topology.RemoveNode(name)
	g.mu.Unlock()

	if err := g.engine.Destroy(ctx, inst.handle); err != nil {
		return err
	}
	for _, to := range orphaned {
		if err := g.Invalidate(ctx, to); err != nil {
			return err
		}
	}
	return nil
}

// Instances returns the instance names in sorted order.
func (g *Graph) Instances() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Sorted(maps.Keys(g.instances))
}

// NodeType returns the node type of the named instance.
func (g *Graph) NodeType(name string) (*nodetype.NodeType, error) {
	inst, err := g.lookup(name)
	if err != nil {
		return nil, err
	}
	return inst.nodeType, nil
}

// Levels groups the named instances and everything upstream of them into
// levels of mutually independent instances. No names selects every
// instance.
func (g *Graph) Levels(names ...string) ([][]string, error) {
	return g.topology.Levels(names...)
}

// IsDirty reports the dirty flag of the addressed plug.
func (g *Graph) IsDirty(addr nodeid.Address) (bool, error) {
	inst, desc, err := g.resolve(addr)
	if err != nil {
		return false, err
	}
	return g.engine.IsDirty(inst.handle, desc.Key)
}

func (g *Graph) lookup(name string) (*instance, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	inst, ok := g.instances[name]
	if !ok {
		return nil, unknownInstance(name)
	}
	return inst, nil
}

// resolve finds the instance and plug descriptor behind addr.
func (g *Graph) resolve(addr nodeid.Address) (*instance, *plug.Descriptor, error) {
	inst, err := g.lookup(addr.Instance)
	if err != nil {
		return nil, nil, err
	}
	desc, err := inst.nodeType.Describe(addr.Plug)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", addr, err)
	}
	return inst, desc, nil
}

func unknownInstance(name string) error {
	return nodeerr.New(nodeerr.ErrUnknownInstance, "", "", "no instance named '%s'", name)
}
