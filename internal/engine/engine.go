package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/metrics"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Engine is the host boundary: it declares node types, owns instances and
// routes every read through the dispatcher.
type Engine struct {
	registry   *registry.Registry
	dispatcher *Dispatcher

	mu        sync.RWMutex
	instances map[uuid.UUID]*Instance
}

// New creates an engine over reg. rec may be nil.
func New(reg *registry.Registry, rec *metrics.Recorder) *Engine {
	return &Engine{
		registry:   reg,
		dispatcher: NewDispatcher(rec),
		instances:  make(map[uuid.UUID]*Instance),
	}
}

// Registry returns the node-type registry the engine declares into.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// DeclareNodeType finalizes decl and registers the resulting node type.
func (e *Engine) DeclareNodeType(ctx context.Context, decl nodetype.Declaration) (*nodetype.NodeType, error) {
	nt, err := nodetype.Declare(ctx, decl)
	if err != nil {
		return nil, err
	}
	if err := e.registry.Add(nt); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("Node type declared.", "name", nt.Name(), "id", nodetype.FormatTypeID(nt.TypeID()), "scheduling", nt.Mode().String())
	return nt, nil
}

// Instantiate creates an instance of the named node type with every plug
// dirty and no values.
func (e *Engine) Instantiate(ctx context.Context, typeName string) (uuid.UUID, error) {
	nt, err := e.registry.Acquire(typeName)
	if err != nil {
		return uuid.Nil, err
	}
	inst := newInstance(nt)

	e.mu.Lock()
	e.instances[inst.handle] = inst
	e.mu.Unlock()

	ctxlog.FromContext(ctx).Debug("Instance created.", "node_type", typeName, "instance", inst.handle)
	return inst.handle, nil
}

// Destroy discards an instance and its values.
func (e *Engine) Destroy(ctx context.Context, h uuid.UUID) error {
	e.mu.Lock()
	inst, ok := e.instances[h]
	if ok {
		delete(e.instances, h)
	}
	e.mu.Unlock()
	if !ok {
		return unknownInstance(h)
	}
	e.registry.Release(inst.nodeType.Name())
	ctxlog.FromContext(ctx).Debug("Instance destroyed.", "node_type", inst.nodeType.Name(), "instance", h)
	return nil
}

// Instance returns the instance behind h.
func (e *Engine) Instance(h uuid.UUID) (*Instance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	inst, ok := e.instances[h]
	if !ok {
		return nil, unknownInstance(h)
	}
	return inst, nil
}

// OnUpstreamChanged invalidates inputKey and every output it affects.
func (e *Engine) OnUpstreamChanged(ctx context.Context, h uuid.UUID, inputKey string) error {
	inst, err := e.Instance(h)
	if err != nil {
		return err
	}
	if err := e.guardReentry(ctx, inst, inputKey); err != nil {
		return err
	}
	return inst.markDirty(inputKey)
}

// SetInput assigns an input value and invalidates its dependents. Assigning
// a value equal to the current one changes nothing. It reports whether the
// value changed.
func (e *Engine) SetInput(ctx context.Context, h uuid.UUID, key string, value cty.Value) (bool, error) {
	inst, err := e.Instance(h)
	if err != nil {
		return false, err
	}
	if err := e.guardReentry(ctx, inst, key); err != nil {
		return false, err
	}
	changed, err := inst.setInput(key, value)
	if err != nil {
		return false, err
	}
	if changed {
		ctxlog.FromContext(ctx).Debug("Input assigned.", "node_type", inst.nodeType.Name(), "instance", h, "plug", key)
	}
	return changed, nil
}

// RequestValue returns the current value of an output, computing it when
// stale. It is the only read path for outputs.
func (e *Engine) RequestValue(ctx context.Context, h uuid.UUID, outputKey string) (plug.Value, error) {
	inst, err := e.Instance(h)
	if err != nil {
		return plug.Value{}, err
	}
	return e.dispatcher.Request(ctx, inst, outputKey)
}

// IsDirty reports the dirty flag of any plug of an instance.
func (e *Engine) IsDirty(h uuid.UUID, key string) (bool, error) {
	inst, err := e.Instance(h)
	if err != nil {
		return false, err
	}
	if _, err := inst.nodeType.Describe(key); err != nil {
		return false, err
	}
	return inst.isDirty(key), nil
}

// Input returns the assigned value of an input, or its default.
func (e *Engine) Input(h uuid.UUID, key string) (plug.Value, error) {
	inst, err := e.Instance(h)
	if err != nil {
		return plug.Value{}, err
	}
	return inst.input(key)
}

// Poisoned returns the fatal error that disabled a declared node type, or
// nil.
func (e *Engine) Poisoned(typeName string) error {
	nt, err := e.registry.Lookup(typeName)
	if err != nil {
		return nil
	}
	return e.dispatcher.Poisoned(nt)
}

// Deregister removes a node type without live instances from the registry,
// so the name can be declared again.
func (e *Engine) Deregister(ctx context.Context, typeName string) error {
	nt, err := e.registry.Lookup(typeName)
	if err != nil {
		return err
	}
	if err := e.registry.Deregister(typeName); err != nil {
		return err
	}
	e.dispatcher.forget(nt)
	ctxlog.FromContext(ctx).Info("Node type deregistered.", "name", typeName)
	return nil
}

// guardReentry rejects mutations issued from inside the instance's own
// evaluator.
func (e *Engine) guardReentry(ctx context.Context, inst *Instance, key string) error {
	if !inComputeOf(ctx, inst) {
		return nil
	}
	err := nodeerr.New(nodeerr.ErrReentrantCompute, inst.nodeType.Name(), key, "instance mutated while its own evaluator is running")
	e.dispatcher.poison(ctx, inst.nodeType, err)
	return err
}

func unknownInstance(h uuid.UUID) error {
	return nodeerr.New(nodeerr.ErrUnknownInstance, "", "", "no instance with handle %s", h)
}
