package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/vk/plugflow/internal/dirty"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

// Instance is one node of a node type. It owns its values and dirty flags
// and shares the read-only node type with its siblings.
type Instance struct {
	handle   uuid.UUID
	nodeType *nodetype.NodeType

	mu        sync.Mutex
	tracker   *dirty.Tracker
	inputs    map[string]plug.Value
	outputs   map[string]plug.Value
	computing atomic.Bool
}

func newInstance(nt *nodetype.NodeType) *Instance {
	return &Instance{
		handle:   uuid.New(),
		nodeType: nt,
		tracker:  dirty.New(nt.Name(), nt.Plugs(), nt.Table()),
		inputs:   make(map[string]plug.Value),
		outputs:  make(map[string]plug.Value),
	}
}

// Handle returns the instance's identifier.
func (i *Instance) Handle() uuid.UUID { return i.handle }

// NodeType returns the shared node type.
func (i *Instance) NodeType() *nodetype.NodeType { return i.nodeType }

// Computing reports whether an evaluator is running for this instance.
func (i *Instance) Computing() bool { return i.computing.Load() }

// Generation returns the number of committed compute passes.
func (i *Instance) Generation() uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tracker.Generation()
}

func (i *Instance) isDirty(key string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tracker.IsDirty(key)
}

func (i *Instance) markDirty(in string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tracker.MarkDirty(in)
}

// setInput stores raw under key and invalidates its dependents. It reports
// whether the stored value changed.
func (i *Instance) setInput(key string, raw cty.Value) (bool, error) {
	d, err := i.nodeType.Describe(key)
	if err != nil {
		return false, err
	}
	if !d.IsInput() {
		return false, nodeerr.New(nodeerr.ErrInvalidDirection, i.nodeType.Name(), key, "outputs are written by the evaluator only")
	}
	v, err := plug.NewValue(d, raw)
	if err != nil {
		return false, nodeerr.Wrap(nodeerr.ErrInvalidValue, i.nodeType.Name(), d.Key, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if cur, ok := i.inputs[d.Key]; ok && cur.Equal(v) {
		return false, nil
	}
	i.inputs[d.Key] = v
	return true, i.tracker.MarkDirty(d.Key)
}

// input returns the assigned value of key, falling back to its default.
func (i *Instance) input(key string) (plug.Value, error) {
	d, err := i.nodeType.Describe(key)
	if err != nil {
		return plug.Value{}, err
	}
	if !d.IsInput() {
		return plug.Value{}, nodeerr.New(nodeerr.ErrInvalidDirection, i.nodeType.Name(), key, "not an input")
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if v, ok := i.inputs[d.Key]; ok {
		return v, nil
	}
	if d.HasDefault() {
		return plug.NewValue(d, *d.Default)
	}
	return plug.Value{}, nodeerr.New(nodeerr.ErrMissingInput, i.nodeType.Name(), d.Key, "no value assigned and no default")
}

// gather snapshots every input that affects an output of the pass. It must
// be called with mu held.
func (i *Instance) gather(pass []string) ([]string, map[string]cty.Value, error) {
	table := i.nodeType.Table()
	needed := make(map[string]struct{})
	for _, out := range pass {
		for _, in := range table.AffectorsOf(out) {
			needed[in] = struct{}{}
		}
	}

	var gathered []string
	snapshot := make(map[string]cty.Value, len(needed))
	// Walk inputs in declaration order so gathered is deterministic.
	for _, in := range i.nodeType.Plugs().Inputs() {
		if _, ok := needed[in]; !ok {
			continue
		}
		if v, ok := i.inputs[in]; ok {
			snapshot[in] = v.Cty()
		} else {
			d, _ := i.nodeType.Describe(in)
			if !d.HasDefault() {
				return nil, nil, nodeerr.New(nodeerr.ErrMissingInput, i.nodeType.Name(), in, "no value assigned and no default")
			}
			snapshot[in] = *d.Default
		}
		gathered = append(gathered, in)
	}
	return gathered, snapshot, nil
}

type frameKey struct{}

// frame records the instances whose evaluators are on the current call
// stack.
type frame struct {
	inst   *Instance
	parent *frame
}

func withFrame(ctx context.Context, inst *Instance) context.Context {
	parent, _ := ctx.Value(frameKey{}).(*frame)
	return context.WithValue(ctx, frameKey{}, &frame{inst: inst, parent: parent})
}

func inComputeOf(ctx context.Context, inst *Instance) bool {
	f, _ := ctx.Value(frameKey{}).(*frame)
	for ; f != nil; f = f.parent {
		if f.inst == inst {
			return true
		}
	}
	return false
}
