package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/metrics"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

// Dispatcher runs compute passes. It is shared by every instance of an
// engine and remembers node types disabled by fatal evaluator errors.
// Poison belongs to the declared node type, so a type declared again under
// the same name after deregistration starts clean.
type Dispatcher struct {
	metrics *metrics.Recorder

	mu       sync.RWMutex
	poisoned map[*nodetype.NodeType]error
}

// NewDispatcher creates a dispatcher reporting to rec, which may be nil.
func NewDispatcher(rec *metrics.Recorder) *Dispatcher {
	return &Dispatcher{
		metrics:  rec,
		poisoned: make(map[*nodetype.NodeType]error),
	}
}

// Poisoned returns the fatal error that disabled nt, or nil.
func (d *Dispatcher) Poisoned(nt *nodetype.NodeType) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.poisoned[nt]
}

func (d *Dispatcher) poison(ctx context.Context, nt *nodetype.NodeType, err error) {
	d.mu.Lock()
	_, already := d.poisoned[nt]
	if !already {
		d.poisoned[nt] = err
	}
	d.mu.Unlock()

	if !already {
		ctxlog.FromContext(ctx).Error("Node type disabled after fatal evaluator error.", "node_type", nt.Name(), "error", err)
		d.metrics.Poisoned(nt.Name())
	}
}

// forget drops the poison of a node type that left the registry.
func (d *Dispatcher) forget(nt *nodetype.NodeType) {
	d.mu.Lock()
	delete(d.poisoned, nt)
	d.mu.Unlock()
}

// Request returns the current value of output key on inst, recomputing every
// stale output of the instance in a single evaluator call when key is
// stale. A failed pass leaves flags and values untouched.
func (d *Dispatcher) Request(ctx context.Context, inst *Instance, key string) (plug.Value, error) {
	v, err := d.request(ctx, inst, key)
	if err != nil {
		d.metrics.Failure(inst.nodeType.Name(), err)
	}
	return v, err
}

func (d *Dispatcher) request(ctx context.Context, inst *Instance, key string) (plug.Value, error) {
	nt := inst.nodeType
	name := nt.Name()

	desc, err := nt.Describe(key)
	if err != nil {
		return plug.Value{}, err
	}
	if !desc.IsOutput() {
		return plug.Value{}, nodeerr.New(nodeerr.ErrInvalidDirection, name, key, "only outputs can be requested")
	}
	key = desc.Key

	if inComputeOf(ctx, inst) {
		err := nodeerr.New(nodeerr.ErrReentrantCompute, name, key, "requested while the instance's own evaluator is running")
		d.poison(ctx, nt, err)
		return plug.Value{}, err
	}
	if err := d.Poisoned(nt); err != nil {
		return plug.Value{}, err
	}

	inst.mu.Lock()
	defer inst.mu.Unlock()

	if !inst.tracker.IsDirty(key) {
		if v, ok := inst.outputs[key]; ok {
			d.metrics.CacheHit(name)
			return v, nil
		}
	}

	pass := inst.tracker.Dirty()
	if !slices.Contains(pass, key) {
		pass = append(pass, key)
	}

	gathered, snapshot, err := inst.gather(pass)
	if err != nil {
		return plug.Value{}, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting compute pass.", "node_type", name, "instance", inst.handle, "outputs", pass)

	inst.tracker.BeginPass(pass, gathered)
	inst.computing.Store(true)
	start := time.Now()
	produced, evalErr := evaluate(withFrame(ctx, inst), nt, nodetype.NewInputs(name, snapshot), slices.Clone(pass))
	elapsed := time.Since(start)
	inst.computing.Store(false)

	if evalErr != nil {
		inst.tracker.EndPass(false)
		// Fatal errors raised for another node type, returned by an evaluator
		// that read an upstream instance, only fail this request.
		if nodeerr.IsFatal(evalErr) && raisedFor(evalErr, nt) {
			d.poison(ctx, nt, evalErr)
			return plug.Value{}, evalErr
		}
		return plug.Value{}, nodeerr.Wrap(nodeerr.ErrEvaluationFailure, name, key, evalErr)
	}

	staged, err := d.stage(inst, pass, produced)
	if err != nil {
		inst.tracker.EndPass(false)
		if nodeerr.IsFatal(err) {
			d.poison(ctx, nt, err)
		}
		return plug.Value{}, err
	}

	for k, v := range staged {
		inst.outputs[k] = v
		if err := inst.tracker.MarkClean(k); err != nil {
			// stage only admits outputs of the pass.
			panic(err)
		}
	}
	inst.tracker.EndPass(true)
	d.metrics.Pass(name, elapsed)
	logger.Debug("Committed compute pass.", "node_type", name, "instance", inst.handle, "produced", len(staged), "elapsed", elapsed)

	v, ok := staged[key]
	if !ok {
		return plug.Value{}, nodeerr.New(nodeerr.ErrPartialResult, name, key, "evaluator did not produce the requested output")
	}
	return v, nil
}

// evaluate runs the evaluator of nt, turning a panic into an error.
func evaluate(ctx context.Context, nt *nodetype.NodeType, in nodetype.Inputs, pass []string) (produced map[string]cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Evaluator panicked.", "node_type", nt.Name(), "panic", r)
			produced, err = nil, fmt.Errorf("evaluator panicked: %v", r)
		}
	}()
	return nt.Evaluator().Evaluate(ctx, in, pass)
}

// raisedFor reports whether the outermost node error in err names nt.
func raisedFor(err error, nt *nodetype.NodeType) bool {
	var ne *nodeerr.Error
	return errors.As(err, &ne) && ne.NodeType == nt.Name()
}

// stage validates every produced value before anything is committed. Stale
// writes are checked across all keys first so they win over conversion
// failures.
func (d *Dispatcher) stage(inst *Instance, pass []string, produced map[string]cty.Value) (map[string]plug.Value, error) {
	nt := inst.nodeType
	name := nt.Name()

	descs := make(map[string]*plug.Descriptor, len(produced))
	for k := range produced {
		od, err := nt.Describe(k)
		switch {
		case err != nil:
			return nil, nodeerr.New(nodeerr.ErrStaleWriteWithoutCompute, name, k, "evaluator wrote an unregistered plug")
		case !od.IsOutput():
			return nil, nodeerr.New(nodeerr.ErrStaleWriteWithoutCompute, name, k, "evaluator wrote an input")
		case !slices.Contains(pass, od.Key):
			return nil, nodeerr.New(nodeerr.ErrStaleWriteWithoutCompute, name, k, "evaluator wrote an output outside the current pass")
		}
		descs[k] = od
	}

	staged := make(map[string]plug.Value, len(produced))
	for k, raw := range produced {
		od := descs[k]
		v, err := plug.NewValue(od, raw)
		if err != nil {
			return nil, nodeerr.Wrap(nodeerr.ErrEvaluationFailure, name, od.Key, err)
		}
		staged[od.Key] = v
	}
	return staged, nil
}
