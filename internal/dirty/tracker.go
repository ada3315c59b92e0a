// Package dirty tracks which plugs of one node instance hold stale values.
//
// Every plug starts dirty. Change notifications only ever set flags; the
// compute dispatcher is the sole party allowed to clear them, and only for
// the outputs of the pass it has opened with BeginPass.
package dirty

import (
	"github.com/vk/plugflow/internal/dependency"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/plug"
)

// Tracker holds the dirty flags of a single instance. It is not safe for
// concurrent use; the owning instance serializes access.
type Tracker struct {
	nodeType string
	plugs    *plug.Registry
	table    *dependency.Table
	flags    map[string]bool

	pass       map[string]struct{} // nil when no pass is open
	gathered   []string
	generation uint64
}

// New creates a tracker with every plug dirty.
func New(nodeType string, plugs *plug.Registry, table *dependency.Table) *Tracker {
	t := &Tracker{
		nodeType: nodeType,
		plugs:    plugs,
		table:    table,
		flags:    make(map[string]bool, plugs.Len()),
	}
	for _, k := range plugs.Inputs() {
		t.flags[k] = true
	}
	for _, k := range plugs.Outputs() {
		t.flags[k] = true
	}
	return t
}

// MarkDirty flags an input and every output it affects. It never clears a
// flag and calling it repeatedly has the same effect as calling it once.
func (t *Tracker) MarkDirty(in string) error {
	d, err := t.plugs.Describe(in)
	if err != nil {
		return err
	}
	if !d.IsInput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, t.nodeType, in, "only inputs can be marked dirty")
	}
	t.flags[d.Key] = true
	for _, out := range t.table.DependentsOf(d.Key) {
		t.flags[out] = true
	}
	return nil
}

// IsDirty reports the flag of key. Unknown keys report false.
func (t *Tracker) IsDirty(key string) bool {
	d, err := t.plugs.Describe(key)
	if err != nil {
		return false
	}
	return t.flags[d.Key]
}

// Dirty returns the currently dirty outputs in declaration order.
func (t *Tracker) Dirty() []string {
	var out []string
	for _, k := range t.plugs.Outputs() {
		if t.flags[k] {
			out = append(out, k)
		}
	}
	return out
}

// BeginPass opens a compute pass covering outputs. gathered lists the inputs
// whose values were read for the pass.
func (t *Tracker) BeginPass(outputs, gathered []string) {
	t.pass = make(map[string]struct{}, len(outputs))
	for _, k := range outputs {
		t.pass[k] = struct{}{}
	}
	t.gathered = gathered
}

// InPass reports whether a pass is open.
func (t *Tracker) InPass() bool { return t.pass != nil }

// MarkClean clears the flag of an output produced by the open pass. Clearing
// anything outside the pass is a stale write.
func (t *Tracker) MarkClean(out string) error {
	if t.pass == nil {
		return nodeerr.New(nodeerr.ErrStaleWriteWithoutCompute, t.nodeType, out, "no compute pass is open")
	}
	if _, ok := t.pass[out]; !ok {
		return nodeerr.New(nodeerr.ErrStaleWriteWithoutCompute, t.nodeType, out, "output is not part of the current pass")
	}
	t.flags[out] = false
	return nil
}

// EndPass closes the open pass. On commit, every gathered input whose
// dependents are all clean is cleared and the generation advances.
func (t *Tracker) EndPass(commit bool) {
	if commit {
		for _, in := range t.gathered {
			if t.allClean(t.table.DependentsOf(in)) {
				t.flags[in] = false
			}
		}
		t.generation++
	}
	t.pass = nil
	t.gathered = nil
}

// Generation counts committed passes.
func (t *Tracker) Generation() uint64 { return t.generation }

func (t *Tracker) allClean(keys []string) bool {
	for _, k := range keys {
		if t.flags[k] {
			return false
		}
	}
	return true
}
