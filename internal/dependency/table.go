// Package dependency holds the per-node-type relation declaring which inputs
// affect which outputs.
//
// The relation is bipartite and has depth one: an edge always runs from an
// input to an output of the same node type, so no cycle can be expressed.
// A Table is built once while the node type is declared, validated by
// Finalize, and immutable afterwards.
package dependency

import (
	"fmt"
	"slices"

	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/plug"
)

// Edge is a single (input, output) pair: a change to In may invalidate Out.
type Edge struct {
	In  string
	Out string
}

// Table is the Dependency Table of one node type.
type Table struct {
	plugs      *plug.Registry
	nodeType   string
	dependents map[string][]string // input key -> output keys
	affectors  map[string][]string // output key -> input keys
	constants  map[string]struct{}
	sealed     bool
}

// NewTable creates an empty table over the given plug registry.
func NewTable(nodeType string, plugs *plug.Registry) *Table {
	return &Table{
		plugs:      plugs,
		nodeType:   nodeType,
		dependents: make(map[string][]string),
		affectors:  make(map[string][]string),
		constants:  make(map[string]struct{}),
	}
}

// DeclareAffects records that in affects out. Declaring the same edge twice
// is a no-op.
func (t *Table) DeclareAffects(in, out string) error {
	if t.sealed {
		return nodeerr.New(nodeerr.ErrSealed, t.nodeType, in, "cannot declare %s >> %s after finalization", in, out)
	}
	inDesc, err := t.plugs.Describe(in)
	if err != nil {
		return err
	}
	outDesc, err := t.plugs.Describe(out)
	if err != nil {
		return err
	}
	if !inDesc.IsInput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, t.nodeType, in, "affecting plug must be an input, is an %s", inDesc.Direction)
	}
	if !outDesc.IsOutput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, t.nodeType, out, "affected plug must be an output, is an %s", outDesc.Direction)
	}

	// Short names resolve to canonical keys.
	in, out = inDesc.Key, outDesc.Key
	if slices.Contains(t.dependents[in], out) {
		return nil
	}
	t.dependents[in] = append(t.dependents[in], out)
	t.affectors[out] = append(t.affectors[out], in)
	return nil
}

// MarkConstant declares that out legitimately has no affecting inputs.
func (t *Table) MarkConstant(out string) error {
	if t.sealed {
		return nodeerr.New(nodeerr.ErrSealed, t.nodeType, out, "cannot mark constant after finalization")
	}
	d, err := t.plugs.Describe(out)
	if err != nil {
		return err
	}
	if !d.IsOutput() {
		return nodeerr.New(nodeerr.ErrInvalidDirection, t.nodeType, out, "only outputs can be constant")
	}
	t.constants[d.Key] = struct{}{}
	return nil
}

// Finalize validates the table and makes it immutable. Every output needs at
// least one affector unless it is constant. Inputs that affect nothing are
// legal placeholders and are returned as warnings.
func (t *Table) Finalize() (warnings []string, err error) {
	for _, out := range t.plugs.Outputs() {
		if _, isConst := t.constants[out]; isConst {
			continue
		}
		if len(t.affectors[out]) == 0 {
			return nil, nodeerr.New(nodeerr.ErrUnaffectedOutput, t.nodeType, out, "declare an affecting input or mark the output constant")
		}
	}
	for _, in := range t.plugs.Inputs() {
		if len(t.dependents[in]) == 0 {
			warnings = append(warnings, fmt.Sprintf("input %q affects no output", in))
		}
	}
	t.sealed = true
	return warnings, nil
}

// DependentsOf returns the outputs directly affected by in, in declaration
// order. The relation has depth one, so this is also the transitive set.
func (t *Table) DependentsOf(in string) []string {
	return slices.Clone(t.dependents[in])
}

// AffectorsOf returns the inputs that affect out, in declaration order.
func (t *Table) AffectorsOf(out string) []string {
	return slices.Clone(t.affectors[out])
}

// IsConstant reports whether out was marked constant.
func (t *Table) IsConstant(out string) bool {
	_, ok := t.constants[out]
	return ok
}

// Edges returns every declared edge, grouped by input in registration order.
func (t *Table) Edges() []Edge {
	var edges []Edge
	for _, in := range t.plugs.Inputs() {
		for _, out := range t.dependents[in] {
			edges = append(edges, Edge{In: in, Out: out})
		}
	}
	return edges
}

// Sealed reports whether Finalize has succeeded.
func (t *Table) Sealed() bool { return t.sealed }
