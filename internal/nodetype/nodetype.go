// Package nodetype turns a declaration of plugs, edges and an evaluator into
// an immutable node type shared by all of its instances.
package nodetype

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/dependency"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/plug"
)

// Declaration is everything a host supplies to create a node type.
type Declaration struct {
	// Name is the class name, unique within a registry.
	Name string
	// NodeName is the name instances are created under. Defaults to Name.
	NodeName string
	// TypeID is the numeric identifier, unique within a registry. Zero means
	// unassigned.
	TypeID uint32
	Mode   SchedulingMode
	Plugs  []*plug.Descriptor
	// Edges lists which inputs affect which outputs. When empty, every input
	// affects every output.
	Edges []dependency.Edge
	// Constants lists outputs that legitimately have no affecting input.
	Constants []string
	Evaluator Evaluator
}

// NodeType is a finalized, read-only node type.
type NodeType struct {
	name      string
	nodeName  string
	typeID    uint32
	mode      SchedulingMode
	plugs     *plug.Registry
	table     *dependency.Table
	evaluator Evaluator
	warnings  []string
}

// Declare validates decl and builds the node type. Any failure aborts the
// whole declaration.
func Declare(ctx context.Context, decl Declaration) (*NodeType, error) {
	logger := ctxlog.FromContext(ctx).With("node_type", decl.Name)

	if decl.Name == "" {
		return nil, nodeerr.New(nodeerr.ErrInvalidDeclaration, "", "", "node type name is empty")
	}
	if decl.Evaluator == nil {
		return nil, nodeerr.New(nodeerr.ErrInvalidDeclaration, decl.Name, "", "no evaluator supplied")
	}
	if decl.Mode != Parallel && decl.Mode != Serial {
		return nil, nodeerr.New(nodeerr.ErrInvalidDeclaration, decl.Name, "", "invalid scheduling mode %s", decl.Mode)
	}

	plugs := plug.NewRegistry(decl.Name)
	for _, d := range decl.Plugs {
		if err := plugs.Register(d); err != nil {
			return nil, err
		}
	}

	table := dependency.NewTable(decl.Name, plugs)
	edges := decl.Edges
	if len(edges) == 0 {
		edges = allToAll(plugs)
	}
	for _, e := range edges {
		if err := table.DeclareAffects(e.In, e.Out); err != nil {
			return nil, err
		}
	}
	for _, c := range decl.Constants {
		if err := table.MarkConstant(c); err != nil {
			return nil, err
		}
	}

	warnings, err := table.Finalize()
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		logger.Warn("Node type declaration warning.", "warning", w)
	}
	plugs.Seal()

	nodeName := decl.NodeName
	if nodeName == "" {
		nodeName = decl.Name
	}

	logger.Debug("Declared node type.",
		"inputs", len(plugs.Inputs()),
		"outputs", len(plugs.Outputs()),
		"edges", len(edges),
		"scheduling", decl.Mode.String(),
	)

	return &NodeType{
		name:      decl.Name,
		nodeName:  nodeName,
		typeID:    decl.TypeID,
		mode:      decl.Mode,
		plugs:     plugs,
		table:     table,
		evaluator: decl.Evaluator,
		warnings:  warnings,
	}, nil
}

func allToAll(plugs *plug.Registry) []dependency.Edge {
	var edges []dependency.Edge
	for _, in := range plugs.Inputs() {
		for _, out := range plugs.Outputs() {
			edges = append(edges, dependency.Edge{In: in, Out: out})
		}
	}
	return edges
}

// Name returns the class name.
func (t *NodeType) Name() string { return t.name }

// NodeName returns the instance-facing name from the manifest.
func (t *NodeType) NodeName() string { return t.nodeName }

// TypeID returns the numeric type ID, zero when none was declared.
func (t *NodeType) TypeID() uint32 { return t.typeID }

// Mode returns how instances of the type may be scheduled.
func (t *NodeType) Mode() SchedulingMode { return t.mode }

// Plugs returns the sealed plug registry.
func (t *NodeType) Plugs() *plug.Registry { return t.plugs }

// Table returns the finalized dependency table.
func (t *NodeType) Table() *dependency.Table { return t.table }

// Evaluator returns the compute function.
func (t *NodeType) Evaluator() Evaluator { return t.evaluator }

// Warnings returns a copy of the warnings raised while finalizing.
func (t *NodeType) Warnings() []string { return append([]string(nil), t.warnings...) }

// Describe returns the descriptor for key or its short name.
func (t *NodeType) Describe(key string) (*plug.Descriptor, error) { return t.plugs.Describe(key) }

// FormatTypeID renders id the way manifests spell it.
func FormatTypeID(id uint32) string {
	return fmt.Sprintf("0x%06x", id)
}
