package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration: every plugin manifest and the grid.
type Model struct {
	Plugins map[string]*Plugin
	// Nodes holds every node definition by class name, across plugins.
	Nodes map[string]*NodeDefinition
	Grid  *Grid
}

// NewModel returns an empty model ready to be merged into.
func NewModel() *Model {
	return &Model{
		Plugins: make(map[string]*Plugin),
		Nodes:   make(map[string]*NodeDefinition),
		Grid:    &Grid{},
	}
}

// Constants merges the named constants of every plugin. Later plugins do
// not override earlier ones.
func (m *Model) Constants() map[string]cty.Value {
	out := make(map[string]cty.Value)
	for _, p := range m.Plugins {
		for k, v := range p.Constants {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}

// --- Plugin Manifest Models ---

// Plugin groups node definitions shipped together.
type Plugin struct {
	Name      string
	Author    string
	Version   string
	Constants map[string]cty.Value
	// Nodes lists the class names declared by this plugin, in file order.
	Nodes  []string
	Source string
}

// NodeDefinition is the format-agnostic representation of a `node` block.
type NodeDefinition struct {
	Name        string
	NodeName    string
	Description string
	Plugin      string
	TypeID      uint32
	Evaluator   string
	Scheduling  string
	Inputs      []*PlugDefinition
	Outputs     []*PlugDefinition
	Affects     []*AffectsDefinition
	// Constants lists outputs that have no affecting input.
	Constants []string
	Source    string
}

// AffectsDefinition declares that every listed input affects every listed
// output.
type AffectsDefinition struct {
	Inputs  []string
	Outputs []string
}

// PlugDefinition defines a single input or output plug.
type PlugDefinition struct {
	Name        string
	ShortName   string
	Description string
	Type        TypeSpec
	Default     *cty.Value
	Min         *float64
	Max         *float64
	// Flags left nil take the direction's default.
	Keyable  *bool
	Storable *bool
	Readable *bool
	Writable *bool
	Cached   *bool
	Hidden   *bool
}

// TypeSpec is a parsed plug type expression.
type TypeSpec struct {
	Kind     plug.Kind
	Array    bool
	Options  []string
	Children []*FieldSpec
}

// FieldSpec is one member of a compound type.
type FieldSpec struct {
	Name string
	Type TypeSpec
}

// --- Grid Models ---

// Grid represents the user's node graph.
type Grid struct {
	Instances   []*Instance
	Connections []*Connection
	// Requests lists plug addresses to evaluate, e.g. "c1.volume".
	Requests []string
}

// Instance is the format-agnostic representation of an `instance` block.
type Instance struct {
	NodeType string
	Name     string
	Set      map[string]hcl.Expression
}

// Connection links an output plug to an input plug.
type Connection struct {
	From string
	To   string
}
