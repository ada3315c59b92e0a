package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes every top-level block a file may contain. Manifests and
// grid files share the schema, so one file may hold both.
type fileRoot struct {
	Plugins     []*pluginBlock   `hcl:"plugin,block"`
	Instances   []*instanceBlock `hcl:"instance,block"`
	Connections []*connectBlock  `hcl:"connect,block"`
	Request     []string         `hcl:"request,optional"`
}

// --- Plugin manifest schema ---

type pluginBlock struct {
	Name      string       `hcl:"name,label"`
	Author    string       `hcl:"author,optional"`
	Version   string       `hcl:"version,optional"`
	Constants *cty.Value   `hcl:"constants,optional"`
	Nodes     []*nodeBlock `hcl:"node,block"`
}

type nodeBlock struct {
	Name            string          `hcl:"name,label"`
	NodeName        string          `hcl:"node_name,optional"`
	ID              string          `hcl:"id"`
	Evaluator       string          `hcl:"evaluator"`
	Description     string          `hcl:"description,optional"`
	Scheduling      string          `hcl:"scheduling,optional"`
	ConstantOutputs []string        `hcl:"constant_outputs,optional"`
	Inputs          []*plugBlock    `hcl:"input,block"`
	Outputs         []*plugBlock    `hcl:"output,block"`
	Affects         []*affectsBlock `hcl:"affects,block"`
}

type plugBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	ShortName   string         `hcl:"short_name,optional"`
	Description string         `hcl:"description,optional"`
	// Default may refer to plugin constants, so it is evaluated later.
	Default  hcl.Expression `hcl:"default,optional"`
	Min      *float64       `hcl:"min,optional"`
	Max      *float64       `hcl:"max,optional"`
	Keyable  *bool          `hcl:"keyable,optional"`
	Storable *bool          `hcl:"storable,optional"`
	Readable *bool          `hcl:"readable,optional"`
	Writable *bool          `hcl:"writable,optional"`
	Cached   *bool          `hcl:"cached,optional"`
	Hidden   *bool          `hcl:"hidden,optional"`
}

type affectsBlock struct {
	Inputs  []string `hcl:"inputs"`
	Outputs []string `hcl:"outputs"`
}

// --- Grid schema ---

type instanceBlock struct {
	NodeType string         `hcl:"node_type,label"`
	Name     string         `hcl:"name,label"`
	Set      hcl.Expression `hcl:"set,optional"`
}

type connectBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}
