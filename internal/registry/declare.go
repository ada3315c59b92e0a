package registry

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/dependency"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
)

// Declarations pairs every loaded node definition with its Go evaluator and
// returns the declarations in class-name order.
func (r *Registry) Declarations(ctx context.Context) ([]nodetype.Declaration, error) {
	logger := ctxlog.FromContext(ctx)

	decls := make([]nodetype.Declaration, 0, len(r.Definitions))
	for _, name := range slices.Sorted(maps.Keys(r.Definitions)) {
		def := r.Definitions[name]
		handler, ok := r.Handlers.Get(def.Evaluator)
		if !ok {
			return nil, fmt.Errorf("node type '%s': no evaluator registered under '%s'", name, def.Evaluator)
		}
		decl, err := declarationFrom(def)
		if err != nil {
			return nil, fmt.Errorf("node type '%s': %w", name, err)
		}
		decl.Evaluator = handler.New()
		decls = append(decls, decl)
		logger.Debug("Prepared node type declaration.", "name", name, "evaluator", def.Evaluator)
	}
	return decls, nil
}

func declarationFrom(def *config.NodeDefinition) (nodetype.Declaration, error) {
	mode, err := nodetype.ParseSchedulingMode(def.Scheduling)
	if err != nil {
		return nodetype.Declaration{}, err
	}

	decl := nodetype.Declaration{
		Name:      def.Name,
		NodeName:  def.NodeName,
		TypeID:    def.TypeID,
		Mode:      mode,
		Constants: def.Constants,
	}
	for _, in := range def.Inputs {
		decl.Plugs = append(decl.Plugs, DescriptorFrom(in, plug.Input))
	}
	for _, out := range def.Outputs {
		decl.Plugs = append(decl.Plugs, DescriptorFrom(out, plug.Output))
	}
	for _, a := range def.Affects {
		for _, in := range a.Inputs {
			for _, out := range a.Outputs {
				decl.Edges = append(decl.Edges, dependency.Edge{In: in, Out: out})
			}
		}
	}
	return decl, nil
}

// DescriptorFrom builds the plug descriptor for a manifest plug. A scalar
// matrix without an explicit default starts as the identity.
func DescriptorFrom(pd *config.PlugDefinition, dir plug.Direction) *plug.Descriptor {
	d := &plug.Descriptor{
		Key:         pd.Name,
		ShortName:   pd.ShortName,
		Description: pd.Description,
		Direction:   dir,
		Default:     pd.Default,
		Min:         pd.Min,
		Max:         pd.Max,
		Flags:       flagsFrom(pd, dir),
	}
	applyType(d, pd.Type)
	if d.Default == nil && d.Kind == plug.KindMatrix && d.Arity == plug.Scalar {
		identity := plug.IdentityMatrix()
		d.Default = &identity
	}
	return d
}

func applyType(d *plug.Descriptor, ts config.TypeSpec) {
	d.Kind = ts.Kind
	if ts.Array {
		d.Arity = plug.Array
	}
	d.Options = ts.Options
	for _, f := range ts.Children {
		child := &plug.Descriptor{Key: f.Name, Direction: d.Direction}
		applyType(child, f.Type)
		d.Children = append(d.Children, child)
	}
}

func flagsFrom(pd *config.PlugDefinition, dir plug.Direction) plug.Flags {
	f := plug.DefaultFlags(dir)
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&f.Keyable, pd.Keyable)
	set(&f.Storable, pd.Storable)
	set(&f.Readable, pd.Readable)
	set(&f.Writable, pd.Writable)
	set(&f.Cached, pd.Cached)
	set(&f.Hidden, pd.Hidden)
	return f
}
