// This file translates decoded HCL blocks into the format-agnostic
// configuration model and enforces the manifest rules: a node needs a
// node_name and a six-digit hex type ID.

package hcl

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/zclconf/go-cty/cty"
)

var typeIDPattern = regexp.MustCompile(`^0x[0-9A-Fa-f]{6}$`)

// parseTypeID parses an ID of the form 0x123456.
func parseTypeID(raw string) (uint32, error) {
	if !typeIDPattern.MatchString(raw) {
		return 0, fmt.Errorf("'id' should be in format 0x123456 (found %s)", raw)
	}
	id, err := strconv.ParseUint(raw[2:], 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}

func translatePlugin(pb *pluginBlock, source string) (*config.Plugin, error) {
	p := &config.Plugin{
		Name:      pb.Name,
		Author:    pb.Author,
		Version:   pb.Version,
		Constants: make(map[string]cty.Value),
		Source:    source,
	}
	if pb.Constants == nil || pb.Constants.IsNull() {
		return p, nil
	}

	c := *pb.Constants
	if !c.Type().IsObjectType() && !c.Type().IsMapType() {
		return nil, fmt.Errorf("plugin '%s': 'constants' must be an object, got %s", pb.Name, c.Type().FriendlyName())
	}
	for it := c.ElementIterator(); it.Next(); {
		k, v := it.Element()
		p.Constants[k.AsString()] = v
	}
	return p, nil
}

func translateNode(ctx context.Context, conv *Converter, plugin string, nb *nodeBlock, source string) (*config.NodeDefinition, error) {
	if nb.NodeName == "" {
		return nil, fmt.Errorf("node '%s': expected 'node_name' but found none", nb.Name)
	}
	id, err := parseTypeID(nb.ID)
	if err != nil {
		return nil, fmt.Errorf("node '%s': %w", nb.Name, err)
	}
	if _, err := nodetype.ParseSchedulingMode(nb.Scheduling); err != nil {
		return nil, fmt.Errorf("node '%s': %w", nb.Name, err)
	}

	def := &config.NodeDefinition{
		Name:        nb.Name,
		NodeName:    nb.NodeName,
		Description: nb.Description,
		Plugin:      plugin,
		TypeID:      id,
		Evaluator:   nb.Evaluator,
		Scheduling:  nb.Scheduling,
		Constants:   nb.ConstantOutputs,
		Source:      source,
	}

	for _, in := range nb.Inputs {
		pd, err := translatePlug(ctx, conv, in)
		if err != nil {
			return nil, fmt.Errorf("in node '%s', input '%s': %w", nb.Name, in.Name, err)
		}
		def.Inputs = append(def.Inputs, pd)
	}
	for _, out := range nb.Outputs {
		pd, err := translatePlug(ctx, conv, out)
		if err != nil {
			return nil, fmt.Errorf("in node '%s', output '%s': %w", nb.Name, out.Name, err)
		}
		def.Outputs = append(def.Outputs, pd)
	}
	for _, a := range nb.Affects {
		def.Affects = append(def.Affects, &config.AffectsDefinition{Inputs: a.Inputs, Outputs: a.Outputs})
	}
	return def, nil
}

func translatePlug(ctx context.Context, conv *Converter, pb *plugBlock) (*config.PlugDefinition, error) {
	spec, err := typeExprToSpec(ctx, pb.Type)
	if err != nil {
		return nil, err
	}

	pd := &config.PlugDefinition{
		Name:        pb.Name,
		ShortName:   pb.ShortName,
		Description: pb.Description,
		Type:        spec,
		Min:         pb.Min,
		Max:         pb.Max,
		Keyable:     pb.Keyable,
		Storable:    pb.Storable,
		Readable:    pb.Readable,
		Writable:    pb.Writable,
		Cached:      pb.Cached,
		Hidden:      pb.Hidden,
	}

	if pb.Default != nil {
		val, err := conv.Evaluate(ctx, pb.Default)
		if err != nil {
			return nil, fmt.Errorf("invalid default value: %w", err)
		}
		if !val.IsNull() {
			pd.Default = &val
		}
	}
	return pd, nil
}

func translateGrid(grid *config.Grid, root *fileRoot) error {
	for _, ib := range root.Instances {
		set, err := attributeMap(ib.Set)
		if err != nil {
			return fmt.Errorf("instance '%s': %w", ib.Name, err)
		}
		grid.Instances = append(grid.Instances, &config.Instance{
			NodeType: ib.NodeType,
			Name:     ib.Name,
			Set:      set,
		})
	}
	for _, cb := range root.Connections {
		grid.Connections = append(grid.Connections, &config.Connection{From: cb.From, To: cb.To})
	}
	grid.Requests = append(grid.Requests, root.Request...)
	return nil
}

// attributeMap splits an object expression into per-key expressions so each
// value can be evaluated against its plug later. An absent attribute yields
// an empty map.
func attributeMap(expr hcl.Expression) (map[string]hcl.Expression, error) {
	out := make(map[string]hcl.Expression)
	if expr == nil {
		return out, nil
	}
	pairs, diags := hcl.ExprMap(expr)
	if diags.HasErrors() {
		if v, vdiags := expr.Value(nil); !vdiags.HasErrors() && v.IsNull() {
			return out, nil
		}
		return nil, fmt.Errorf("'set' must be an object: %w", diags)
	}
	for _, pair := range pairs {
		k, err := keyString(pair.Key)
		if err != nil {
			return nil, err
		}
		out[k] = pair.Value
	}
	return out, nil
}
