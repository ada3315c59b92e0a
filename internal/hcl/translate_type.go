// This file parses plug type expressions such as `number`, `list(vector)`,
// `enum("linear", "smooth")` or `compound({ weight = number })` into a
// config.TypeSpec. The helpers used work on both native and JSON syntax.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

var kindKeywords = map[string]plug.Kind{
	"number": plug.KindNumber,
	"bool":   plug.KindBool,
	"string": plug.KindString,
	"vector": plug.KindVector,
	"point":  plug.KindVector,
	"matrix": plug.KindMatrix,
	"curve":  plug.KindCurve,
}

// typeExprToSpec converts an HCL type expression into its TypeSpec.
func typeExprToSpec(ctx context.Context, expr hcl.Expression) (config.TypeSpec, error) {
	logger := ctxlog.FromContext(ctx)

	if kw := hcl.ExprAsKeyword(expr); kw != "" {
		kind, ok := kindKeywords[kw]
		if !ok {
			return config.TypeSpec{}, fmt.Errorf("unknown plug type %q", kw)
		}
		return config.TypeSpec{Kind: kind}, nil
	}

	call, diags := hcl.ExprCall(expr)
	if diags.HasErrors() {
		return config.TypeSpec{}, fmt.Errorf("unsupported expression for type definition: %w", diags)
	}
	logger.Debug("Parsing type expression as a function call.", "call", call.Name)

	switch call.Name {
	case "list":
		if len(call.Arguments) != 1 {
			return config.TypeSpec{}, fmt.Errorf("list() requires exactly one argument, got %d", len(call.Arguments))
		}
		elem, err := typeExprToSpec(ctx, call.Arguments[0])
		if err != nil {
			return config.TypeSpec{}, err
		}
		if elem.Array {
			return config.TypeSpec{}, fmt.Errorf("nested lists are not supported")
		}
		elem.Array = true
		return elem, nil

	case "enum":
		if len(call.Arguments) == 0 {
			return config.TypeSpec{}, fmt.Errorf("enum() requires at least one option")
		}
		spec := config.TypeSpec{Kind: plug.KindEnum}
		for _, arg := range call.Arguments {
			v, diags := arg.Value(nil)
			if diags.HasErrors() {
				return config.TypeSpec{}, fmt.Errorf("invalid enum option: %w", diags)
			}
			if v.IsNull() || !v.Type().Equals(cty.String) {
				return config.TypeSpec{}, fmt.Errorf("enum options must be strings, got %s", v.Type().FriendlyName())
			}
			spec.Options = append(spec.Options, v.AsString())
		}
		return spec, nil

	case "compound":
		if len(call.Arguments) != 1 {
			return config.TypeSpec{}, fmt.Errorf("compound() requires exactly one object argument, got %d", len(call.Arguments))
		}
		pairs, diags := hcl.ExprMap(call.Arguments[0])
		if diags.HasErrors() {
			return config.TypeSpec{}, fmt.Errorf("compound() argument must be an object: %w", diags)
		}
		if len(pairs) == 0 {
			return config.TypeSpec{}, fmt.Errorf("compound() requires at least one field")
		}
		spec := config.TypeSpec{Kind: plug.KindCompound}
		for _, pair := range pairs {
			name, err := keyString(pair.Key)
			if err != nil {
				return config.TypeSpec{}, err
			}
			child, err := typeExprToSpec(ctx, pair.Value)
			if err != nil {
				return config.TypeSpec{}, fmt.Errorf("compound field %q: %w", name, err)
			}
			spec.Children = append(spec.Children, &config.FieldSpec{Name: name, Type: child})
		}
		return spec, nil

	default:
		return config.TypeSpec{}, fmt.Errorf("unknown type constructor function %q", call.Name)
	}
}

// keyString evaluates an object key, which may be a bare word or a string.
func keyString(expr hcl.Expression) (string, error) {
	if kw := hcl.ExprAsKeyword(expr); kw != "" {
		return kw, nil
	}
	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", fmt.Errorf("invalid key: %w", diags)
	}
	if v.IsNull() || !v.Type().Equals(cty.String) {
		return "", fmt.Errorf("object keys must be strings")
	}
	return v.AsString(), nil
}
