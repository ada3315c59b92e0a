package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface. Expressions see every plugin constant as a variable, plus a
// small set of numeric functions.
type Converter struct {
	evalCtx *hcl.EvalContext
}

var _ config.Converter = (*Converter)(nil)

// NewConverter creates a converter exposing the given constants.
func NewConverter(constants map[string]cty.Value) *Converter {
	return &Converter{evalCtx: newEvalContext(constants)}
}

func newEvalContext(constants map[string]cty.Value) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(constants))
	for k, v := range constants {
		vars[k] = v
	}
	return &hcl.EvalContext{
		Variables: vars,
		Functions: map[string]function.Function{
			"abs":   stdlib.AbsoluteFunc,
			"ceil":  stdlib.CeilFunc,
			"floor": stdlib.FloorFunc,
			"max":   stdlib.MaxFunc,
			"min":   stdlib.MinFunc,
			"pow":   stdlib.PowFunc,
			"range": stdlib.RangeFunc,
		},
	}
}

// Evaluate resolves expr against the constants.
func (c *Converter) Evaluate(ctx context.Context, expr hcl.Expression) (cty.Value, error) {
	val, diags := expr.Value(c.evalCtx)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	ctxlog.FromContext(ctx).Debug("Evaluated expression.", "range", expr.Range().String(), "type", val.Type().FriendlyName())
	return val, nil
}

// ParseValue parses src as a native-syntax expression and evaluates it.
func (c *Converter) ParseValue(ctx context.Context, src string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<value>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("could not parse value %q: %w", src, diags)
	}
	return c.Evaluate(ctx, expr)
}
