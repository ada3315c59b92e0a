// Package sum reduces a list of numbers.
package sum

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input names the plugs the evaluator reads.
type Input struct {
	Values []float64 `cty:"values"`
	Scale  float64   `cty:"scale"`
}

// Evaluate produces every wanted output. The mean of an empty list is
// undefined and left out, so requesting it fails while total and count are
// still committed.
func Evaluate(ctx context.Context, in nodetype.Inputs, want []string) (map[string]cty.Value, error) {
	var x Input
	if err := in.Decode(&x); err != nil {
		return nil, err
	}

	var total float64
	for _, v := range x.Values {
		total += v
	}

	out := make(map[string]cty.Value, len(want))
	for _, key := range want {
		switch key {
		case "total":
			v, err := plug.NumberVal(total * x.Scale)
			if err != nil {
				return nil, fmt.Errorf("total: %w", err)
			}
			out[key] = v
		case "count":
			out[key] = cty.NumberIntVal(int64(len(x.Values)))
		case "mean":
			if len(x.Values) == 0 {
				ctxlog.FromContext(ctx).Debug("Mean of an empty list is undefined.")
				continue
			}
			v, err := plug.NumberVal(total * x.Scale / float64(len(x.Values)))
			if err != nil {
				return nil, fmt.Errorf("mean: %w", err)
			}
			out[key] = v
		}
	}
	return out, nil
}

// Register registers the evaluator with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEvaluator("sum", &handlers.RegisteredHandler{
		New:    func() nodetype.Evaluator { return nodetype.EvaluatorFunc(Evaluate) },
		Inputs: Input{},
	})
}
