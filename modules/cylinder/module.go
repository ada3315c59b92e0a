// Package cylinder computes the volume and surface area of a cylinder.
package cylinder

import (
	"context"
	"math"

	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input names the plugs the evaluator reads.
type Input struct {
	Radius float64 `cty:"radius"`
	Height float64 `cty:"height"`
}

// Evaluate produces every wanted output from one snapshot of the inputs.
func Evaluate(ctx context.Context, in nodetype.Inputs, want []string) (map[string]cty.Value, error) {
	var x Input
	if err := in.Decode(&x); err != nil {
		return nil, err
	}

	out := make(map[string]cty.Value, len(want))
	for _, key := range want {
		switch key {
		case "volume":
			out[key] = cty.NumberFloatVal(math.Pi * x.Radius * x.Radius * x.Height)
		case "surfaceArea":
			out[key] = cty.NumberFloatVal(2 * math.Pi * x.Radius * (x.Radius + x.Height))
		}
	}
	return out, nil
}

// Register registers the evaluator with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEvaluator("cylinder", &handlers.RegisteredHandler{
		New:    func() nodetype.Evaluator { return nodetype.EvaluatorFunc(Evaluate) },
		Inputs: Input{},
	})
}
