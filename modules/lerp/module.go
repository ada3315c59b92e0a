// Package lerp interpolates linearly between two numbers and between two
// points.
package lerp

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input names the plugs the evaluator reads. Only the inputs affecting the
// wanted outputs are gathered, so a pass for "result" leaves From and To
// empty.
type Input struct {
	A    float64   `cty:"a"`
	B    float64   `cty:"b"`
	From []float64 `cty:"from"`
	To   []float64 `cty:"to"`
	T    float64   `cty:"t"`
}

func mix(a, b, t float64) float64 { return a + (b-a)*t }

// Evaluate produces every wanted output.
func Evaluate(ctx context.Context, in nodetype.Inputs, want []string) (map[string]cty.Value, error) {
	var x Input
	if err := in.Decode(&x); err != nil {
		return nil, err
	}

	out := make(map[string]cty.Value, len(want))
	for _, key := range want {
		switch key {
		case "result":
			v, err := plug.NumberVal(mix(x.A, x.B, x.T))
			if err != nil {
				return nil, fmt.Errorf("result: %w", err)
			}
			out[key] = v
		case "point":
			p := make([]float64, len(x.From))
			for i := range p {
				p[i] = mix(x.From[i], x.To[i], x.T)
			}
			if err := plug.CheckFinite(p...); err != nil {
				return nil, fmt.Errorf("point: %w", err)
			}
			out[key] = plug.FloatsVal(p...)
		}
	}
	return out, nil
}

// Register registers the evaluator with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEvaluator("lerp", &handlers.RegisteredHandler{
		New:    func() nodetype.Evaluator { return nodetype.EvaluatorFunc(Evaluate) },
		Inputs: Input{},
	})
}
