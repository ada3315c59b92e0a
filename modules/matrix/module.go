// Package matrix composes 4x4 transforms. Matrices are row-major with the
// translation in the last column.
package matrix

import (
	"context"

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
	Translate []float64 `cty:"translate"`
	Scale     []float64 `cty:"scale"`
	Parent    []float64 `cty:"parent"`
}

// Mat4 is a row-major 4x4 matrix.
type Mat4 [16]float64

// Local builds scale followed by translation.
func Local(scale, translate []float64) Mat4 {
	return Mat4{
		scale[0], 0, 0, translate[0],
		0, scale[1], 0, translate[1],
		0, 0, scale[2], translate[2],
		0, 0, 0, 1,
	}
}

// Mul returns m × n.
func (m Mat4) Mul(n Mat4) Mat4 {
	var out Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var s float64
			for k := 0; k < 4; k++ {
				s += m[r*4+k] * n[k*4+c]
			}
			out[r*4+c] = s
		}
	}
	return out
}

// Origin is where the matrix maps the point (0, 0, 0).
func (m Mat4) Origin() []float64 {
	return []float64{m[3], m[7], m[11]}
}

// Evaluate produces every wanted output.
func Evaluate(ctx context.Context, in nodetype.Inputs, want []string) (map[string]cty.Value, error) {
	var x Input
	if err := in.Decode(&x); err != nil {
		return nil, err
	}
	var parent Mat4
	copy(parent[:], x.Parent)
	world := parent.Mul(Local(x.Scale, x.Translate))

	out := make(map[string]cty.Value, len(want))
	for _, key := range want {
		switch key {
		case "matrix":
			out[key] = plug.FloatsVal(world[:]...)
		case "origin":
			out[key] = plug.FloatsVal(world.Origin()...)
		}
	}
	return out, nil
}

// Register registers the evaluator with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEvaluator("compose", &handlers.RegisteredHandler{
		New:    func() nodetype.Evaluator { return nodetype.EvaluatorFunc(Evaluate) },
		Inputs: Input{},
	})
}
