// Package curve samples piecewise linear curves given as control points.
package curve

import (
	"context"
	"errors"
	"math"
	"slices"

	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Point is one control point of a curve.
type Point struct {
	Position float64 `cty:"position"`
	Value    float64 `cty:"value"`
}

// Input names the plugs the evaluator reads.
type Input struct {
	Curve    []Point `cty:"curve"`
	Position float64 `cty:"position"`
	Count    float64 `cty:"count"`
}

var errEmptyCurve = errors.New("curve has no control points")

// At evaluates the curve at pos. Positions outside the control points take
// the value of the nearest end. points must be sorted by position.
func At(points []Point, pos float64) float64 {
	if pos <= points[0].Position {
		return points[0].Value
	}
	last := points[len(points)-1]
	if pos >= last.Position {
		return last.Value
	}
	i, _ := slices.BinarySearchFunc(points, pos, func(p Point, x float64) int {
		switch {
		case p.Position < x:
			return -1
		case p.Position > x:
			return 1
		}
		return 0
	})
	if points[i].Position == pos {
		return points[i].Value
	}
	lo, hi := points[i-1], points[i]
	f := (pos - lo.Position) / (hi.Position - lo.Position)
	return lo.Value + (hi.Value-lo.Value)*f
}

// Evaluate produces every wanted output.
func Evaluate(ctx context.Context, in nodetype.Inputs, want []string) (map[string]cty.Value, error) {
	var x Input
	if err := in.Decode(&x); err != nil {
		return nil, err
	}
	if len(x.Curve) == 0 {
		return nil, errEmptyCurve
	}
	points := slices.SortedStableFunc(slices.Values(x.Curve), func(a, b Point) int {
		switch {
		case a.Position < b.Position:
			return -1
		case a.Position > b.Position:
			return 1
		}
		return 0
	})

	out := make(map[string]cty.Value, len(want))
	for _, key := range want {
		switch key {
		case "value":
			out[key] = cty.NumberFloatVal(At(points, x.Position))
		case "samples":
			n := int(math.Round(x.Count))
			first, last := points[0].Position, points[len(points)-1].Position
			samples := make([]float64, n)
			for i := range samples {
				samples[i] = At(points, first+(last-first)*float64(i)/float64(n-1))
			}
			out[key] = plug.FloatsVal(samples...)
		}
	}
	return out, nil
}

// Register registers the evaluator with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterEvaluator("sample_curve", &handlers.RegisteredHandler{
		New:    func() nodetype.Evaluator { return nodetype.EvaluatorFunc(Evaluate) },
		Inputs: Input{},
	})
}
