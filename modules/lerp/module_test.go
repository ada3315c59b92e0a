package lerp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

func TestEvaluate(t *testing.T) {
	t.Run("number", func(t *testing.T) {
		in := nodetype.NewInputs("Lerp", map[string]cty.Value{
			"a": cty.NumberIntVal(10),
			"b": cty.NumberIntVal(20),
			"t": cty.NumberFloatVal(0.25),
		})
		out, err := Evaluate(context.Background(), in, []string{"result"})
		require.NoError(t, err)
		require.Len(t, out, 1)
		got, err := plug.AsFloat(out["result"])
		require.NoError(t, err)
		assert.InDelta(t, 12.5, got, 1e-9)
	})

	t.Run("point", func(t *testing.T) {
		in := nodetype.NewInputs("Lerp", map[string]cty.Value{
			"from": plug.FloatsVal(0, 0, 0),
			"to":   plug.FloatsVal(2, 4, -8),
			"t":    cty.NumberFloatVal(0.5),
		})
		out, err := Evaluate(context.Background(), in, []string{"point"})
		require.NoError(t, err)
		got, err := plug.AsFloats(out["point"])
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1, 2, -4}, got, 1e-9)
	})

	t.Run("overflow is an error", func(t *testing.T) {
		in := nodetype.NewInputs("Lerp", map[string]cty.Value{
			"a":    cty.NumberFloatVal(-1.7e308),
			"b":    cty.NumberFloatVal(1.7e308),
			"from": plug.FloatsVal(-1.7e308, 0, 0),
			"to":   plug.FloatsVal(1.7e308, 0, 0),
			"t":    cty.NumberIntVal(0),
		})
		for _, key := range []string{"result", "point"} {
			_, err := Evaluate(context.Background(), in, []string{key})
			assert.ErrorIs(t, err, plug.ErrNotFinite, key)
		}
	})
}
