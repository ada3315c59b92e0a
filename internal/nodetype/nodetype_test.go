package nodetype

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/dependency"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
)

var noop = EvaluatorFunc(func(context.Context, Inputs, []string) (map[string]cty.Value, error) {
	return nil, nil
})

func numberPlug(key string, dir plug.Direction) *plug.Descriptor {
	return &plug.Descriptor{Key: key, Direction: dir, Kind: plug.KindNumber, Flags: plug.DefaultFlags(dir)}
}

func TestDeclare_ExplicitEdges(t *testing.T) {
	nt, err := Declare(context.Background(), Declaration{
		Name:   "cylinder",
		TypeID: 0x0012a0,
		Plugs: []*plug.Descriptor{
			numberPlug("radius", plug.Input),
			numberPlug("height", plug.Input),
			numberPlug("volume", plug.Output),
			numberPlug("surfaceArea", plug.Output),
		},
		Edges: []dependency.Edge{
			{In: "radius", Out: "volume"},
			{In: "height", Out: "volume"},
			{In: "radius", Out: "surfaceArea"},
		},
		Evaluator: noop,
	})
	require.NoError(t, err)

	assert.Equal(t, "cylinder", nt.Name())
	assert.Equal(t, "cylinder", nt.NodeName())
	assert.Equal(t, "0x0012a0", FormatTypeID(nt.TypeID()))
	assert.Equal(t, Parallel, nt.Mode())
	assert.True(t, nt.Plugs().Sealed())
	assert.True(t, nt.Table().Sealed())
	assert.Equal(t, []string{"radius"}, nt.Table().AffectorsOf("surfaceArea"))
	assert.Empty(t, nt.Warnings())
}

func TestDeclare_DefaultEdgesAreAllToAll(t *testing.T) {
	nt, err := Declare(context.Background(), Declaration{
		Name: "blend",
		Plugs: []*plug.Descriptor{
			numberPlug("a", plug.Input),
			numberPlug("b", plug.Input),
			numberPlug("x", plug.Output),
			numberPlug("y", plug.Output),
		},
		Evaluator: noop,
	})
	require.NoError(t, err)
	assert.Len(t, nt.Table().Edges(), 4)
	assert.Equal(t, []string{"x", "y"}, nt.Table().DependentsOf("b"))
}

func TestDeclare_Errors(t *testing.T) {
	testCases := []struct {
		name string
		decl Declaration
		kind error
	}{
		{
			name: "missing name",
			decl: Declaration{Evaluator: noop},
			kind: nodeerr.ErrInvalidDeclaration,
		},
		{
			name: "missing evaluator",
			decl: Declaration{Name: "n"},
			kind: nodeerr.ErrInvalidDeclaration,
		},
		{
			name: "duplicate plug",
			decl: Declaration{Name: "n", Evaluator: noop, Plugs: []*plug.Descriptor{
				numberPlug("a", plug.Input), numberPlug("a", plug.Output),
			}},
			kind: nodeerr.ErrDuplicateKey,
		},
		{
			name: "edge to unknown plug",
			decl: Declaration{Name: "n", Evaluator: noop,
				Plugs: []*plug.Descriptor{numberPlug("a", plug.Input), numberPlug("x", plug.Output)},
				Edges: []dependency.Edge{{In: "a", Out: "nope"}},
			},
			kind: nodeerr.ErrUnknownPlug,
		},
		{
			name: "edge in wrong direction",
			decl: Declaration{Name: "n", Evaluator: noop,
				Plugs: []*plug.Descriptor{numberPlug("a", plug.Input), numberPlug("x", plug.Output)},
				Edges: []dependency.Edge{{In: "x", Out: "a"}},
			},
			kind: nodeerr.ErrInvalidDirection,
		},
		{
			name: "output without inputs",
			decl: Declaration{Name: "n", Evaluator: noop,
				Plugs: []*plug.Descriptor{numberPlug("x", plug.Output)},
			},
			kind: nodeerr.ErrUnaffectedOutput,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Declare(context.Background(), tc.decl)
			assert.ErrorIs(t, err, tc.kind)
		})
	}
}

func TestDeclare_ConstantOutput(t *testing.T) {
	nt, err := Declare(context.Background(), Declaration{
		Name:      "seed",
		Plugs:     []*plug.Descriptor{numberPlug("x", plug.Output)},
		Constants: []string{"x"},
		Evaluator: noop,
	})
	require.NoError(t, err)
	assert.True(t, nt.Table().IsConstant("x"))
}

func TestDeclare_UnusedInputWarns(t *testing.T) {
	nt, err := Declare(context.Background(), Declaration{
		Name: "n",
		Plugs: []*plug.Descriptor{
			numberPlug("a", plug.Input),
			numberPlug("spare", plug.Input),
			numberPlug("x", plug.Output),
		},
		Edges:     []dependency.Edge{{In: "a", Out: "x"}},
		Evaluator: noop,
	})
	require.NoError(t, err)
	assert.Len(t, nt.Warnings(), 1)
}

func TestParseSchedulingMode(t *testing.T) {
	testCases := []struct {
		in        string
		want      SchedulingMode
		expectErr bool
	}{
		{in: "", want: Parallel},
		{in: "parallel", want: Parallel},
		{in: "Serial", want: Serial},
		{in: "sometimes", expectErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSchedulingMode(tc.in)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInputs(t *testing.T) {
	in := NewInputs("n", map[string]cty.Value{
		"radius": cty.NumberFloatVal(2),
		"label":  cty.StringVal("hi"),
		"on":     cty.True,
		"offset": plug.FloatsVal(1, 2, 3),
	})

	r, err := in.Number("radius")
	require.NoError(t, err)
	assert.Equal(t, 2.0, r)

	s, err := in.String("label")
	require.NoError(t, err)
	assert.Equal(t, "hi", s)

	b, err := in.Bool("on")
	require.NoError(t, err)
	assert.True(t, b)

	fs, err := in.Floats("offset")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, fs)

	_, err = in.Number("missing")
	assert.ErrorIs(t, err, nodeerr.ErrMissingInput)

	_, err = in.Number("label")
	assert.ErrorIs(t, err, nodeerr.ErrEvaluationFailure)

	assert.Equal(t, []string{"label", "offset", "on", "radius"}, in.Keys())
	assert.True(t, in.Has("on"))
}

func TestInputs_Decode(t *testing.T) {
	in := NewInputs("n", map[string]cty.Value{
		"radius": cty.NumberFloatVal(2),
		"height": cty.NumberFloatVal(5),
	})

	var target struct {
		Radius float64 `cty:"radius"`
		Height float64 `cty:"height"`
		Extra  float64 `cty:"extra"`
		Plain  string
	}
	target.Extra = 7
	require.NoError(t, in.Decode(&target))
	assert.Equal(t, 2.0, target.Radius)
	assert.Equal(t, 5.0, target.Height)
	assert.Equal(t, 7.0, target.Extra)

	assert.Error(t, in.Decode(target))
}
