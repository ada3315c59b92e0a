package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/plug"
)

func newPlugs(t *testing.T, inputs, outputs []string) *plug.Registry {
	t.Helper()
	r := plug.NewRegistry("test")
	for _, k := range inputs {
		require.NoError(t, r.Register(&plug.Descriptor{Key: k, Direction: plug.Input, Kind: plug.KindNumber}))
	}
	for _, k := range outputs {
		require.NoError(t, r.Register(&plug.Descriptor{Key: k, Direction: plug.Output, Kind: plug.KindNumber}))
	}
	return r
}

func TestDeclareAffects(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"radius", "height"}, []string{"volume", "surfaceArea"}))
		require.NoError(t, tbl.DeclareAffects("radius", "volume"))
		require.NoError(t, tbl.DeclareAffects("radius", "surfaceArea"))
		require.NoError(t, tbl.DeclareAffects("height", "volume"))
		require.NoError(t, tbl.DeclareAffects("radius", "volume")) // idempotent

		assert.Equal(t, []string{"volume", "surfaceArea"}, tbl.DependentsOf("radius"))
		assert.Equal(t, []string{"volume"}, tbl.DependentsOf("height"))
		assert.Equal(t, []string{"radius", "height"}, tbl.AffectorsOf("volume"))
		assert.Equal(t, []string{"radius"}, tbl.AffectorsOf("surfaceArea"))
		assert.Len(t, tbl.Edges(), 3)
	})

	t.Run("error cases", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"a", "b"}, []string{"x", "y"}))

		assert.ErrorIs(t, tbl.DeclareAffects("dne", "x"), nodeerr.ErrUnknownPlug)
		assert.ErrorIs(t, tbl.DeclareAffects("a", "dne"), nodeerr.ErrUnknownPlug)
		assert.ErrorIs(t, tbl.DeclareAffects("x", "y"), nodeerr.ErrInvalidDirection)
		assert.ErrorIs(t, tbl.DeclareAffects("a", "b"), nodeerr.ErrInvalidDirection)
		assert.ErrorIs(t, tbl.DeclareAffects("x", "a"), nodeerr.ErrInvalidDirection)
		assert.Empty(t, tbl.Edges())
	})
}

func TestDependentsOfReturnsCopy(t *testing.T) {
	tbl := NewTable("test", newPlugs(t, []string{"a"}, []string{"x"}))
	require.NoError(t, tbl.DeclareAffects("a", "x"))

	deps := tbl.DependentsOf("a")
	deps[0] = "mutated"
	assert.Equal(t, []string{"x"}, tbl.DependentsOf("a"))
}

func TestFinalize(t *testing.T) {
	t.Run("output without affector fails", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"a"}, []string{"x", "y"}))
		require.NoError(t, tbl.DeclareAffects("a", "x"))

		_, err := tbl.Finalize()
		assert.ErrorIs(t, err, nodeerr.ErrUnaffectedOutput)
		assert.False(t, tbl.Sealed())
	})

	t.Run("constant output is legal", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"a"}, []string{"x", "seed"}))
		require.NoError(t, tbl.DeclareAffects("a", "x"))
		require.NoError(t, tbl.MarkConstant("seed"))

		warnings, err := tbl.Finalize()
		require.NoError(t, err)
		assert.Empty(t, warnings)
		assert.True(t, tbl.IsConstant("seed"))
	})

	t.Run("unused input is a warning", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"a", "spare"}, []string{"x"}))
		require.NoError(t, tbl.DeclareAffects("a", "x"))

		warnings, err := tbl.Finalize()
		require.NoError(t, err)
		assert.Equal(t, []string{`input "spare" affects no output`}, warnings)
	})

	t.Run("sealed table rejects edges", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"a"}, []string{"x"}))
		require.NoError(t, tbl.DeclareAffects("a", "x"))
		_, err := tbl.Finalize()
		require.NoError(t, err)

		assert.ErrorIs(t, tbl.DeclareAffects("a", "x"), nodeerr.ErrSealed)
		assert.ErrorIs(t, tbl.MarkConstant("x"), nodeerr.ErrSealed)
	})

	t.Run("only outputs can be constant", func(t *testing.T) {
		tbl := NewTable("test", newPlugs(t, []string{"a"}, []string{"x"}))
		assert.ErrorIs(t, tbl.MarkConstant("a"), nodeerr.ErrInvalidDirection)
	})
}
