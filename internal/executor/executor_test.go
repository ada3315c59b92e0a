package executor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/engine"
	"github.com/vk/plugflow/internal/graph"
	"github.com/vk/plugflow/internal/inmemorystore"
	"github.com/vk/plugflow/internal/nodeid"
	"github.com/vk/plugflow/internal/nodestore"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// gauge tracks how many evaluators run at once.
type gauge struct {
	active atomic.Int32
	peak   atomic.Int32
}

func (g *gauge) enter() {
	n := g.active.Add(1)
	for {
		p := g.peak.Load()
		if n <= p || g.peak.CompareAndSwap(p, n) {
			return
		}
	}
}

func (g *gauge) leave() { g.active.Add(-1) }

// declareSlowDouble declares a node type computing out = 2 * in after a
// short sleep. A negative input fails the evaluation.
func declareSlowDouble(t *testing.T, eng *engine.Engine, name string, mode nodetype.SchedulingMode, g *gauge) {
	t.Helper()
	_, err := eng.DeclareNodeType(context.Background(), nodetype.Declaration{
		Name: name,
		Mode: mode,
		Plugs: []*plug.Descriptor{
			{Key: "in", Direction: plug.Input, Kind: plug.KindNumber},
			{Key: "out", Direction: plug.Output, Kind: plug.KindNumber},
		},
		Evaluator: nodetype.EvaluatorFunc(func(_ context.Context, in nodetype.Inputs, _ []string) (map[string]cty.Value, error) {
			g.enter()
			defer g.leave()
			x, err := in.Number("in")
			if err != nil {
				return nil, err
			}
			if x < 0 {
				return nil, errors.New("negative input")
			}
			time.Sleep(30 * time.Millisecond)
			return map[string]cty.Value{"out": cty.NumberFloatVal(2 * x)}, nil
		}),
	})
	require.NoError(t, err)
}

type fixture struct {
	ctx   context.Context
	graph *graph.Graph
	store *inmemorystore.Store
}

func newFixture(t *testing.T, mode nodetype.SchedulingMode, g *gauge, instances ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	eng := engine.New(registry.New(), nil)
	declareSlowDouble(t, eng, "Double", mode, g)

	gr := graph.New(eng)
	for _, name := range instances {
		require.NoError(t, gr.AddInstance(ctx, "Double", name))
		require.NoError(t, gr.Set(ctx, nodeid.New(name, "in"), cty.NumberIntVal(1)))
	}
	return &fixture{ctx: ctx, graph: gr, store: inmemorystore.New()}
}

func addrs(raw ...string) []nodeid.Address {
	out := make([]nodeid.Address, len(raw))
	for i, r := range raw {
		out[i] = nodeid.MustParse(r)
	}
	return out
}

func TestExecute_Chain(t *testing.T) {
	g := &gauge{}
	f := newFixture(t, nodetype.Parallel, g, "a", "b", "c", "unrelated")
	require.NoError(t, f.graph.Connect(f.ctx, nodeid.MustParse("a.out"), nodeid.MustParse("b.in")))
	require.NoError(t, f.graph.Connect(f.ctx, nodeid.MustParse("b.out"), nodeid.MustParse("c.in")))

	// --- Act ---
	results, err := New(f.graph, f.store, 4).Execute(f.ctx, addrs("c.out", "a.out"))

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c.out", results[0].Address.String())
	assert.Equal(t, "8", results[0].Value.String())
	assert.Equal(t, "2", results[1].Value.String())

	statuses := f.store.Statuses()
	assert.Equal(t, map[string]nodestore.Status{
		"a": nodestore.StatusCompleted,
		"b": nodestore.StatusCompleted,
		"c": nodestore.StatusCompleted,
	}, statuses, "instances outside the requests are not visited")

	v, ok, err := f.store.GetOutput(f.ctx, nodeid.MustParse("b.out"))
	require.NoError(t, err)
	require.True(t, ok, "outputs feeding planned instances are recorded")
	assert.Equal(t, "4", v.String())
}

func TestExecute_SchedulingModes(t *testing.T) {
	testCases := []struct {
		name       string
		mode       nodetype.SchedulingMode
		workers    int
		expectPeak int32
		overlap    bool
	}{
		{name: "parallel types overlap", mode: nodetype.Parallel, workers: 4, overlap: true},
		{name: "serial types never overlap", mode: nodetype.Serial, workers: 4, expectPeak: 1},
		{name: "worker limit bounds parallel types", mode: nodetype.Parallel, workers: 1, expectPeak: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := &gauge{}
			f := newFixture(t, tc.mode, g, "n1", "n2", "n3", "n4")

			_, err := New(f.graph, f.store, tc.workers).Execute(f.ctx, addrs("n1.out", "n2.out", "n3.out", "n4.out"))
			require.NoError(t, err)
			if tc.overlap {
				assert.Greater(t, g.peak.Load(), int32(1))
				return
			}
			assert.Equal(t, tc.expectPeak, g.peak.Load())
		})
	}
}

func TestExecute_FailureStopsRun(t *testing.T) {
	g := &gauge{}
	f := newFixture(t, nodetype.Parallel, g, "a", "b")
	require.NoError(t, f.graph.Connect(f.ctx, nodeid.MustParse("a.out"), nodeid.MustParse("b.in")))
	require.NoError(t, f.graph.Set(f.ctx, nodeid.MustParse("a.in"), cty.NumberIntVal(-1)))

	// --- Act ---
	_, err := New(f.graph, f.store, 2).Execute(f.ctx, addrs("b.out"))

	// --- Assert ---
	require.Error(t, err)
	assert.ErrorContains(t, err, "negative input")

	status, err := f.store.GetStatus(f.ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusFailed, status)

	status, err = f.store.GetStatus(f.ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, nodestore.StatusPending, status, "downstream instances never start")

	nodeErr, err := f.store.GetError(f.ctx, "a")
	require.NoError(t, err)
	assert.ErrorContains(t, nodeErr, "instance 'a'")
}

func TestExecute_Errors(t *testing.T) {
	g := &gauge{}
	f := newFixture(t, nodetype.Parallel, g, "a")

	_, err := New(f.graph, f.store, 1).Execute(f.ctx, addrs("ghost.out"))
	assert.ErrorContains(t, err, "node not found")

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()
	_, err = New(f.graph, f.store, 1).Execute(ctx, addrs("a.out"))
	assert.ErrorIs(t, err, context.Canceled)
}
