package integration_tests

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

// doubler returns a module whose evaluator doubles "in" into "out" and
// counts its passes.
func doubler(passes *atomic.Int32) *testutil.SimpleModule {
	return &testutil.SimpleModule{
		Name: "double",
		Evaluator: func(_ context.Context, in nodetype.Inputs, _ []string) (map[string]cty.Value, error) {
			passes.Add(1)
			v, err := in.Number("in")
			if err != nil {
				return nil, err
			}
			return map[string]cty.Value{"out": cty.NumberFloatVal(v * 2)}, nil
		},
		Inputs: struct {
			In float64 `cty:"in"`
		}{},
	}
}

// TestHclFeatures_UnifiedLoading validates that a plugin manifest and a grid
// can be loaded from the same file.
func TestHclFeatures_UnifiedLoading(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	unifiedHCL := `
		plugin "math" {
			node "Double" {
				node_name = "double"
				id        = "0x00cd01"
				evaluator = "double"
				input "in" {
					type = number
				}
				output "out" {
					type = number
				}
			}
		}

		instance "Double" "d" {
			set = { in = 21 }
		}
		request = ["d.out"]
	`
	files := map[string]string{"grid/main.hcl": unifiedHCL}
	var passes atomic.Int32

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, doubler(&passes))

	// --- Assert ---
	require.NoError(t, result.Err)
	require.Equal(t, int32(1), passes.Load())
	testutil.AssertResult(t, result, "d.out", "42")
}

// TestHclFeatures_JSONSyntax loads a manifest and a grid written in JSON.
func TestHclFeatures_JSONSyntax(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	manifest := `{
		"plugin": {
			"math": {
				"constants": {"BASE": 5},
				"node": {
					"Double": {
						"node_name": "double",
						"id": "0x00cd02",
						"evaluator": "double",
						"input": {
							"in": {"type": "number", "default": "${BASE}"}
						},
						"output": {
							"out": {"type": "number"}
						}
					}
				}
			}
		}
	}`
	grid := `{
		"instance": {
			"Double": {
				"implicit": {},
				"explicit": {"set": {"in": "${BASE * 10}"}}
			}
		},
		"request": ["implicit.out", "explicit.out"]
	}`
	files := map[string]string{
		"modules/math/manifest.json": manifest,
		"grid/main.json":             grid,
	}
	var passes atomic.Int32

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, doubler(&passes))

	// --- Assert ---
	require.NoError(t, result.Err)
	testutil.AssertResult(t, result, "implicit.out", "10")
	testutil.AssertResult(t, result, "explicit.out", "100")
}
