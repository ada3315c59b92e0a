package integration_tests

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/testutil"
)

const gaugeManifest = `
	plugin "gauge" {
		node "Gauge" {
			node_name = "gauge"
			id        = "0x00ab01"
			evaluator = "gauge"
			input "hcl_only_field" {
				type = number
			}
			output "reading" {
				type = number
			}
		}
	}
`

// TestStartupValidation_ManifestImplementationMismatch_Fails validates that
// the app panics on startup if a manifest and Go struct are out of sync.
func TestStartupValidation_ManifestImplementationMismatch_Fails(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"modules/gauge/manifest.hcl": gaugeManifest,
		"grid/main.hcl":              `request = []`,
	}
	module := &testutil.SimpleModule{
		Name:      "gauge",
		Inputs: struct {
			GoOnlyField float64 `cty:"go_only_field"`
		}{},
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, module)

	// --- Assert ---
	require.Error(t, result.Err, "app.NewApp() should have panicked, but it did not")
	errStr := result.Err.Error()
	require.True(t, strings.HasPrefix(errStr, "application startup panicked"))

	expectedGoError := "Go struct has field for input 'go_only_field' which is not declared in manifest"
	require.Contains(t, errStr, expectedGoError)

	expectedHclError := "manifest declares input 'hcl_only_field' which is not found in Go struct"
	require.Contains(t, errStr, expectedHclError)
}

// TestStartupValidation_MissingEvaluator_Fails validates that every manifest
// node needs a registered evaluator.
func TestStartupValidation_MissingEvaluator_Fails(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	files := map[string]string{
		"modules/gauge/manifest.hcl": gaugeManifest,
		"grid/main.hcl":              `request = []`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, &testutil.SimpleModule{Name: "unused"})

	// --- Assert ---
	require.Error(t, result.Err)
	require.Contains(t, result.Err.Error(), "node 'Gauge': evaluator 'gauge' is not registered")
	require.Contains(t, result.Output, "Evaluator is registered but no manifest uses it.")
}
