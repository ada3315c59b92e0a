package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/testutil"
)

// TestConcurrency_DependentWaitsForUpstream checks a connected instance only
// starts after its upstream has finished, while an unrelated one runs
// alongside the upstream.
func TestConcurrency_DependentWaitsForUpstream(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	grid := `
		instance "Sleeper" "A" {
			set = { id = "A" }
		}
		instance "Sleeper" "B" {
			set = { id = "B" }
		}
		instance "Sleeper" "C" {
			set = { id = "C" }
		}
		connect {
			from = "A.out"
			to   = "B.after"
		}
		request = ["B.out", "C.out"]
	`
	files := map[string]string{
		"modules/sleeper/manifest.hcl": testutil.SleeperManifest,
		"grid/main.hcl":                grid,
	}
	sleeper := testutil.NewSleeperModule(sleepDuration)

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files, sleeper)

	// --- Assert ---
	require.NoError(t, result.Err)
	a, err := sleeper.Record("A")
	require.NoError(t, err)
	b, err := sleeper.Record("B")
	require.NoError(t, err)
	c, err := sleeper.Record("C")
	require.NoError(t, err)

	require.False(t, b.Start.Before(a.End), "B started before A finished")
	require.True(t, a.Overlaps(c), "A and C share a level and should overlap")
	testutil.AssertResult(t, result, "B.out", `"B"`)
}
