package integration_tests

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/plugflow/internal/testutil"
)

const sleepDuration = 150 * time.Millisecond

// sleeperFiles returns the sleeper manifest and a grid with one instance of
// nodeType per id, all requested.
func sleeperFiles(nodeType string, ids ...string) map[string]string {
	var grid strings.Builder
	requests := make([]string, 0, len(ids))
	for _, id := range ids {
		fmt.Fprintf(&grid, "instance %q %q {\n  set = { id = %q }\n}\n", nodeType, id, id)
		requests = append(requests, fmt.Sprintf("%q", id+".out"))
	}
	fmt.Fprintf(&grid, "request = [%s]\n", strings.Join(requests, ", "))

	return map[string]string{
		"modules/sleeper/manifest.hcl": testutil.SleeperManifest,
		"grid/main.hcl":                grid.String(),
	}
}
