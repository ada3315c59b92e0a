package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertResult checks that the run printed the value of addr. The value is
// compared as the printed JSON text.
func AssertResult(t *testing.T, result *HarnessResult, addr, value string) {
	t.Helper()

	line := fmt.Sprintf("%s = %s\n", addr, value)
	require.True(t,
		strings.Contains(result.Output, line),
		"expected output line %q not found.\n--- Output ---\n%s", strings.TrimSpace(line), result.Output,
	)
}

// AssertResultPrefix checks the printed value of addr starts with prefix,
// for values with long fractional parts.
func AssertResultPrefix(t *testing.T, result *HarnessResult, addr, prefix string) {
	t.Helper()

	needle := fmt.Sprintf("%s = %s", addr, prefix)
	require.True(t,
		strings.Contains(result.Output, needle),
		"expected output starting with %q not found.\n--- Output ---\n%s", needle, result.Output,
	)
}
