// Package testutil runs the whole application against HCL files written into
// a temporary directory.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/app"
	"github.com/vk/plugflow/internal/hcl"
	"github.com/vk/plugflow/internal/registry"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Output is everything the app wrote: debug logs and result lines.
	Output string
	Err    error
	App    *app.App
}

// RunIntegrationTest writes files under a temporary root and runs the app
// with a background context. See RunIntegrationTestWithConfig.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithConfig(context.Background(), t, files, app.Config{}, modules...)
}

// RunIntegrationTestWithConfig writes files under a temporary root, keyed by
// relative path such as "grid/main.hcl" or "modules/x/manifest.hcl", and
// runs the app over them. The grid path in cfg is replaced, and so is the
// modules path when files hold any manifests. Log level is forced to debug.
// A startup panic is returned as Err.
func RunIntegrationTestWithConfig(ctx context.Context, t *testing.T, files map[string]string, cfg app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	gridDir := filepath.Join(tmpDir, "grid")
	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.MkdirAll(gridDir, 0o755))

	hasModules := false
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
		if strings.HasPrefix(filepath.ToSlash(name), "modules/") {
			hasModules = true
		}
	}

	cfg.GridPath = gridDir
	if hasModules {
		cfg.ModulesPath = modulesDir
	}
	cfg.LogLevel = "debug"
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 4
	}
	validated, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &app.SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("PLUGFLOW_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, validated, hcl.NewLoader(), modules...)
	}()
	if panicErr != nil {
		return &HarnessResult{
			Output: logBuffer.String(),
			Err:    fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		Output: logBuffer.String(),
		Err:    runErr,
		App:    testApp,
	}
}
