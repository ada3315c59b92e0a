package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/plugflow/internal/hcl"
)

const modulesPath = "../../modules"

const lerpGrid = `
instance "Lerp" "l" {
  set = { a = 10, b = 20, t = 0.25 }
}
instance "Cylinder" "c" {
  set = { height = 3 }
}
instance "Sum" "s" {
  set = { values = [1, 2, 3], scale = 2 }
}

connect {
  from = "l.result"
  to   = "c.radius"
}

request = ["l.result", "c.volume", "s.total"]
`

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "grid.hcl")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func TestNewConfig(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       Config
		expectErr string
	}{
		{name: "defaults", cfg: Config{GridPath: "g.hcl", WorkerCount: 1}},
		{name: "no paths", cfg: Config{WorkerCount: 1}, expectErr: "at least one of GridPath or ModulesPath"},
		{name: "bad level", cfg: Config{GridPath: "g", LogLevel: "loud", WorkerCount: 1}, expectErr: "invalid log level"},
		{name: "bad format", cfg: Config{GridPath: "g", LogFormat: "xml", WorkerCount: 1}, expectErr: "invalid log format"},
		{name: "no workers", cfg: Config{GridPath: "g"}, expectErr: "worker count must be at least 1"},
		{name: "bad port", cfg: Config{GridPath: "g", WorkerCount: 1, HealthcheckPort: 70000}, expectErr: "out of range"},
		{name: "bad set", cfg: Config{GridPath: "g", WorkerCount: 1, Sets: []string{"l.t"}}, expectErr: "invalid set"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.expectErr != "" {
				assert.ErrorContains(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "info", cfg.LogLevel)
			assert.Equal(t, "text", cfg.LogFormat)
		})
	}
}

func TestRun(t *testing.T) {
	grid := writeGrid(t, lerpGrid)

	t.Run("success case", func(t *testing.T) {
		a, out := SetupAppTest(t, Config{GridPath: grid, ModulesPath: modulesPath})

		require.NoError(t, a.Run(context.Background()))

		assert.Contains(t, out.String(), "l.result = 12.5\n")
		assert.Contains(t, out.String(), "c.volume = 1472.6")
		assert.Contains(t, out.String(), "s.total = 12\n")
		assert.Equal(t, []string{"Compose", "Cylinder", "Lerp", "SampleCurve", "Sum"}, a.Registry().Names())
	})

	t.Run("overrides and extra requests", func(t *testing.T) {
		a, out := SetupAppTest(t, Config{
			GridPath:    grid,
			ModulesPath: modulesPath,
			Sets:        []string{"l.t=1", "s.values=[]"},
			Requests:    []string{"s.count"},
		})

		require.NoError(t, a.Run(context.Background()))

		assert.Contains(t, out.String(), "l.result = 20\n")
		assert.Contains(t, out.String(), "s.count = 0\n")
	})

	t.Run("partial result fails the run", func(t *testing.T) {
		a, _ := SetupAppTest(t, Config{
			GridPath:    grid,
			ModulesPath: modulesPath,
			Sets:        []string{"s.values=[]"},
			Requests:    []string{"s.mean"},
		})

		err := a.Run(context.Background())
		assert.ErrorContains(t, err, "requested output not produced")
	})

	t.Run("unknown node type in grid", func(t *testing.T) {
		bad := writeGrid(t, `instance "Teapot" "t" {}`)
		a, _ := SetupAppTest(t, Config{GridPath: bad, ModulesPath: modulesPath})

		err := a.Run(context.Background())
		assert.ErrorContains(t, err, "failed to build grid")
	})
}

func TestValidate(t *testing.T) {
	a, out := SetupAppTest(t, Config{GridPath: writeGrid(t, lerpGrid), ModulesPath: modulesPath})

	require.NoError(t, a.Validate(context.Background()))
	assert.Contains(t, out.String(), "5 node types, 3 instances, 1 connections, 3 requests: ok")
}

func TestNewApp_PanicsOnMissingEvaluator(t *testing.T) {
	dir := t.TempDir()
	manifest := `
plugin "teapot" {
  node "Teapot" {
    node_name = "teapot"
    id        = "0x00ff01"
    evaluator = "teapot"
    input "size" {
      type = number
    }
    output "volume" {
      type = number
    }
  }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifest.hcl"), []byte(manifest), 0o600))
	cfg, err := NewConfig(Config{ModulesPath: dir, WorkerCount: 1})
	require.NoError(t, err)

	assert.PanicsWithError(t, "registry validation failed:\n- node 'Teapot': evaluator 'teapot' is not registered", func() {
		NewApp(&SafeBuffer{}, cfg, hcl.NewLoader())
	})
}

func TestHealthRouter(t *testing.T) {
	a, _ := SetupAppTest(t, Config{GridPath: writeGrid(t, lerpGrid), ModulesPath: modulesPath})
	require.NoError(t, a.Run(context.Background()))
	router := a.healthRouter()

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "OK\n", rec.Body.String())
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `plugflow_compute_passes_total{node_type="Lerp"} 1`)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
