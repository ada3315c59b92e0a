package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const modulesPath = "../../modules"

func writeGrid(t *testing.T, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "grid.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0o600), "failed to set up test file")
	return filePath
}

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A syntax error makes the loader fail inside app.NewApp, which panics.
	grid := writeGrid(t, `
		instance "Cylinder" "c1" {
			set = {
		// Missing closing braces here
	`)
	args := []string{"run", "--modules-path", modulesPath, grid}
	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.ErrorContains(t, runErr, "application startup panicked")
	require.ErrorContains(t, runErr, "failed to parse")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when help is requested")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, []string{"run", "--this-is-not-a-valid-flag", "g.hcl"})

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	grid := writeGrid(t, `
instance "Cylinder" "c1" {
  set = { radius = 1, height = 2 }
}
instance "Cylinder" "c2" {
  set = { height = 1 }
}
instance "Compose" "m" {
  set = { translate = [1, 2, 3], scale = [2, 2, 2] }
}

connect {
  from = "c1.volume"
  to   = "c2.radius"
}

request = ["c2.volume", "m.origin"]
`)

	t.Run("run", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(context.Background(), out, []string{"run", "--modules-path", modulesPath, "--set", "c1.radius=PI / PI", grid})

		require.NoError(t, err)
		require.Contains(t, out.String(), "c2.volume = 124.0")
		require.Contains(t, out.String(), "m.origin = [1,2,3]")
	})

	t.Run("validate", func(t *testing.T) {
		out := &bytes.Buffer{}
		err := run(context.Background(), out, []string{"validate", "--modules-path", modulesPath, grid})

		require.NoError(t, err)
		require.Contains(t, out.String(), "3 instances, 1 connections, 2 requests: ok")
	})
}
