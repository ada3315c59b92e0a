package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/engine"
	"github.com/vk/plugflow/internal/metrics"
	"github.com/vk/plugflow/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	registry  *registry.Registry
	engine    *engine.Engine
	model     *config.Model
	converter config.Converter

	metrics    *prometheus.Registry
	httpServer *http.Server
}

// NewApp loads every manifest and grid file, registers the Go modules and
// declares a node type per manifest node. Configuration and registration
// errors are fatal at startup, so NewApp panics on them; the entrypoint
// recovers and reports.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector())

	a := &App{
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: registry.New(),
		metrics:  promReg,
	}
	a.engine = engine.New(a.registry, metrics.New(promReg))

	if len(modules) == 0 {
		modules = coreModules
	}
	if err := a.load(ctx, loader, modules); err != nil {
		panic(err)
	}
	return a
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Engine returns the engine the node types were declared into.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Metrics returns the Prometheus registry served on /metrics.
func (a *App) Metrics() *prometheus.Registry {
	return a.metrics
}

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

func (a *App) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(a.outW, format, args...); err != nil {
		a.logger.Warn("Failed to write output.", "error", err)
	}
}
