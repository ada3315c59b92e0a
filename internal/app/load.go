package app

import (
	"context"
	"fmt"

	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/registry"
)

// load reads the configuration, pairs every manifest node with its Go
// evaluator and declares the resulting node types.
func (a *App) load(ctx context.Context, loader config.Loader, modules []registry.Module) error {
	logger := ctxlog.FromContext(ctx)

	var paths []string
	if a.config.ModulesPath != "" {
		paths = append(paths, a.config.ModulesPath)
	}
	if a.config.GridPath != "" {
		paths = append(paths, a.config.GridPath)
	}

	model, converter, err := loader.Load(ctx, paths...)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.model = model
	a.converter = converter
	logger.Debug("Configuration loaded.", "plugins", len(model.Plugins), "nodes", len(model.Nodes), "instances", len(model.Grid.Instances))

	for _, mod := range modules {
		mod.Register(a.registry)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	a.registry.PopulateDefinitionsFromModel(model)
	if err := a.registry.ValidateRegistry(ctx); err != nil {
		return err
	}
	logger.Debug("Registry validation passed.")

	decls, err := a.registry.Declarations(ctx)
	if err != nil {
		return err
	}
	for _, decl := range decls {
		if _, err := a.engine.DeclareNodeType(ctx, decl); err != nil {
			return fmt.Errorf("failed to declare node type '%s': %w", decl.Name, err)
		}
	}
	logger.Info("Node types declared.", "count", len(decls))
	return nil
}
