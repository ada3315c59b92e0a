package hcl

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

type parsedFile struct {
	path string
	root fileRoot
}

// Load parses every manifest and grid file under paths. Plugin constants are
// collected from all files first, so defaults and instance values in any
// file may refer to constants declared in any other.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.ResolvePaths(paths...)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered configuration files.", "count", len(files))

	parser := hclparse.NewParser()
	parsed := make([]*parsedFile, 0, len(files))
	for _, file := range files {
		var f *hcl.File
		var diags hcl.Diagnostics
		if filepath.Ext(file) == ".json" {
			f, diags = parser.ParseJSONFile(file)
		} else {
			f, diags = parser.ParseHCLFile(file)
		}
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse file %s: %w", file, diags)
		}

		pf := &parsedFile{path: file}
		if diags := gohcl.DecodeBody(f.Body, nil, &pf.root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode file %s: %w", file, diags)
		}
		parsed = append(parsed, pf)
	}

	model := config.NewModel()
	for _, pf := range parsed {
		for _, pb := range pf.root.Plugins {
			p, err := translatePlugin(pb, pf.path)
			if err != nil {
				return nil, nil, err
			}
			if prev, dup := model.Plugins[p.Name]; dup {
				return nil, nil, fmt.Errorf("plugin '%s' declared in both %s and %s", p.Name, prev.Source, p.Source)
			}
			model.Plugins[p.Name] = p
		}
	}

	converter := NewConverter(model.Constants())

	for _, pf := range parsed {
		for _, pb := range pf.root.Plugins {
			for _, nb := range pb.Nodes {
				def, err := translateNode(ctx, converter, pb.Name, nb, pf.path)
				if err != nil {
					return nil, nil, err
				}
				if prev, dup := model.Nodes[def.Name]; dup {
					return nil, nil, fmt.Errorf("node '%s' declared in both %s and %s", def.Name, prev.Source, def.Source)
				}
				model.Nodes[def.Name] = def
				model.Plugins[pb.Name].Nodes = append(model.Plugins[pb.Name].Nodes, def.Name)
			}
		}
		if err := translateGrid(model.Grid, &pf.root); err != nil {
			return nil, nil, fmt.Errorf("in %s: %w", pf.path, err)
		}
	}

	logger.Debug("HCL loading complete.",
		"plugins", len(model.Plugins),
		"nodes", len(model.Nodes),
		"instances", len(model.Grid.Instances),
		"connections", len(model.Grid.Connections),
	)
	return model, converter, nil
}
