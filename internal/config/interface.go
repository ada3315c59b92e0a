package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths, translates it into the
	// format-agnostic model, and returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter evaluates raw configuration expressions into cty values. It is
// bound to the model it was loaded with, so expressions may refer to plugin
// constants.
type Converter interface {
	// Evaluate resolves an attribute expression, such as a value in an
	// instance's `set` block.
	Evaluate(ctx context.Context, expr hcl.Expression) (cty.Value, error)

	// ParseValue parses and evaluates a standalone expression given as
	// source text, as supplied on the command line.
	ParseValue(ctx context.Context, src string) (cty.Value, error)
}
