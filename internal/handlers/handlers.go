// Package handlers maps the evaluator names used in manifests to the Go code
// that implements them.
package handlers

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/vk/plugflow/internal/nodetype"
)

// Handlers holds all the registered handlers
type Handlers struct {
	all map[string]*RegisteredHandler
}

// New creates and initializes a new Handlers instance.
func New() *Handlers {
	return &Handlers{
		all: make(map[string]*RegisteredHandler),
	}
}

// RegisteredHandler holds the compiled Go side of a node type.
type RegisteredHandler struct {
	// New returns the evaluator shared by every instance of the node type.
	New func() nodetype.Evaluator
	// Inputs optionally points at a struct whose `cty` tags name the inputs
	// the evaluator reads. When set, registry validation checks the tags
	// against the manifest.
	Inputs any
}

// RegisterHandler registers the Go side of an evaluator under name.
func (r *Handlers) RegisterHandler(name string, handler *RegisteredHandler) {
	if _, exists := r.all[name]; exists {
		panic(fmt.Sprintf("evaluator handler with name '%s' already registered", name))
	}
	if handler == nil || handler.New == nil {
		panic(fmt.Sprintf("evaluator handler '%s' has no constructor", name))
	}
	slog.Debug("Registering evaluator handler.", "name", name)
	r.all[name] = handler
}

// Get returns the handler registered under name.
func (r *Handlers) Get(name string) (*RegisteredHandler, bool) {
	h, ok := r.all[name]
	return h, ok
}

// Names returns the registered handler names, sorted.
func (r *Handlers) Names() []string {
	return slices.Sorted(maps.Keys(r.all))
}
