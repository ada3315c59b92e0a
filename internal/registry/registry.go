package registry

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/vk/plugflow/internal/config"
	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/nodetype"
)

var (
	// ErrDuplicateNodeType is returned when a class name or type ID is taken.
	ErrDuplicateNodeType = errors.New("duplicate node type")
	// ErrNodeTypeInUse is returned when deregistering a type with live instances.
	ErrNodeTypeInUse = errors.New("node type has live instances")
)

// Module is the interface that all built-in modules implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered evaluators, definitions and node types
// for a single application instance.
type Registry struct {
	Handlers    *handlers.Handlers
	Definitions map[string]*config.NodeDefinition

	mu    sync.RWMutex
	types map[string]*entry
	byID  map[uint32]string
}

type entry struct {
	nodeType *nodetype.NodeType
	live     int
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		Handlers:    handlers.New(),
		Definitions: make(map[string]*config.NodeDefinition),
		types:       make(map[string]*entry),
		byID:        make(map[uint32]string),
	}
}

// RegisterEvaluator registers the Go side of an evaluator named in manifests.
func (r *Registry) RegisterEvaluator(name string, handler *handlers.RegisteredHandler) {
	r.Handlers.RegisterHandler(name, handler)
}

// PopulateDefinitionsFromModel copies the loaded node definitions from the
// config model into the registry.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Nodes {
		r.Definitions[key] = val
	}
}

// Add stores a finalized node type. Class names and non-zero type IDs must
// be unique.
func (r *Registry) Add(nt *nodetype.NodeType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[nt.Name()]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateNodeType, nt.Name())
	}
	if id := nt.TypeID(); id != 0 {
		if other, exists := r.byID[id]; exists {
			return fmt.Errorf("%w: type ID %s of %q already used by %q", ErrDuplicateNodeType, nodetype.FormatTypeID(id), nt.Name(), other)
		}
		r.byID[id] = nt.Name()
	}
	r.types[nt.Name()] = &entry{nodeType: nt}
	return nil
}

// Lookup returns the node type registered under name.
func (r *Registry) Lookup(name string) (*nodetype.NodeType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.types[name]
	if !ok {
		return nil, nodeerr.New(nodeerr.ErrUnknownNodeType, name, "", "not registered")
	}
	return e.nodeType, nil
}

// LookupID returns the node type registered under a type ID.
func (r *Registry) LookupID(id uint32) (*nodetype.NodeType, error) {
	r.mu.RLock()
	name, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nodeerr.New(nodeerr.ErrUnknownNodeType, nodetype.FormatTypeID(id), "", "no node type with this ID")
	}
	return r.Lookup(name)
}

// Acquire looks up name and counts one more live instance of it.
func (r *Registry) Acquire(name string) (*nodetype.NodeType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.types[name]
	if !ok {
		return nil, nodeerr.New(nodeerr.ErrUnknownNodeType, name, "", "not registered")
	}
	e.live++
	return e.nodeType, nil
}

// Release counts one fewer live instance of name.
func (r *Registry) Release(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.types[name]; ok && e.live > 0 {
		e.live--
	}
}

// Live returns the number of live instances of name.
func (r *Registry) Live(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.types[name]; ok {
		return e.live
	}
	return 0
}

// Deregister removes a node type. It fails while instances of it exist.
func (r *Registry) Deregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.types[name]
	if !ok {
		return nodeerr.New(nodeerr.ErrUnknownNodeType, name, "", "not registered")
	}
	if e.live > 0 {
		return fmt.Errorf("%w: %q has %d", ErrNodeTypeInUse, name, e.live)
	}
	delete(r.types, name)
	if id := e.nodeType.TypeID(); id != 0 {
		delete(r.byID, id)
	}
	return nil
}

// Names returns the registered class names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.types))
}
