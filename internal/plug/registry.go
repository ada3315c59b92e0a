package plug

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/plugflow/internal/nodeerr"
)

// Registry is the catalog of plug descriptors for a single node type.
type Registry struct {
	nodeType string
	byKey    map[string]*Descriptor
	byShort  map[string]*Descriptor
	inputs   []string
	outputs  []string
	sealed   bool
}

// NewRegistry creates an empty plug registry for the named node type.
func NewRegistry(nodeType string) *Registry {
	return &Registry{
		nodeType: nodeType,
		byKey:    make(map[string]*Descriptor),
		byShort:  make(map[string]*Descriptor),
	}
}

// Register adds a descriptor. The registry takes ownership of d: its default
// is normalized to the plug's type and it must not be modified afterwards.
func (r *Registry) Register(d *Descriptor) error {
	if r.sealed {
		return nodeerr.New(nodeerr.ErrSealed, r.nodeType, d.Key, "cannot register plugs after finalization")
	}
	if err := r.validate(d); err != nil {
		return err
	}
	if _, exists := r.lookup(d.Key); exists {
		return nodeerr.New(nodeerr.ErrDuplicateKey, r.nodeType, d.Key, "key already registered")
	}
	if d.ShortName != "" {
		if _, exists := r.lookup(d.ShortName); exists {
			return nodeerr.New(nodeerr.ErrDuplicateKey, r.nodeType, d.Key, "short name %q already registered", d.ShortName)
		}
	}

	r.byKey[d.Key] = d
	if d.ShortName != "" && d.ShortName != d.Key {
		r.byShort[d.ShortName] = d
	}
	if d.IsInput() {
		r.inputs = append(r.inputs, d.Key)
	} else {
		r.outputs = append(r.outputs, d.Key)
	}
	return nil
}

// Describe returns the descriptor registered under key or its short name.
func (r *Registry) Describe(key string) (*Descriptor, error) {
	d, ok := r.lookup(key)
	if !ok {
		return nil, nodeerr.New(nodeerr.ErrUnknownPlug, r.nodeType, key, "not registered")
	}
	return d, nil
}

func (r *Registry) lookup(key string) (*Descriptor, bool) {
	if d, ok := r.byKey[key]; ok {
		return d, true
	}
	d, ok := r.byShort[key]
	return d, ok
}

// Inputs returns the input keys in registration order.
func (r *Registry) Inputs() []string {
	return append([]string(nil), r.inputs...)
}

// Outputs returns the output keys in registration order.
func (r *Registry) Outputs() []string {
	return append([]string(nil), r.outputs...)
}

// Len returns the number of registered plugs.
func (r *Registry) Len() int { return len(r.byKey) }

// Seal makes the registry read-only.
func (r *Registry) Seal() { r.sealed = true }

// Sealed reports whether the registry has been sealed.
func (r *Registry) Sealed() bool { return r.sealed }

func (r *Registry) validate(d *Descriptor) error {
	invalid := func(format string, args ...any) error {
		return nodeerr.New(nodeerr.ErrInvalidDeclaration, r.nodeType, d.Key, format, args...)
	}

	if d.Key == "" {
		return invalid("plug key is empty")
	}
	if !hclsyntax.ValidIdentifier(d.Key) {
		return invalid("plug key is not a valid identifier")
	}
	if d.ShortName != "" && !hclsyntax.ValidIdentifier(d.ShortName) {
		return invalid("short name %q is not a valid identifier", d.ShortName)
	}
	if err := validateShape(d); err != nil {
		return invalid("%s", err)
	}
	if d.Default != nil {
		v, err := conform(d, *d.Default, false)
		if err != nil {
			return invalid("default: %s", err)
		}
		d.Default = &v
	}
	return nil
}

// validateShape checks constraints that do not depend on a value.
func validateShape(d *Descriptor) error {
	if (d.Min != nil || d.Max != nil) && !d.Kind.numeric() {
		return fmt.Errorf("min/max are only valid on numeric kinds, not %s", d.Kind)
	}
	if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
		return fmt.Errorf("min %g is greater than max %g", *d.Min, *d.Max)
	}
	switch d.Kind {
	case KindEnum:
		if len(d.Options) == 0 {
			return fmt.Errorf("enum needs at least one option")
		}
		seen := make(map[string]struct{}, len(d.Options))
		for _, o := range d.Options {
			if _, dup := seen[o]; dup {
				return fmt.Errorf("enum option %q repeated", o)
			}
			seen[o] = struct{}{}
		}
	case KindCompound:
		if len(d.Children) == 0 {
			return fmt.Errorf("compound needs at least one child")
		}
		seen := make(map[string]struct{}, len(d.Children))
		for _, c := range d.Children {
			if !hclsyntax.ValidIdentifier(c.Key) {
				return fmt.Errorf("compound child %q is not a valid identifier", c.Key)
			}
			if _, dup := seen[c.Key]; dup {
				return fmt.Errorf("compound child %q repeated", c.Key)
			}
			seen[c.Key] = struct{}{}
			if err := validateShape(c); err != nil {
				return fmt.Errorf("compound child %q: %w", c.Key, err)
			}
		}
	default:
		if len(d.Options) > 0 {
			return fmt.Errorf("options are only valid on enum plugs")
		}
		if len(d.Children) > 0 {
			return fmt.Errorf("children are only valid on compound plugs")
		}
	}
	return nil
}
