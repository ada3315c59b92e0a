package plug

import (
	"github.com/zclconf/go-cty/cty"
)

// Flags are the presentation and storage hints a host attaches to a plug.
// The compute core carries them but never acts on them.
type Flags struct {
	Keyable  bool
	Storable bool
	Readable bool
	Writable bool
	Cached   bool
	Hidden   bool
}

// DefaultFlags returns the flags a plug gets when its declaration is silent:
// inputs are connection targets, outputs are connection sources.
func DefaultFlags(dir Direction) Flags {
	if dir == Output {
		return Flags{Keyable: false, Storable: true, Readable: true, Writable: false}
	}
	return Flags{Keyable: true, Storable: true, Readable: false, Writable: true}
}

// Descriptor is the static description of one plug on a node type.
//
// Once passed to Registry.Register the descriptor belongs to the registry and
// must not be modified.
type Descriptor struct {
	// Key is the stable identifier, unique within the node type.
	Key string
	// ShortName is an optional alias, also unique within the node type.
	ShortName string
	// Description is free text for tooling.
	Description string

	Direction Direction
	Kind      Kind
	Arity     Arity

	// Options lists the accepted strings of an enum plug.
	Options []string
	// Children are the attributes of a compound plug, in declaration order.
	Children []*Descriptor

	// Default is used when an input has never been set. Nil means the input
	// is required.
	Default *cty.Value
	// Min and Max bound numeric components. Inputs are clamped into range.
	Min *float64
	Max *float64

	Flags Flags
}

// Type returns the cty.Type every value of this plug conforms to.
func (d *Descriptor) Type() cty.Type {
	elem := d.elementType()
	if d.Arity == Array {
		return cty.List(elem)
	}
	return elem
}

func (d *Descriptor) elementType() cty.Type {
	switch d.Kind {
	case KindNumber:
		return cty.Number
	case KindBool:
		return cty.Bool
	case KindString, KindEnum:
		return cty.String
	case KindVector, KindMatrix:
		return cty.List(cty.Number)
	case KindCurve:
		return cty.List(curvePointType)
	case KindCompound:
		attrs := make(map[string]cty.Type, len(d.Children))
		for _, c := range d.Children {
			attrs[c.Key] = c.Type()
		}
		return cty.Object(attrs)
	default:
		return cty.DynamicPseudoType
	}
}

// IsInput reports whether the plug is an input.
func (d *Descriptor) IsInput() bool { return d.Direction == Input }

// IsOutput reports whether the plug is an output.
func (d *Descriptor) IsOutput() bool { return d.Direction == Output }

// HasDefault reports whether the plug carries a default value.
func (d *Descriptor) HasDefault() bool { return d.Default != nil }
