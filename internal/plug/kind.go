package plug

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// Kind is the data kind of a plug.
type Kind int

const (
	// KindNumber is a scalar numeric plug.
	KindNumber Kind = iota
	// KindBool is a boolean plug.
	KindBool
	// KindString is a free-form string plug.
	KindString
	// KindVector is a 3-component numeric vector.
	KindVector
	// KindMatrix is a 4x4 numeric matrix stored row-major as 16 numbers.
	KindMatrix
	// KindEnum is a string restricted to a fixed set of options.
	KindEnum
	// KindCurve is an ordered list of {position, value} control points.
	KindCurve
	// KindCompound is an object whose attributes are child descriptors.
	KindCompound
)

const (
	vectorLen = 3
	matrixLen = 16
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindVector:
		return "vector"
	case KindMatrix:
		return "matrix"
	case KindEnum:
		return "enum"
	case KindCurve:
		return "curve"
	case KindCompound:
		return "compound"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// numeric reports whether min/max apply to the kind's components.
func (k Kind) numeric() bool {
	return k == KindNumber || k == KindVector || k == KindMatrix
}

// curvePointType is the element type of a curve plug.
var curvePointType = cty.Object(map[string]cty.Type{
	"position": cty.Number,
	"value":    cty.Number,
})

// Direction tells whether a plug is read by or written by the evaluator.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Arity distinguishes a single value from an indexed array of values.
type Arity int

const (
	Scalar Arity = iota
	Array
)

// IdentityMatrix returns the 4x4 identity as a matrix plug value.
func IdentityMatrix() cty.Value {
	vals := make([]cty.Value, matrixLen)
	for i := range vals {
		if i%5 == 0 {
			vals[i] = cty.NumberIntVal(1)
		} else {
			vals[i] = cty.NumberIntVal(0)
		}
	}
	return cty.ListVal(vals)
}
