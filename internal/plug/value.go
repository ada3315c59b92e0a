package plug

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Value is the materialized value of one plug, tagged with the plug's kind.
// The zero Value is absent: it has never been set or computed.
type Value struct {
	kind Kind
	val  cty.Value
	set  bool
}

// NewValue converts raw to the descriptor's type and checks it against the
// descriptor's shape constraints. Numeric components outside [Min, Max] are
// clamped.
func NewValue(d *Descriptor, raw cty.Value) (Value, error) {
	v, err := conform(d, raw, true)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: d.Kind, val: v, set: true}, nil
}

// Kind returns the data kind the value was created for.
func (v Value) Kind() Kind { return v.kind }

// Cty returns the underlying cty.Value, or cty.NilVal when absent.
func (v Value) Cty() cty.Value {
	if !v.set {
		return cty.NilVal
	}
	return v.val
}

// IsSet reports whether the value has been set or computed.
func (v Value) IsSet() bool { return v.set }

// Equal reports whether two values are identical.
func (v Value) Equal(o Value) bool {
	if !v.set || !o.set {
		return v.set == o.set
	}
	return v.kind == o.kind && v.val.RawEquals(o.val)
}

// String renders the value as JSON, for logs and CLI output.
func (v Value) String() string {
	if !v.set {
		return "<unset>"
	}
	b, err := ctyjson.SimpleJSONValue{Value: v.val}.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s>", v.val.Type().FriendlyName())
	}
	return string(b)
}

// AsFloat extracts a float64 from a number value.
func AsFloat(val cty.Value) (float64, error) {
	if val.IsNull() || !val.IsKnown() {
		return 0, fmt.Errorf("number is null or unknown")
	}
	if !val.Type().Equals(cty.Number) {
		return 0, fmt.Errorf("expected number, got %s", val.Type().FriendlyName())
	}
	f, _ := val.AsBigFloat().Float64()
	return f, nil
}

// AsFloats extracts the components of a list of numbers (vector, matrix or a
// numeric array).
func AsFloats(val cty.Value) ([]float64, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, fmt.Errorf("list is null or unknown")
	}
	if !val.CanIterateElements() {
		return nil, fmt.Errorf("expected a list of numbers, got %s", val.Type().FriendlyName())
	}
	out := make([]float64, 0, val.LengthInt())
	for it := val.ElementIterator(); it.Next(); {
		_, ev := it.Element()
		f, err := AsFloat(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// ErrNotFinite is returned for a computed number that is NaN or infinite.
var ErrNotFinite = errors.New("number is not finite")

// CheckFinite returns ErrNotFinite if any of fs is NaN or infinite.
func CheckFinite(fs ...float64) error {
	for _, f := range fs {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %v", ErrNotFinite, f)
		}
	}
	return nil
}

// NumberVal builds a number value from f, rejecting NaN and infinities.
func NumberVal(f float64) (cty.Value, error) {
	if err := CheckFinite(f); err != nil {
		return cty.NilVal, err
	}
	return cty.NumberFloatVal(f), nil
}

// FloatsVal builds a list-of-numbers value, the representation of vector and
// matrix plugs.
func FloatsVal(fs ...float64) cty.Value {
	if len(fs) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	vals := make([]cty.Value, len(fs))
	for i, f := range fs {
		vals[i] = cty.NumberFloatVal(f)
	}
	return cty.ListVal(vals)
}

// conform converts raw to d's type and validates its shape. With clamp unset
// an out-of-range number is an error instead of being clamped.
func conform(d *Descriptor, raw cty.Value, clamp bool) (cty.Value, error) {
	if raw.IsNull() {
		return cty.NilVal, fmt.Errorf("value is null")
	}
	if !raw.IsWhollyKnown() {
		return cty.NilVal, fmt.Errorf("value is not known")
	}
	conv, err := convert.Convert(raw, d.Type())
	if err != nil {
		return cty.NilVal, fmt.Errorf("cannot convert %s to %s: %w", raw.Type().FriendlyName(), d.Type().FriendlyName(), err)
	}
	if d.Arity == Scalar {
		return conformElem(d, conv, clamp)
	}

	if conv.LengthInt() == 0 {
		return conv, nil
	}
	elems := make([]cty.Value, 0, conv.LengthInt())
	i := 0
	for it := conv.ElementIterator(); it.Next(); i++ {
		_, ev := it.Element()
		c, err := conformElem(d, ev, clamp)
		if err != nil {
			return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
		}
		elems = append(elems, c)
	}
	return cty.ListVal(elems), nil
}

func conformElem(d *Descriptor, v cty.Value, clamp bool) (cty.Value, error) {
	if v.IsNull() {
		return cty.NilVal, fmt.Errorf("value is null")
	}
	switch d.Kind {
	case KindNumber:
		return bound(d, v, clamp)

	case KindVector, KindMatrix:
		want := vectorLen
		if d.Kind == KindMatrix {
			want = matrixLen
		}
		if got := v.LengthInt(); got != want {
			return cty.NilVal, fmt.Errorf("%s needs %d components, got %d", d.Kind, want, got)
		}
		comps := make([]cty.Value, 0, want)
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			if ev.IsNull() {
				return cty.NilVal, fmt.Errorf("%s component is null", d.Kind)
			}
			b, err := bound(d, ev, clamp)
			if err != nil {
				return cty.NilVal, err
			}
			comps = append(comps, b)
		}
		return cty.ListVal(comps), nil

	case KindEnum:
		s := v.AsString()
		if !slices.Contains(d.Options, s) {
			return cty.NilVal, fmt.Errorf("%q is not one of %v", s, d.Options)
		}
		return v, nil

	case KindCurve:
		for it := v.ElementIterator(); it.Next(); {
			idx, pt := it.Element()
			if pt.IsNull() || pt.GetAttr("position").IsNull() || pt.GetAttr("value").IsNull() {
				n, _ := idx.AsBigFloat().Int64()
				return cty.NilVal, fmt.Errorf("curve point %d is incomplete", n)
			}
		}
		return v, nil

	case KindCompound:
		attrs := make(map[string]cty.Value, len(d.Children))
		for _, c := range d.Children {
			cv, err := conform(c, v.GetAttr(c.Key), clamp)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", c.Key, err)
			}
			attrs[c.Key] = cv
		}
		return cty.ObjectVal(attrs), nil
	}
	return v, nil
}

func bound(d *Descriptor, v cty.Value, clamp bool) (cty.Value, error) {
	f, _ := v.AsBigFloat().Float64()
	switch {
	case d.Min != nil && f < *d.Min:
		if !clamp {
			return cty.NilVal, fmt.Errorf("%g is below minimum %g", f, *d.Min)
		}
		return cty.NumberFloatVal(*d.Min), nil
	case d.Max != nil && f > *d.Max:
		if !clamp {
			return cty.NilVal, fmt.Errorf("%g is above maximum %g", f, *d.Max)
		}
		return cty.NumberFloatVal(*d.Max), nil
	}
	return v, nil
}

// Element returns element i of v, a value of the array plug d. The result
// carries d's kind with scalar arity.
func Element(d *Descriptor, v Value, i int) (Value, error) {
	if d.Arity != Array {
		return Value{}, fmt.Errorf("plug %q is not an array", d.Key)
	}
	if !v.set {
		return Value{}, fmt.Errorf("plug %q has no value", d.Key)
	}
	if n := v.val.LengthInt(); i < 0 || i >= n {
		return Value{}, fmt.Errorf("index %d out of range for plug %q with %d elements", i, d.Key, n)
	}
	return Value{kind: d.Kind, val: v.val.Index(cty.NumberIntVal(int64(i))), set: true}, nil
}
