package nodetype

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/vk/plugflow/internal/nodeerr"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Evaluator is the user-supplied compute function of a node type.
//
// Evaluate receives a snapshot of the gathered inputs and the outputs of the
// current pass. It returns a value for each output it produced. Outputs it
// leaves out stay dirty. Producing a key outside want is a programming error.
type Evaluator interface {
	Evaluate(ctx context.Context, in Inputs, want []string) (map[string]cty.Value, error)
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(ctx context.Context, in Inputs, want []string) (map[string]cty.Value, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(ctx context.Context, in Inputs, want []string) (map[string]cty.Value, error) {
	return f(ctx, in, want)
}

// Inputs is the read-only snapshot handed to an evaluator.
type Inputs struct {
	nodeType string
	vals     map[string]cty.Value
}

// NewInputs wraps vals. The map must not be modified afterwards.
func NewInputs(nodeType string, vals map[string]cty.Value) Inputs {
	return Inputs{nodeType: nodeType, vals: vals}
}

// Has reports whether key was gathered for this pass.
func (in Inputs) Has(key string) bool {
	_, ok := in.vals[key]
	return ok
}

// Keys returns the gathered input keys, sorted.
func (in Inputs) Keys() []string {
	return slices.Sorted(maps.Keys(in.vals))
}

// Value returns the raw value of key.
func (in Inputs) Value(key string) (cty.Value, error) {
	v, ok := in.vals[key]
	if !ok {
		return cty.NilVal, nodeerr.New(nodeerr.ErrMissingInput, in.nodeType, key, "input was not gathered for this pass")
	}
	return v, nil
}

// Number returns a scalar numeric input.
func (in Inputs) Number(key string) (float64, error) {
	var f float64
	return f, in.decode(key, &f)
}

// Floats returns a vector, matrix or numeric array input.
func (in Inputs) Floats(key string) ([]float64, error) {
	v, err := in.Value(key)
	if err != nil {
		return nil, err
	}
	return plug.AsFloats(v)
}

// String returns a string or enum input.
func (in Inputs) String(key string) (string, error) {
	var s string
	return s, in.decode(key, &s)
}

// Bool returns a boolean input.
func (in Inputs) Bool(key string) (bool, error) {
	var b bool
	return b, in.decode(key, &b)
}

// Decode fills the fields of the struct pointed to by target that carry a
// `cty:"key"` tag. Fields whose input was not gathered are left untouched.
func (in Inputs) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("decode target must be a pointer to a struct, got %T", target)
	}
	rv = rv.Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		key := field.Tag.Get("cty")
		if key == "" || key == "-" || !field.IsExported() {
			continue
		}
		v, ok := in.vals[key]
		if !ok {
			continue
		}
		if err := gocty.FromCtyValue(v, rv.Field(i).Addr().Interface()); err != nil {
			return nodeerr.Wrap(nodeerr.ErrEvaluationFailure, in.nodeType, key, err)
		}
	}
	return nil
}

func (in Inputs) decode(key string, target any) error {
	v, err := in.Value(key)
	if err != nil {
		return err
	}
	if err := gocty.FromCtyValue(v, target); err != nil {
		return nodeerr.Wrap(nodeerr.ErrEvaluationFailure, in.nodeType, key, err)
	}
	return nil
}
