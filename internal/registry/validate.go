package registry

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/vk/plugflow/internal/ctxlog"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/plug"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go code.
// Every manifest evaluator must be registered, type IDs must be unique, and
// handlers that describe their inputs with a tagged struct must match the
// manifest both in names and in types.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	used := make(map[string]struct{})
	ids := make(map[uint32]string)

	for _, name := range slices.Sorted(maps.Keys(r.Definitions)) {
		def := r.Definitions[name]

		if def.TypeID != 0 {
			if other, dup := ids[def.TypeID]; dup {
				errs = append(errs, fmt.Sprintf("node '%s': type ID %s already used by '%s'", name, nodetype.FormatTypeID(def.TypeID), other))
			}
			ids[def.TypeID] = name
		}

		handler, ok := r.Handlers.Get(def.Evaluator)
		if !ok {
			errs = append(errs, fmt.Sprintf("node '%s': evaluator '%s' is not registered", name, def.Evaluator))
			continue
		}
		used[def.Evaluator] = struct{}{}

		if handler.Inputs == nil {
			continue
		}
		inputType := reflect.TypeOf(handler.Inputs)
		if inputType.Kind() == reflect.Pointer {
			inputType = inputType.Elem()
		}
		if inputType.Kind() != reflect.Struct {
			errs = append(errs, fmt.Sprintf("node '%s': evaluator '%s' declares inputs with %s, expected a struct", name, def.Evaluator, inputType))
			continue
		}

		manifestInputs := make(map[string]*plug.Descriptor)
		for _, in := range def.Inputs {
			manifestInputs[in.Name] = DescriptorFrom(in, plug.Input)
		}

		goInputs := make(map[string]reflect.StructField)
		for i := 0; i < inputType.NumField(); i++ {
			field := inputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("cty"), ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = field
			}
		}

		// Check for presence mismatches
		for _, in := range slices.Sorted(maps.Keys(goInputs)) {
			if _, ok := manifestInputs[in]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': Go struct has field for input '%s' which is not declared in manifest", name, in))
			}
		}
		for _, in := range def.Inputs {
			if _, ok := goInputs[in.Name]; !ok {
				errs = append(errs, fmt.Sprintf("node '%s': manifest declares input '%s' which is not found in Go struct", name, in.Name))
			}
		}

		// Check for type mismatches
		for _, in := range def.Inputs {
			goField, ok := goInputs[in.Name]
			if !ok {
				continue // Already handled by presence check
			}
			manifestType := manifestInputs[in.Name].Type()
			goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
			if err != nil {
				errs = append(errs, fmt.Sprintf("node '%s', input '%s': could not imply cty type from Go field type %s: %v", name, in.Name, goField.Type, err))
				continue
			}
			if !manifestType.Equals(goFieldType) {
				errs = append(errs, fmt.Sprintf("node '%s', input '%s': type mismatch. Manifest requires '%s' but Go struct field '%s' provides '%s'",
					name, in.Name, manifestType.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
			}
		}
	}

	for _, name := range r.Handlers.Names() {
		if _, ok := used[name]; !ok {
			logger.Warn("Evaluator is registered but no manifest uses it.", "evaluator", name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
