package testutil

import (
	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/registry"
)

// SimpleModule registers a single evaluator under Name.
type SimpleModule struct {
	Name      string
	Evaluator nodetype.EvaluatorFunc
	// Inputs optionally describes the evaluator's inputs for parity checks.
	Inputs any
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	r.RegisterEvaluator(m.Name, &handlers.RegisteredHandler{
		New:    func() nodetype.Evaluator { return m.Evaluator },
		Inputs: m.Inputs,
	})
}
