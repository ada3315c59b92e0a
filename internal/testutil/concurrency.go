package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vk/plugflow/internal/handlers"
	"github.com/vk/plugflow/internal/nodetype"
	"github.com/vk/plugflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// ExecutionRecord holds the start and end times of one compute pass.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two records share any instant.
func (r ExecutionRecord) Overlaps(o ExecutionRecord) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// SleeperManifest declares a parallel "Sleeper" and a serial "SerialSleeper"
// node type, both evaluated by the "sleeper" evaluator. Each has an "id"
// input and echoes it on "out" after sleeping.
const SleeperManifest = `
plugin "sleeper" {
  node "Sleeper" {
    node_name = "sleeper"
    id        = "0x00ee01"
    evaluator = "sleeper"
    input "id" {
      type = string
    }
    input "after" {
      type    = string
      default = ""
    }
    output "out" {
      type = string
    }
  }
  node "SerialSleeper" {
    node_name  = "serialSleeper"
    id         = "0x00ee02"
    evaluator  = "sleeper"
    scheduling = "serial"
    input "id" {
      type = string
    }
    input "after" {
      type    = string
      default = ""
    }
    output "out" {
      type = string
    }
  }
}
`

// SleeperModule records when each compute pass of the "sleeper" evaluator
// ran, keyed by the instance's "id" input.
type SleeperModule struct {
	sleep time.Duration

	mu      sync.Mutex
	records map[string]ExecutionRecord
}

// NewSleeperModule creates a sleeper whose passes take sleep.
func NewSleeperModule(sleep time.Duration) *SleeperModule {
	return &SleeperModule{sleep: sleep, records: make(map[string]ExecutionRecord)}
}

// Register implements the registry.Module interface.
func (m *SleeperModule) Register(r *registry.Registry) {
	r.RegisterEvaluator("sleeper", &handlers.RegisteredHandler{
		New: func() nodetype.Evaluator { return nodetype.EvaluatorFunc(m.evaluate) },
		Inputs: struct {
			ID    string `cty:"id"`
			After string `cty:"after"`
		}{},
	})
}

func (m *SleeperModule) evaluate(_ context.Context, in nodetype.Inputs, _ []string) (map[string]cty.Value, error) {
	id, err := in.String("id")
	if err != nil {
		return nil, err
	}
	start := time.Now()
	time.Sleep(m.sleep)
	end := time.Now()

	m.mu.Lock()
	m.records[id] = ExecutionRecord{Start: start, End: end}
	m.mu.Unlock()
	return map[string]cty.Value{"out": cty.StringVal(id)}, nil
}

// Record returns the record of id.
func (m *SleeperModule) Record(id string) (ExecutionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return ExecutionRecord{}, fmt.Errorf("no pass recorded for %q", id)
	}
	return r, nil
}

// IDs returns the ids of every recorded pass, sorted.
func (m *SleeperModule) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
