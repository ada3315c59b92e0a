package executor

import (
	"slices"

	"github.com/vk/plugflow/internal/nodeid"
)

type plan struct {
	levels [][]string
	// targets lists, per instance, the addresses its goroutine pulls.
	targets map[string][]nodeid.Address
}

// plan selects the instances the requests depend on. An instance pulls its
// own requested addresses plus every output feeding another planned
// instance, so downstream levels only read cached values.
func (e *Executor) plan(requests []nodeid.Address) (*plan, error) {
	var names []string
	for _, addr := range requests {
		if !slices.Contains(names, addr.Instance) {
			names = append(names, addr.Instance)
		}
	}

	levels, err := e.graph.Levels(names...)
	if err != nil {
		return nil, err
	}
	planned := make(map[string]bool)
	for _, level := range levels {
		for _, name := range level {
			planned[name] = true
		}
	}

	targets := make(map[string][]nodeid.Address, len(planned))
	add := func(addr nodeid.Address) {
		if !slices.Contains(targets[addr.Instance], addr) {
			targets[addr.Instance] = append(targets[addr.Instance], addr)
		}
	}
	for _, c := range e.graph.Connections() {
		if planned[c.From.Instance] && planned[c.To.Instance] {
			add(c.From)
		}
	}
	for _, addr := range requests {
		add(addr)
	}

	return &plan{levels: levels, targets: targets}, nil
}
