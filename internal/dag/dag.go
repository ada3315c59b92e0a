package dag

import (
	"fmt"
	"maps"
	"slices"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a vertex. Adding an existing ID does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// RemoveNode deletes a vertex and every edge touching it.
func (g *Graph) RemoveNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for _, d := range n.deps {
		delete(d.dependents, id)
	}
	for _, d := range n.dependents {
		delete(d.deps, id)
	}
	delete(g.nodes, id)
}

// HasNode reports whether id is a vertex of the graph.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// RemoveEdge deletes the edge from -> to if present.
func (g *Graph) RemoveEdge(fromID, toID string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if from, ok := g.nodes[fromID]; ok {
		delete(from.dependents, toID)
	}
	if to, ok := g.nodes[toID]; ok {
		delete(to.deps, fromID)
	}
}

// Dependencies returns the sorted IDs the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return slices.Sorted(maps.Keys(n.deps)), nil
}

// Dependents returns the sorted IDs that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return slices.Sorted(maps.Keys(n.dependents)), nil
}

// Reachable reports whether toID can be reached from fromID by following
// dependent edges. A node reaches itself.
func (g *Graph) Reachable(fromID, toID string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[fromID]
	if !ok {
		return false
	}
	seen := map[string]bool{}
	stack := []*node{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.id == toID {
			return true
		}
		if seen[n.id] {
			continue
		}
		seen[n.id] = true
		for _, d := range n.dependents {
			stack = append(stack, d)
		}
	}
	return false
}

// Downstream returns every node reachable from id, excluding id, in sorted
// order.
func (g *Graph) Downstream(id string) ([]string, error) {
	return g.closure(id, func(n *node) map[string]*node { return n.dependents })
}

// Upstream returns every node id transitively depends on, excluding id, in
// sorted order.
func (g *Graph) Upstream(id string) ([]string, error) {
	return g.closure(id, func(n *node) map[string]*node { return n.deps })
}

func (g *Graph) closure(id string, next func(*node) map[string]*node) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	start, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	seen := map[string]bool{}
	var walk func(n *node)
	walk = func(n *node) {
		for nid, m := range next(n) {
			if seen[nid] {
				continue
			}
			seen[nid] = true
			walk(m)
		}
	}
	walk(start)
	delete(seen, id)
	return slices.Sorted(maps.Keys(seen)), nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// permanent: fully visited and acyclic; temporary: on the current path.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true
		for _, id := range slices.Sorted(maps.Keys(n.dependents)) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	for _, id := range slices.Sorted(maps.Keys(g.nodes)) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}

	return nil
}

// Levels groups the nodes of the subgraph spanned by ids and everything they
// depend on. Every node sits one level after its deepest dependency, so the
// nodes of one level never depend on each other. An empty ids selects the
// whole graph. Each level is sorted.
func (g *Graph) Levels(ids ...string) ([][]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	g.mutex.RLock()
	defer g.mutex.RUnlock()

	selected := make(map[string]*node)
	var include func(n *node)
	include = func(n *node) {
		if _, ok := selected[n.id]; ok {
			return
		}
		selected[n.id] = n
		for _, d := range n.deps {
			include(d)
		}
	}
	if len(ids) == 0 {
		maps.Copy(selected, g.nodes)
	}
	for _, id := range ids {
		n, ok := g.nodes[id]
		if !ok {
			return nil, fmt.Errorf("node not found: %s", id)
		}
		include(n)
	}

	depth := make(map[string]int, len(selected))
	var level func(n *node) int
	level = func(n *node) int {
		if d, ok := depth[n.id]; ok {
			return d
		}
		d := 0
		for _, dep := range n.deps {
			d = max(d, level(dep)+1)
		}
		depth[n.id] = d
		return d
	}

	var levels [][]string
	for _, id := range slices.Sorted(maps.Keys(selected)) {
		d := level(selected[id])
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], id)
	}
	return levels, nil
}
