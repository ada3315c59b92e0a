package dag

import "sync"

// Graph is a set of vertices and their dependencies. All operations are
// safe for concurrent use.
type Graph struct {
	mutex sync.RWMutex
	// nodes is keyed by vertex ID.
	nodes map[string]*node
}

// node is unexported so callers work with string IDs only.
type node struct {
	id string
	// deps are the predecessors of this node.
	deps map[string]*node
	// dependents are the successors of this node.
	dependents map[string]*node
}
