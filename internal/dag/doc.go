// Package dag holds the instance-level graph of the reference host. Vertices
// are instance names; an edge a -> b means b reads at least one plug of a.
// The graph rejects self edges, reports cycles, and groups vertices into
// levels that can be evaluated concurrently.
package dag
