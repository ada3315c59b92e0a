// Package executor evaluates the requested plugs of a graph in parallel.
//
// The instances a request depends on are grouped into levels with the graph's
// topology. Instances of one level do not depend on each other and run
// concurrently, bounded by the worker limit; levels run in order, so every
// upstream value an instance pulls is already cached when it starts. Node
// types declared Serial additionally share a single gate, so their computes
// never overlap.
//
// Progress is recorded in a nodestore.Store: every planned instance starts
// Pending, becomes Running when its goroutine picks it up and ends Completed
// or Failed. The first failure cancels the rest of the run.
package executor
