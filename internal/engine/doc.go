// Package engine is the compute core's host boundary. It owns node instances,
// dispatches compute passes and answers the host's read requests.
//
// A host drives it with four calls: DeclareNodeType once per node type,
// Instantiate per node, SetInput or OnUpstreamChanged when an input changes,
// and RequestValue to read an output. RequestValue is the only path that runs
// an evaluator. It recomputes every stale output of the instance in one pass,
// so an evaluator runs at most once per invalidation.
package engine
