// Package graph is the reference host around the engine. It names instances,
// connects output plugs to input plugs, and moves values across those
// connections.
//
// The engine only knows single instances. The graph supplies what the
// engine leaves to its host:
//
//   - Set writes an input and pushes the invalidation downstream through
//     every connection, so no stale value survives a change upstream.
//   - Pull refreshes the driven inputs of an instance from their sources,
//     recursively, before asking the engine for the value.
//   - Connect rejects unknown plugs, wrong directions, mismatched kinds,
//     inputs that already have a source, and connections that would close a
//     cycle between instances.
//
// Instance-level topology lives in a dag.Graph, which the executor uses to
// evaluate independent instances concurrently.
package graph
