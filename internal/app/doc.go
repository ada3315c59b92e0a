// Package app wires the loader, registry, engine, graph and executor into a
// runnable application. It holds the configuration and lifecycle of one run,
// decoupled from any specific entrypoint like a CLI or server.
package app
