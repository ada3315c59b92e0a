// Package registry provides the central "glue" for the module system.
//
// The Registry stores the mappings between the evaluator names used in
// manifests (e.g., "cylinder") and the compiled Go evaluators that implement
// them, the parsed format-agnostic node definitions, and every finalized node
// type by class name and by type ID.
//
// During application startup, the registry is populated and then validated to
// ensure that the Go code and the public-facing manifests are perfectly in
// sync, preventing a wide class of runtime errors.
package registry
