// Package config defines the format-agnostic configuration model for the
// application, along with the core interfaces (Loader, Converter) for
// loading and interpreting configuration from various sources.
//
// A Model holds two kinds of content: plugin manifests, which declare node
// types, and the grid, which names instances, connects their plugs and lists
// the values to request. Concrete implementations of the interfaces, such as
// for HCL, are provided in separate packages.
package config
