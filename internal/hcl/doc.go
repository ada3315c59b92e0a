// Package hcl provides the concrete HCL implementation of the config.Loader
// and config.Converter interfaces. Files may use native HCL syntax (.hcl) or
// HCL's JSON syntax (.json); both decode into the same schema.
package hcl
