// Package plug is the Plug Registry: the static, per-node-type catalog of
// input and output attribute descriptors.
//
// A Descriptor names a plug, fixes its direction, data kind and arity, and
// optionally carries a default value, a numeric range, enum options and the
// behavioural flags a host uses for presentation. Every data kind maps to a
// cty.Type so plug values are ordinary cty.Values, converted and checked by
// NewValue before they are stored anywhere.
//
// A Registry is filled once, before any node instance exists, and sealed when
// its node type is finalized. After that it is read-only and may be shared
// across goroutines without locking.
package plug
