package nodeid

import (
	"fmt"
	"strings"
)

// NoIndex marks an address that selects a whole plug.
const NoIndex = -1

// Address identifies a plug on a named instance.
type Address struct {
	Instance string
	Plug     string
	Index    int // NoIndex when absent
}

// New returns an address without an element index.
func New(instance, plug string) Address {
	return Address{Instance: instance, Plug: plug, Index: NoIndex}
}

// WithIndex returns a copy of a selecting element i.
func (a Address) WithIndex(i int) Address {
	a.Index = i
	return a
}

// HasIndex reports whether the address selects a single array element.
func (a Address) HasIndex() bool {
	return a.Index != NoIndex
}

// Whole returns the address of the plug without the element index.
func (a Address) Whole() Address {
	a.Index = NoIndex
	return a
}

// String serializes the address into its canonical form.
func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Instance)
	sb.WriteRune('.')
	sb.WriteString(a.Plug)
	if a.HasIndex() {
		sb.WriteString(fmt.Sprintf("[%d]", a.Index))
	}
	return sb.String()
}
