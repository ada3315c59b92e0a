package nodetype

import (
	"fmt"
	"strings"
)

// SchedulingMode tells the host whether computes of a node type may overlap
// with other computes. The engine records it but never enforces it.
type SchedulingMode int

const (
	// Parallel computes may run concurrently with any other compute.
	Parallel SchedulingMode = iota
	// Serial computes must not overlap with other Serial computes.
	Serial
)

func (m SchedulingMode) String() string {
	switch m {
	case Parallel:
		return "parallel"
	case Serial:
		return "serial"
	default:
		return fmt.Sprintf("SchedulingMode(%d)", int(m))
	}
}

// ParseSchedulingMode parses the manifest spelling. An empty string selects
// Parallel.
func ParseSchedulingMode(s string) (SchedulingMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "parallel":
		return Parallel, nil
	case "serial":
		return Serial, nil
	default:
		return Parallel, fmt.Errorf("unknown scheduling mode %q, expected \"serial\" or \"parallel\"", s)
	}
}
