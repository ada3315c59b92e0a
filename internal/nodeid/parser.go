package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	instanceRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)
	plugRegex     = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[(\d+)\])?$`)
)

// ValidInstanceName reports whether name can be used as an instance name.
func ValidInstanceName(name string) bool {
	return instanceRegex.MatchString(name)
}

// Parse creates an Address from its canonical string representation.
func Parse(raw string) (Address, error) {
	if raw == "" {
		return Address{}, fmt.Errorf("address cannot be empty")
	}

	instance, rest, ok := strings.Cut(raw, ".")
	if !ok {
		return Address{}, fmt.Errorf("address %q must have the form instance.plug", raw)
	}
	if !ValidInstanceName(instance) {
		return Address{}, fmt.Errorf("invalid instance name: %q", instance)
	}

	matches := plugRegex.FindStringSubmatch(rest)
	if matches == nil {
		return Address{}, fmt.Errorf("invalid plug segment: %q", rest)
	}

	addr := New(instance, matches[1])
	if matches[2] != "" {
		index, err := strconv.Atoi(matches[2])
		if err != nil {
			// only on overflow, the regex admits digits only
			return Address{}, fmt.Errorf("invalid index in %q: %w", raw, err)
		}
		addr.Index = index
	}
	return addr, nil
}

// MustParse is like Parse but panics on error. It is meant for tests and
// package-level tables.
func MustParse(raw string) Address {
	a, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return a
}
