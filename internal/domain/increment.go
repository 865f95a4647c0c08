package domain

import (
	"fmt"
	"strings"
)

// Increment is a semantic version increment. The zero value means no release.
type Increment int

// Increments in ascending order.
const (
	NoIncrement Increment = iota
	Patch
	Minor
	Major
)

// String returns the lower-case name of the increment.
func (i Increment) String() string {
	switch i {
	case NoIncrement:
		return "none"
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	default:
		return fmt.Sprintf("increment(%d)", int(i))
	}
}

// Present reports whether the increment asks for a release.
func (i Increment) Present() bool {
	return i > NoIncrement
}

// MaxIncrement returns the larger of a and b.
func MaxIncrement(a, b Increment) Increment {
	if a > b {
		return a
	}
	return b
}

// ParseIncrement parses the name produced by Increment.String.
// "current" is accepted for NoIncrement, as shown by the interactive prompt.
func ParseIncrement(s string) (Increment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "current", "":
		return NoIncrement, nil
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	default:
		return NoIncrement, fmt.Errorf("%w: %q", ErrInvalidIncrement, s)
	}
}
