// Package phase describes breathing techniques as static phase tables.
// A table is a cycle of phases; each phase has a duration, a successor and
// the colour shown while it runs.
package phase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Name is the label of a phase segment.
type Name string

const (
	Inhale Name = "inhale"
	Hold   Name = "hold"
	Exhale Name = "exhale"
)

// Valid reports whether n is a recognised phase name.
func (n Name) Valid() bool {
	switch n {
	case Inhale, Hold, Exhale:
		return true
	}
	return false
}

// RGB is a display colour.
type RGB struct {
	R, G, B uint8
}

// Hex returns the colour as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String implements fmt.Stringer.
func (c RGB) String() string {
	return c.Hex()
}

// ParseRGB parses "#rrggbb" or "rrggbb".
func ParseRGB(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("parse colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// Colours used by the built-in techniques and the chromotherapy rotation.
var (
	Blue   = RGB{R: 0x3b, G: 0x82, B: 0xf6}
	Green  = RGB{R: 0x10, G: 0xb9, B: 0x81}
	Purple = RGB{R: 0x8b, G: 0x5c, B: 0xf6}
	Amber  = RGB{R: 0xf5, G: 0x9e, B: 0x0b}

	// Idle is shown whenever no session or rotation is running.
	Idle = RGB{R: 0xf3, G: 0xf4, B: 0xf6}
)

// Phase is one segment of a breathing cycle. Next is the index of the
// successor within the owning table.
type Phase struct {
	Name     Name
	Duration int // seconds, > 0
	Next     int
	Color    RGB
}

// ErrInvalidTable is returned by Validate for malformed tables.
var ErrInvalidTable = errors.New("invalid phase table")

// Table is a technique: an immutable cycle of phases starting at index 0.
type Table struct {
	ID      string
	Title   string
	Premium bool
	Phases  []Phase
}

// First returns the phase the cycle starts with.
func (t Table) First() Phase {
	return t.Phases[0]
}

// CycleLength returns the number of seconds in one full cycle.
func (t Table) CycleLength() int {
	total := 0
	for _, p := range t.Phases {
		total += p.Duration
	}
	return total
}

// Pattern returns the durations joined with dashes, e.g. "4-7-8".
func (t Table) Pattern() string {
	parts := make([]string, len(t.Phases))
	for i, p := range t.Phases {
		parts[i] = strconv.Itoa(p.Duration)
	}
	return strings.Join(parts, "-")
}

// Validate checks that every phase is well formed and that following Next
// from the first phase visits every phase exactly once before returning.
func (t Table) Validate() error {
	n := len(t.Phases)
	if n == 0 {
		return fmt.Errorf("%w: %s has no phases", ErrInvalidTable, t.ID)
	}
	for i, p := range t.Phases {
		if !p.Name.Valid() {
			return fmt.Errorf("%w: %s phase %d has unknown name %q", ErrInvalidTable, t.ID, i, p.Name)
		}
		if p.Duration <= 0 {
			return fmt.Errorf("%w: %s phase %d has duration %d", ErrInvalidTable, t.ID, i, p.Duration)
		}
		if p.Next < 0 || p.Next >= n {
			return fmt.Errorf("%w: %s phase %d points at %d", ErrInvalidTable, t.ID, i, p.Next)
		}
	}

	seen := make([]bool, n)
	idx := 0
	for step := 0; step < n; step++ {
		if seen[idx] {
			return fmt.Errorf("%w: %s closes a sub-cycle at phase %d", ErrInvalidTable, t.ID, idx)
		}
		seen[idx] = true
		idx = t.Phases[idx].Next
	}
	if idx != 0 {
		return fmt.Errorf("%w: %s does not return to its first phase", ErrInvalidTable, t.ID)
	}
	return nil
}
