package logic

import "github.com/sweeney/breathwork/internal/phase"

// Rotation cycles through a fixed colour sequence for standalone
// chromotherapy. It finishes after the sequence has been traversed Cycles
// times.
type Rotation struct {
	colors []phase.RGB
	cycles int
	steps  int
}

// NewRotation creates a rotation showing colors[0] first. cycles below 1 is
// treated as 1 so a rotation always terminates.
func NewRotation(colors []phase.RGB, cycles int) *Rotation {
	if cycles < 1 {
		cycles = 1
	}
	cp := make([]phase.RGB, len(colors))
	copy(cp, colors)
	return &Rotation{colors: cp, cycles: cycles}
}

// Color returns the colour currently shown, or phase.Idle once done.
func (r *Rotation) Color() phase.RGB {
	if r.Done() || len(r.colors) == 0 {
		return phase.Idle
	}
	return r.colors[r.steps%len(r.colors)]
}

// Advance moves to the next colour. It returns the colour to show and whether
// the rotation has completed all of its traversals.
func (r *Rotation) Advance() (phase.RGB, bool) {
	if !r.Done() {
		r.steps++
	}
	return r.Color(), r.Done()
}

// Done reports whether every traversal has completed.
func (r *Rotation) Done() bool {
	return r.steps >= r.TotalSteps()
}

// Steps returns the number of advances so far.
func (r *Rotation) Steps() int {
	return r.steps
}

// TotalSteps returns the advances needed to finish.
func (r *Rotation) TotalSteps() int {
	return len(r.colors) * r.cycles
}
