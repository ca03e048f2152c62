package logic

import "github.com/sweeney/breathwork/internal/phase"

// Controller steps through a phase table once per second-tick.
type Controller struct {
	table     phase.Table
	index     int
	remaining int
}

// NewController creates a controller positioned at the table's first phase.
// The table must already be valid.
func NewController(table phase.Table) *Controller {
	c := &Controller{table: table}
	c.Reset()
	return c
}

// Reset returns the controller to the first phase with a full countdown.
func (c *Controller) Reset() {
	c.index = 0
	c.remaining = c.table.Phases[0].Duration
}

// Tick advances the countdown by one second and returns the phase that is
// current afterwards. A countdown at 1 or below transitions to the successor,
// so a 4 second phase shows 4,3,2,1 before moving on.
func (c *Controller) Tick() phase.Phase {
	if c.remaining <= 1 {
		c.index = c.table.Phases[c.index].Next
		c.remaining = c.table.Phases[c.index].Duration
		return c.table.Phases[c.index]
	}
	c.remaining--
	return c.table.Phases[c.index]
}

// Current returns the active phase.
func (c *Controller) Current() phase.Phase {
	return c.table.Phases[c.index]
}

// Index returns the position of the active phase in the table.
func (c *Controller) Index() int {
	return c.index
}

// Remaining returns the seconds left in the active phase.
func (c *Controller) Remaining() int {
	return c.remaining
}

// Color returns the colour of the active phase.
func (c *Controller) Color() phase.RGB {
	return c.table.Phases[c.index].Color
}

// Table returns the technique being cycled.
func (c *Controller) Table() phase.Table {
	return c.table
}
