package gpio

import (
	"sync"

	"github.com/sweeney/breathwork/internal/phase"
)

// FakeLight records colour changes for test assertions.
type FakeLight struct {
	mu sync.Mutex

	// Colors contains every colour passed to SetColor, in order.
	Colors []phase.RGB

	// Offs counts calls to Off.
	Offs int

	// Lit is true between SetColor and Off.
	Lit bool

	// Closed tracks if Close was called.
	Closed bool

	// SetError, if set, will be returned by SetColor.
	SetError error
}

// NewFakeLight creates a FakeLight.
func NewFakeLight() *FakeLight {
	return &FakeLight{}
}

// SetColor records the colour.
func (f *FakeLight) SetColor(c phase.RGB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SetError != nil {
		return f.SetError
	}
	f.Colors = append(f.Colors, c)
	f.Lit = true
	return nil
}

// Off records the light being turned off.
func (f *FakeLight) Off() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Offs++
	f.Lit = false
	return nil
}

// Close marks the light as closed.
func (f *FakeLight) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Lit = false
	f.Closed = true
	return nil
}

// History returns a copy of the recorded colours.
func (f *FakeLight) History() []phase.RGB {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]phase.RGB(nil), f.Colors...)
}

// IsLit reports whether the light is currently on.
func (f *FakeLight) IsLit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Lit
}
