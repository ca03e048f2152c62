//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/breathwork/internal/phase"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealLight is not available on non-Linux platforms.
type RealLight struct{}

// NewRealLight returns an error on non-Linux platforms.
func NewRealLight(chipName string, pins Pins) (*RealLight, error) {
	return nil, errUnsupported
}

// SetColor is not implemented on non-Linux platforms.
func (l *RealLight) SetColor(c phase.RGB) error { return errUnsupported }

// Off is not implemented on non-Linux platforms.
func (l *RealLight) Off() error { return errUnsupported }

// Close is not implemented on non-Linux platforms.
func (l *RealLight) Close() error { return nil }

// RealBuzzer is not available on non-Linux platforms.
type RealBuzzer struct{}

// NewRealBuzzer returns an error on non-Linux platforms.
func NewRealBuzzer(chipName string, pin int) (*RealBuzzer, error) {
	return nil, errUnsupported
}

func (b *RealBuzzer) Start(freqHz, volume float64) error { return errUnsupported }
func (b *RealBuzzer) SetVolume(volume float64) error     { return errUnsupported }
func (b *RealBuzzer) Stop() error                        { return nil }
func (b *RealBuzzer) Close() error                       { return nil }
