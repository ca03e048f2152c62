//go:build linux

package gpio

import (
	"fmt"

	"github.com/sweeney/breathwork/internal/phase"
	"github.com/warthog618/go-gpiocdev"
)

// RealLight drives a common-cathode RGB LED from three output lines.
type RealLight struct {
	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines
}

// NewRealLight requests the red, green and blue lines as outputs, initially off.
func NewRealLight(chipName string, pins Pins) (*RealLight, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	lines, err := chip.RequestLines([]int{pins.Red, pins.Green, pins.Blue}, gpiocdev.AsOutput(0, 0, 0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pins %d/%d/%d: %w", pins.Red, pins.Green, pins.Blue, err)
	}

	return &RealLight{chip: chip, lines: lines}, nil
}

// SetColor drives each channel on or off.
func (l *RealLight) SetColor(c phase.RGB) error {
	if err := l.lines.SetValues(Levels(c)); err != nil {
		return fmt.Errorf("set led: %w", err)
	}
	return nil
}

// Off turns every channel off.
func (l *RealLight) Off() error {
	if err := l.lines.SetValues([]int{0, 0, 0}); err != nil {
		return fmt.Errorf("led off: %w", err)
	}
	return nil
}

// Close turns the LED off and returns the lines to input with pull-down,
// matching Pi boot defaults.
func (l *RealLight) Close() error {
	var errs []error
	if l.lines != nil {
		if err := l.Off(); err != nil {
			errs = append(errs, err)
		}
		if err := l.lines.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure led pins: %w", err))
		}
		if err := l.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pins: %w", err))
		}
	}
	if l.chip != nil {
		if err := l.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealBuzzer sounds a passive piezo buzzer as the fallback tone generator.
type RealBuzzer struct {
	*squareWave
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// NewRealBuzzer requests the buzzer line as an output, initially low.
func NewRealBuzzer(chipName string, pin int) (*RealBuzzer, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request buzzer pin %d: %w", pin, err)
	}

	return &RealBuzzer{
		squareWave: newSquareWave(line.SetValue),
		chip:       chip,
		line:       line,
	}, nil
}

// Close silences the buzzer and releases GPIO resources.
func (b *RealBuzzer) Close() error {
	var errs []error
	b.Stop()
	if b.line != nil {
		if err := b.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure buzzer pin: %w", err))
		}
		if err := b.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close buzzer pin: %w", err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
