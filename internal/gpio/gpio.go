// Package gpio drives the sensory outputs: an RGB LED showing the session
// colour and a piezo buzzer used as the fallback tone.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/breathwork/internal/phase"

// Light displays a colour.
type Light interface {
	SetColor(c phase.RGB) error

	// Off turns every channel off.
	Off() error

	// Close turns the light off and releases GPIO resources.
	Close() error
}

// Pins holds the BCM line offsets of the outputs.
type Pins struct {
	Red    int
	Green  int
	Blue   int
	Buzzer int
}

// DefaultPins matches the wiring of the reference board.
var DefaultPins = Pins{Red: 17, Green: 27, Blue: 22, Buzzer: 18}

// DefaultChip is the GPIO character device on a Raspberry Pi.
const DefaultChip = "gpiochip0"

// channelRatio is the percentage of the brightest channel a channel must
// reach to be switched on.
const channelRatio = 55

// Levels maps a colour onto the three digital LED channels (red, green, blue).
// Channels are compared against the brightest one so that hue survives the
// reduction to on/off.
func Levels(c phase.RGB) []int {
	peak := max(c.R, c.G, c.B)
	if peak == 0 {
		return []int{0, 0, 0}
	}
	return []int{level(c.R, peak), level(c.G, peak), level(c.B, peak)}
}

func level(v, peak uint8) int {
	if int(v)*100 >= int(peak)*channelRatio {
		return 1
	}
	return 0
}
