package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/breathwork/internal/audio"
)

// squareWave toggles an output at a given frequency to drive a passive piezo.
// A piezo has no amplitude control, so any volume above zero sounds at full
// level and zero mutes.
type squareWave struct {
	set func(value int) error

	mu     sync.Mutex
	stop   chan struct{}
	done   chan struct{}
	freqHz float64
	muted  atomic.Bool
	errs   atomic.Int64
}

func newSquareWave(set func(value int) error) *squareWave {
	return &squareWave{set: set}
}

// Start begins oscillating at freqHz, replacing any running tone.
func (w *squareWave) Start(freqHz, volume float64) error {
	if freqHz <= 0 {
		return fmt.Errorf("tone frequency %v: must be positive", freqHz)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()

	w.freqHz = freqHz
	w.muted.Store(audio.ClampVolume(volume) == 0)
	w.stop = make(chan struct{})
	w.done = make(chan struct{})
	half := time.Duration(float64(time.Second) / freqHz / 2)
	go w.run(half, w.stop, w.done)
	return nil
}

func (w *squareWave) run(half time.Duration, stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(half)
	defer ticker.Stop()

	value := 0
	for {
		select {
		case <-stop:
			w.write(0)
			return
		case <-ticker.C:
			if w.muted.Load() {
				value = 0
			} else {
				value ^= 1
			}
			w.write(value)
		}
	}
}

func (w *squareWave) write(v int) {
	if err := w.set(v); err != nil {
		w.errs.Add(1)
	}
}

// SetVolume mutes the tone at zero and unmutes it otherwise.
func (w *squareWave) SetVolume(volume float64) error {
	w.muted.Store(audio.ClampVolume(volume) == 0)
	return nil
}

// Stop silences the output and waits for the oscillator to exit.
func (w *squareWave) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
	return nil
}

func (w *squareWave) stopLocked() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	<-w.done
	w.stop, w.done = nil, nil
	w.freqHz = 0
}

// Frequency returns the sounding frequency, or 0 when silent.
func (w *squareWave) Frequency() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.freqHz
}

// WriteErrors counts failed line writes since creation.
func (w *squareWave) WriteErrors() int64 {
	return w.errs.Load()
}
