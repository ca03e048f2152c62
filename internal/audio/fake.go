package audio

// FakePlayer records playback calls for test assertions.
type FakePlayer struct {
	// Played contains every track passed to Play, in order.
	Played []TrackID

	// PlayError, if set, will be returned by Play.
	PlayError error

	// Playing is true between a successful Play and Stop.
	Playing bool

	// Volume is the last volume passed to Play or SetVolume.
	Volume float64

	// Stops counts calls to Stop.
	Stops int
}

// NewFakePlayer creates a FakePlayer.
func NewFakePlayer() *FakePlayer {
	return &FakePlayer{}
}

// Play records the track.
func (f *FakePlayer) Play(track TrackID, volume float64) error {
	if f.PlayError != nil {
		return f.PlayError
	}
	f.Played = append(f.Played, track)
	f.Playing = true
	f.Volume = volume
	return nil
}

// SetVolume records the volume.
func (f *FakePlayer) SetVolume(volume float64) error {
	f.Volume = volume
	return nil
}

// Stop marks the player stopped.
func (f *FakePlayer) Stop() error {
	f.Stops++
	f.Playing = false
	return nil
}

// FakeTone records tone generator calls.
type FakeTone struct {
	// Frequencies contains every frequency passed to Start, in order.
	Frequencies []float64

	// StartError, if set, will be returned by Start.
	StartError error

	Sounding bool
	Volume   float64
	Stops    int
}

// NewFakeTone creates a FakeTone.
func NewFakeTone() *FakeTone {
	return &FakeTone{}
}

// Start records the frequency.
func (f *FakeTone) Start(freqHz, volume float64) error {
	if f.StartError != nil {
		return f.StartError
	}
	f.Frequencies = append(f.Frequencies, freqHz)
	f.Sounding = true
	f.Volume = volume
	return nil
}

// SetVolume records the volume.
func (f *FakeTone) SetVolume(volume float64) error {
	f.Volume = volume
	return nil
}

// Stop marks the tone silent.
func (f *FakeTone) Stop() error {
	f.Stops++
	f.Sounding = false
	return nil
}
