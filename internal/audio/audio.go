// Package audio provides session soundtrack playback with a synthetic tone
// fallback. Playback failures never reach the caller: when a track cannot be
// played, a tone at the track's frequency is started instead.
package audio

import (
	"errors"
	"sort"
)

// TrackID identifies a soundtrack in the catalog.
type TrackID string

// Track is a catalog entry. ToneHz is the fallback tone frequency.
type Track struct {
	ID     TrackID
	Title  string
	File   string
	ToneHz float64
}

// DefaultToneHz is used for tracks that are not in the catalog.
const DefaultToneHz = 440.0

var (
	// ErrNoTrack is returned when playback is requested without a track.
	ErrNoTrack = errors.New("no track selected")
	// ErrTrackUnavailable is returned when a track's file cannot be played.
	ErrTrackUnavailable = errors.New("track unavailable")
)

var catalog = map[TrackID]Track{
	"ocean":         {ID: "ocean", Title: "Ocean Waves", File: "ocean.mp3", ToneHz: 174},
	"forest":        {ID: "forest", Title: "Forest Ambience", File: "forest.mp3", ToneHz: 285},
	"rain":          {ID: "rain", Title: "Gentle Rain", File: "rain.mp3", ToneHz: 396},
	"tibetan-bowls": {ID: "tibetan-bowls", Title: "Tibetan Bowls", File: "tibetan-bowls.mp3", ToneHz: 432},
	"om":            {ID: "om", Title: "Om Chant", File: "om.mp3", ToneHz: 136.1},
}

// Tracks returns the catalog sorted by ID.
func Tracks() []Track {
	out := make([]Track, 0, len(catalog))
	for _, t := range catalog {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Lookup returns the catalog entry for id.
func Lookup(id TrackID) (Track, bool) {
	t, ok := catalog[id]
	return t, ok
}

// ToneFrequency returns the fallback tone frequency for id.
func ToneFrequency(id TrackID) float64 {
	if t, ok := catalog[id]; ok {
		return t.ToneHz
	}
	return DefaultToneHz
}

// Player plays soundtrack files.
type Player interface {
	// Play starts the track from the beginning at the given volume (0..1).
	Play(track TrackID, volume float64) error
	// SetVolume changes the playback volume.
	SetVolume(volume float64) error
	// Stop halts playback and rewinds.
	Stop() error
}

// Tone generates a synthetic tone.
type Tone interface {
	Start(freqHz, volume float64) error
	SetVolume(volume float64) error
	Stop() error
}

// ClampVolume limits v to [0, 1].
func ClampVolume(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
