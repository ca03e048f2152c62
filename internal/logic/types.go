// Package logic contains the pure state machines behind a breathing session.
// This package has NO timers, goroutines or I/O: callers drive it one tick at
// a time, and time only enters through explicit time.Time values.
package logic

import "time"

// SessionType identifies the kind of exercise a summary describes.
const SessionType = "breathing"

// SignificantSeconds is the elapsed time a session must exceed before its
// summary is worth persisting.
const SignificantSeconds = 30

// Summary is the immutable record produced when a session stops.
type Summary struct {
	SessionID           string
	SessionType         string
	TechniqueID         string
	TotalElapsedSeconds int
	ChromotherapyUsed   bool
	AudioTrack          string // last track played, possibly as its fallback tone
	SoundUsed           bool   // a track or the fallback tone played
	CompletedCycles     int
	EffectivenessRating *int // optional, supplied by the user after the session
	CompletedAt         time.Time
}

// CompletedCycles returns the number of whole cycles that fit in total.
func CompletedCycles(totalSeconds, cycleLength int) int {
	if cycleLength <= 0 || totalSeconds <= 0 {
		return 0
	}
	return totalSeconds / cycleLength
}

// Significant reports whether a session of the given length should emit a
// summary.
func Significant(totalSeconds int) bool {
	return totalSeconds > SignificantSeconds
}
