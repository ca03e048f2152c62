package audio

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "breathwork_audio_fallbacks_total",
	Help: "Total times playback fell back to the synthetic tone, by track",
}, []string{"track"})

// Output owns one player and one fallback tone. Not safe for concurrent use;
// the session manager serializes access.
type Output struct {
	player Player
	tone   Tone
	logger *slog.Logger

	track    TrackID
	volume   float64
	playing  bool
	fallback bool
}

// NewOutput creates an Output at full volume. Either collaborator may be nil.
func NewOutput(player Player, tone Tone, logger *slog.Logger) *Output {
	if logger == nil {
		logger = slog.Default()
	}
	return &Output{player: player, tone: tone, logger: logger, volume: 1}
}

// Play starts the track, replacing whatever is playing. If the player fails
// the fallback tone is started at the track's frequency.
func (o *Output) Play(track TrackID) {
	o.Stop()
	o.track = track

	err := ErrNoTrack
	if track != "" && o.player != nil {
		err = o.player.Play(track, o.volume)
	}
	if err == nil {
		o.playing = true
		return
	}

	o.logger.Warn("audio playback failed, using fallback tone", "track", track, "error", err)
	fallbacksTotal.WithLabelValues(string(track)).Inc()
	if o.tone == nil {
		return
	}
	hz := ToneFrequency(track)
	if err := o.tone.Start(hz, o.volume); err != nil {
		o.logger.Error("fallback tone failed", "hz", hz, "error", err)
		return
	}
	o.playing = true
	o.fallback = true
}

// Stop halts the player and the fallback tone. Safe to call when idle.
func (o *Output) Stop() {
	if !o.playing {
		return
	}
	if o.fallback {
		if o.tone != nil {
			if err := o.tone.Stop(); err != nil {
				o.logger.Warn("stop fallback tone", "error", err)
			}
		}
	} else if o.player != nil {
		if err := o.player.Stop(); err != nil {
			o.logger.Warn("stop player", "error", err)
		}
	}
	o.playing = false
	o.fallback = false
}

// SetVolume clamps v to [0, 1] and applies it to whatever is playing.
func (o *Output) SetVolume(v float64) {
	o.volume = ClampVolume(v)
	if !o.playing {
		return
	}
	var err error
	if o.fallback {
		err = o.tone.SetVolume(o.volume)
	} else {
		err = o.player.SetVolume(o.volume)
	}
	if err != nil {
		o.logger.Warn("set volume", "volume", o.volume, "error", err)
	}
}

// Playing reports whether sound is being produced.
func (o *Output) Playing() bool { return o.playing }

// Fallback reports whether the synthetic tone is standing in for the track.
func (o *Output) Fallback() bool { return o.fallback }

// Track returns the last track passed to Play.
func (o *Output) Track() TrackID { return o.track }

// Volume returns the current volume.
func (o *Output) Volume() float64 { return o.volume }
