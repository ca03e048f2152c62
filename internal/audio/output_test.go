package audio

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestOutputPlaysTrack(t *testing.T) {
	player := NewFakePlayer()
	tone := NewFakeTone()
	o := NewOutput(player, tone, nil)

	o.Play("ocean")

	if !o.Playing() || o.Fallback() {
		t.Fatalf("expected playing without fallback, got playing=%v fallback=%v", o.Playing(), o.Fallback())
	}
	if len(player.Played) != 1 || player.Played[0] != "ocean" {
		t.Errorf("unexpected played tracks: %v", player.Played)
	}
	if len(tone.Frequencies) != 0 {
		t.Errorf("expected no tone, got %v", tone.Frequencies)
	}
}

func TestOutputFallsBackToTone(t *testing.T) {
	player := NewFakePlayer()
	player.PlayError = errors.New("autoplay blocked")
	tone := NewFakeTone()
	o := NewOutput(player, tone, nil)

	o.Play("rain")

	if !o.Playing() || !o.Fallback() {
		t.Fatalf("expected fallback playback, got playing=%v fallback=%v", o.Playing(), o.Fallback())
	}
	if len(tone.Frequencies) != 1 || tone.Frequencies[0] != 396 {
		t.Errorf("expected 396 Hz tone, got %v", tone.Frequencies)
	}

	o.Stop()
	if tone.Sounding {
		t.Error("tone should be stopped")
	}
	if o.Playing() || o.Fallback() {
		t.Error("output should be idle after stop")
	}
	if player.Stops != 0 {
		t.Errorf("player should not be stopped when it never started, got %d stops", player.Stops)
	}
}

func TestOutputFallbackFrequencyIsDeterministic(t *testing.T) {
	for _, tr := range Tracks() {
		player := NewFakePlayer()
		player.PlayError = ErrTrackUnavailable
		tone := NewFakeTone()
		o := NewOutput(player, tone, nil)

		o.Play(tr.ID)
		o.Stop()
		o.Play(tr.ID)

		if len(tone.Frequencies) != 2 || tone.Frequencies[0] != tr.ToneHz || tone.Frequencies[1] != tr.ToneHz {
			t.Errorf("%s: frequencies %v, want two of %v", tr.ID, tone.Frequencies, tr.ToneHz)
		}
	}
}

func TestOutputUnknownOrEmptyTrackUsesDefaultTone(t *testing.T) {
	tone := NewFakeTone()
	o := NewOutput(NewFakePlayer(), tone, nil)

	o.Play("")
	if len(tone.Frequencies) != 1 || tone.Frequencies[0] != DefaultToneHz {
		t.Errorf("expected default tone, got %v", tone.Frequencies)
	}
	if ToneFrequency("whale-song") != DefaultToneHz {
		t.Errorf("unknown track frequency: got %v", ToneFrequency("whale-song"))
	}
}

func TestOutputWithoutToneStaysSilent(t *testing.T) {
	player := NewFakePlayer()
	player.PlayError = errors.New("missing")
	o := NewOutput(player, nil, nil)

	o.Play("om")
	if o.Playing() {
		t.Error("expected silence when neither player nor tone can play")
	}
}

func TestOutputSwitchTrackStopsPrevious(t *testing.T) {
	player := NewFakePlayer()
	o := NewOutput(player, NewFakeTone(), nil)

	o.Play("ocean")
	o.Play("forest")

	if player.Stops != 1 {
		t.Errorf("expected previous track stopped once, got %d", player.Stops)
	}
	if o.Track() != "forest" {
		t.Errorf("Track: got %s, want forest", o.Track())
	}
}

func TestOutputSetVolumeClampsAndApplies(t *testing.T) {
	player := NewFakePlayer()
	tone := NewFakeTone()
	o := NewOutput(player, tone, nil)

	o.SetVolume(1.7)
	if o.Volume() != 1 {
		t.Errorf("Volume: got %v, want 1", o.Volume())
	}

	o.Play("ocean")
	o.SetVolume(0.25)
	if player.Volume != 0.25 {
		t.Errorf("player volume: got %v, want 0.25", player.Volume)
	}

	o.SetVolume(-3)
	if player.Volume != 0 {
		t.Errorf("player volume: got %v, want 0", player.Volume)
	}
}

func TestExecPlayerMissingFile(t *testing.T) {
	p := NewExecPlayer(t.TempDir(), nil)

	err := p.Play("ocean", 1)
	if !errors.Is(err, ErrTrackUnavailable) {
		t.Errorf("expected ErrTrackUnavailable, got %v", err)
	}

	err = p.Play("not-a-track", 1)
	if !errors.Is(err, ErrTrackUnavailable) {
		t.Errorf("expected ErrTrackUnavailable for unknown track, got %v", err)
	}
}

func TestExecPlayerMissingBinary(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ocean.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewExecPlayer(dir, []string{"breathwork-no-such-player", "{file}"})

	if err := p.Play("ocean", 1); !errors.Is(err, ErrTrackUnavailable) {
		t.Errorf("expected ErrTrackUnavailable, got %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestExecPlayerExpand(t *testing.T) {
	p := NewExecPlayer("/music", []string{"play", "--vol={volume}", "{file}"})
	p.volume = 0.5

	got := p.expand("/music/ocean.mp3")
	want := []string{"play", "--vol=50", "/music/ocean.mp3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expand: got %v, want %v", got, want)
		}
	}
}

// startedArgs returns the command line of the running player process.
func startedArgs(p *ExecPlayer) ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil, 0
	}
	return p.cmd.Args, p.cmd.Process.Pid
}

func TestExecPlayerSetVolumeRestartsRunningTrack(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ocean.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewExecPlayer(dir, []string{"sh", "-c", "sleep 30", "player", "{volume}", "{file}"})
	defer p.Stop()

	if err := p.Play("ocean", 0.5); err != nil {
		t.Fatalf("Play: %v", err)
	}
	args, pid := startedArgs(p)
	if args[4] != "50" {
		t.Fatalf("initial volume arg: got %q, want 50", args[4])
	}

	if err := p.SetVolume(0.8); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	args, newPid := startedArgs(p)
	if args == nil {
		t.Fatal("expected the track to keep playing")
	}
	if args[4] != "80" {
		t.Errorf("volume arg after change: got %q, want 80", args[4])
	}
	if args[5] != filepath.Join(dir, "ocean.mp3") {
		t.Errorf("file arg after change: got %q", args[5])
	}
	if newPid == pid {
		t.Error("expected the player to be restarted at the new volume")
	}

	// Unchanged volume leaves the process alone
	if err := p.SetVolume(0.8); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if _, samePid := startedArgs(p); samePid != newPid {
		t.Error("unchanged volume should not restart the player")
	}
}

func TestExecPlayerSetVolumeWhileIdle(t *testing.T) {
	p := NewExecPlayer(t.TempDir(), []string{"play", "--vol={volume}", "{file}"})

	if err := p.SetVolume(0.3); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	if args, _ := startedArgs(p); args != nil {
		t.Errorf("idle SetVolume should not start a player, got %v", args)
	}
	if got := p.expand("x")[1]; got != "--vol=30" {
		t.Errorf("stored volume: got %q, want --vol=30", got)
	}
}

func TestExecPlayerStopAfterExit(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ocean.mp3"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	p := NewExecPlayer(dir, []string{"true", "{file}"})
	if err := p.Play("ocean", 1); err != nil {
		t.Fatalf("Play: %v", err)
	}
	// Give the process time to exit and be reaped
	time.Sleep(200 * time.Millisecond)

	if err := p.Stop(); err != nil {
		t.Errorf("Stop after the player exited: %v", err)
	}
}
