package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// DefaultCommand plays a file in a loop with mpv. {file} and {volume}
// (0-100) are substituted per track.
var DefaultCommand = []string{"mpv", "--no-video", "--really-quiet", "--loop=inf", "--volume={volume}", "{file}"}

// ExecPlayer plays catalog tracks from a directory with an external command.
// The command takes its volume on the command line, so a volume change
// restarts the running track at the new level.
type ExecPlayer struct {
	dir     string
	command []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	path   string // file of the running track
	volume float64
}

// NewExecPlayer creates a player for files under dir. An empty command uses
// DefaultCommand.
func NewExecPlayer(dir string, command []string) *ExecPlayer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &ExecPlayer{dir: dir, command: command, volume: 1}
}

// Play starts the player process for track.
func (p *ExecPlayer) Play(track TrackID, volume float64) error {
	t, ok := Lookup(track)
	if !ok {
		return fmt.Errorf("%w: %q not in catalog", ErrTrackUnavailable, track)
	}
	path := filepath.Join(p.dir, t.File)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %v", ErrTrackUnavailable, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()

	p.volume = ClampVolume(volume)
	return p.startLocked(path)
}

// SetVolume applies volume to the running track by restarting it, or records
// it for the next Play when nothing is playing.
func (p *ExecPlayer) SetVolume(volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	volume = ClampVolume(volume)
	if volume == p.volume {
		return nil
	}
	p.volume = volume
	if p.cmd == nil {
		return nil
	}
	path := p.path
	if err := p.stopLocked(); err != nil {
		return err
	}
	return p.startLocked(path)
}

// Stop kills the player process, if any.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *ExecPlayer) startLocked(path string) error {
	args := p.expand(path)
	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrTrackUnavailable, args[0], err)
	}
	p.cmd = cmd
	p.path = path
	go cmd.Wait()
	return nil
}

func (p *ExecPlayer) stopLocked() error {
	if p.cmd == nil {
		return nil
	}
	cmd := p.cmd
	p.cmd = nil
	p.path = ""
	if cmd.Process == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill player: %w", err)
	}
	return nil
}

func (p *ExecPlayer) expand(path string) []string {
	vol := strconv.Itoa(int(p.volume*100 + 0.5))
	args := make([]string, len(p.command))
	for i, a := range p.command {
		a = strings.ReplaceAll(a, "{file}", path)
		a = strings.ReplaceAll(a, "{volume}", vol)
		args[i] = a
	}
	return args
}
