// Package tui is an interactive terminal client for a breathing session.
// It drives the session manager directly and redraws from its snapshot on
// every frame.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/breathwork/internal/audio"
	"github.com/sweeney/breathwork/internal/session"
)

// FrameInterval is how often the view re-reads the session snapshot.
const FrameInterval = 100 * time.Millisecond

const volumeStep = 0.1

// Session is the manager surface the terminal client drives.
type Session interface {
	Start(targetSeconds int, opts session.Options) bool
	Stop()
	Reset()
	StartChromotherapy(cfg session.ManualConfig) bool
	StopChromotherapy()
	SelectAudioTrack(id audio.TrackID)
	SetVolume(level float64)
	Snapshot() session.State
}

// Config holds the choices applied when the user starts a session.
type Config struct {
	TargetSeconds int
	Options       session.Options
	Chroma        session.ManualConfig
}

type frameMsg time.Time

func frame() tea.Cmd {
	return tea.Tick(FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

// Model is the root Bubble Tea model.
type Model struct {
	sess   Session
	cfg    Config
	tracks []audio.Track

	keys     keyMap
	help     help.Model
	bar      progress.Model
	state    session.State
	message  string
	width    int
	quitting bool
}

// New creates a Model driving sess.
func New(sess Session, cfg Config) Model {
	return Model{
		sess:   sess,
		cfg:    cfg,
		tracks: audio.Tracks(),
		keys:   defaultKeys(),
		help:   help.New(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		state:  sess.Snapshot(),
	}
}

// Init starts the frame loop.
func (m Model) Init() tea.Cmd {
	return frame()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.state = m.sess.Snapshot()
		return m, frame()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width-4, 10), 60)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		// stop rather than close so a long enough session is still recorded
		m.sess.Stop()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Toggle):
		if m.state.Active {
			m.sess.Stop()
		} else if !m.sess.Start(m.cfg.TargetSeconds, m.cfg.Options) {
			m.message = "session could not be started"
		}

	case key.Matches(msg, m.keys.Reset):
		m.sess.Reset()

	case key.Matches(msg, m.keys.Chroma):
		switch {
		case m.state.ChromaMode == session.ChromaManual:
			m.sess.StopChromotherapy()
		case m.state.Active:
			m.message = "colour rotation is unavailable during a session"
		case !m.sess.StartChromotherapy(m.cfg.Chroma):
			m.message = "colour rotation could not be started"
		}

	case key.Matches(msg, m.keys.Integrated):
		m.cfg.Options.Chromotherapy = !m.cfg.Options.Chromotherapy

	case key.Matches(msg, m.keys.Audio):
		m.cfg.Options.Audio = !m.cfg.Options.Audio

	case key.Matches(msg, m.keys.Track):
		next := m.nextTrack()
		m.cfg.Options.TrackID = next
		m.sess.SelectAudioTrack(next)

	case key.Matches(msg, m.keys.VolUp):
		m.sess.SetVolume(m.state.Volume + volumeStep)

	case key.Matches(msg, m.keys.VolDown):
		m.sess.SetVolume(m.state.Volume - volumeStep)

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.state = m.sess.Snapshot()
	return m, nil
}

func (m Model) nextTrack() audio.TrackID {
	if len(m.tracks) == 0 {
		return ""
	}
	for i, t := range m.tracks {
		if t.ID == m.state.SelectedTrack {
			return m.tracks[(i+1)%len(m.tracks)].ID
		}
	}
	return m.tracks[0].ID
}

// Config returns the current start options.
func (m Model) Config() Config {
	return m.cfg
}

// View renders the session.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.state
	var b strings.Builder

	b.WriteString(titleStyle.Render("Breathwork"))
	b.WriteString("  ")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s (%s)", s.Technique, s.Pattern)))
	b.WriteString("\n\n")

	b.WriteString(swatch(s.Color.Hex(), m.swatchWidth()))
	b.WriteString("\n\n")

	if s.Active {
		b.WriteString(phaseStyle.Render(strings.ToUpper(string(s.Phase))))
		b.WriteString(fmt.Sprintf("  %ds\n", s.SecondsRemaining))
		b.WriteString(m.bar.ViewAs(progressFraction(s)))
		b.WriteString("\n")
	} else {
		b.WriteString(phaseStyle.Render("READY"))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\nelapsed %s   cycles %d", clock(s.TotalElapsed), s.CompletedCycles()))
	if s.TargetSeconds > 0 {
		b.WriteString(fmt.Sprintf("   target %s", clock(s.TargetSeconds)))
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("colours "))
	b.WriteString(chromaLabel(s, m.cfg.Options.Chromotherapy))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("sound   "))
	b.WriteString(audioLabel(s, m.cfg.Options.Audio))
	b.WriteString("\n")

	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(m.message))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) swatchWidth() int {
	if m.width <= 0 {
		return 40
	}
	return min(max(m.width-4, 10), 60)
}

// progressFraction is the share of the target reached, or of the current
// cycle when the session is open-ended.
func progressFraction(s session.State) float64 {
	if s.TargetSeconds > 0 {
		return min(float64(s.TotalElapsed)/float64(s.TargetSeconds), 1)
	}
	if s.CycleSeconds <= 0 {
		return 0
	}
	return float64(s.TotalElapsed%s.CycleSeconds) / float64(s.CycleSeconds)
}

func chromaLabel(s session.State, integrated bool) string {
	switch {
	case s.ChromaMode == session.ChromaManual:
		return "rotating"
	case s.ChromotherapyActive:
		return "following the breath"
	case integrated:
		return "on at start"
	}
	return "off"
}

func audioLabel(s session.State, enabled bool) string {
	vol := fmt.Sprintf("%d%%", int(s.Volume*100+0.5))
	track := string(s.SelectedTrack)
	if track == "" {
		track = "no track"
	}
	switch {
	case s.AudioPlaying && s.AudioFallback:
		return fmt.Sprintf("%s (tone) %s", track, vol)
	case s.AudioPlaying:
		return fmt.Sprintf("%s %s", track, vol)
	case enabled:
		return fmt.Sprintf("%s at start %s", track, vol)
	}
	return fmt.Sprintf("off (%s) %s", track, vol)
}

func clock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func swatch(hex string, width int) string {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Width(width).
		Height(2).
		Render("")
}
