// Package config handles reading and writing breathwork.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/breathwork/internal/phase"
	"github.com/sweeney/breathwork/internal/session"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "breathwork.yaml"

// ErrInvalid is returned when a config fails validation.
var ErrInvalid = errors.New("invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the top-level structure for breathwork.yaml.
type Config struct {
	Technique     string              `yaml:"technique" validate:"required"`
	Premium       bool                `yaml:"premium"`
	TargetSeconds int                 `yaml:"target_seconds" validate:"gte=0,lte=86400"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
	HTTP          HTTPConfig          `yaml:"http"`
	Audio         AudioConfig         `yaml:"audio"`
	Chromotherapy ChromotherapyConfig `yaml:"chromotherapy"`
	GPIO          GPIOConfig          `yaml:"gpio"`
}

// MQTTConfig configures the summary publisher.
type MQTTConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Broker           string `yaml:"broker" validate:"required_if=Enabled true"`
	ClientID         string `yaml:"client_id" validate:"required_if=Enabled true"`
	HeartbeatSeconds int    `yaml:"heartbeat_seconds" validate:"gte=0"` // 0 disables heartbeats
}

// HTTPConfig configures the status and control server.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables the server
}

// AudioConfig configures soundtrack playback.
type AudioConfig struct {
	Enabled bool     `yaml:"enabled"`
	Dir     string   `yaml:"dir"`
	Command []string `yaml:"command,omitempty"`
	Track   string   `yaml:"track"`
	Volume  float64  `yaml:"volume" validate:"gte=0,lte=1"`
}

// ChromotherapyConfig configures colour therapy. Enabled applies integrated
// mode to sessions; the rest configures the standalone rotation.
type ChromotherapyConfig struct {
	Enabled         bool     `yaml:"enabled"`
	IntervalSeconds int      `yaml:"interval_seconds" validate:"gte=1,lte=3600"`
	Colors          []string `yaml:"colors" validate:"min=1,dive,hexcolor"`
	Cycles          int      `yaml:"cycles" validate:"gte=1,lte=100"`
	SafetySeconds   int      `yaml:"safety_seconds" validate:"gte=0"` // 0 derives from the rotation length
}

// GPIOConfig configures the RGB LED and buzzer.
type GPIOConfig struct {
	Enabled bool   `yaml:"enabled"`
	Chip    string `yaml:"chip" validate:"required_if=Enabled true"`
	Red     int    `yaml:"red" validate:"gte=0"`
	Green   int    `yaml:"green" validate:"gte=0"`
	Blue    int    `yaml:"blue" validate:"gte=0"`
	Buzzer  int    `yaml:"buzzer" validate:"gte=0"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Technique: phase.DefaultTechnique,
		MQTT: MQTTConfig{
			Broker:           "tcp://localhost:1883",
			ClientID:         "breathwork",
			HeartbeatSeconds: 900,
		},
		HTTP: HTTPConfig{Addr: ":8080"},
		Audio: AudioConfig{
			Dir:    "sounds",
			Track:  "ocean",
			Volume: 0.7,
		},
		Chromotherapy: ChromotherapyConfig{
			IntervalSeconds: 20,
			Colors:          []string{phase.Blue.Hex(), phase.Green.Hex(), phase.Purple.Hex()},
			Cycles:          1,
		},
		GPIO: GPIOConfig{
			Chip:   "gpiochip0",
			Red:    17,
			Green:  27,
			Blue:   22,
			Buzzer: 18,
		},
	}
}

// Load reads the config at path over the defaults. A missing file yields the
// defaults; a malformed or invalid one is an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write writes cfg to path, creating parent directories.
func Write(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// ManualChroma converts the chromotherapy section into a rotation config.
func (c *Config) ManualChroma() (session.ManualConfig, error) {
	colors := make([]phase.RGB, 0, len(c.Chromotherapy.Colors))
	for _, s := range c.Chromotherapy.Colors {
		rgb, err := phase.ParseRGB(s)
		if err != nil {
			return session.ManualConfig{}, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		colors = append(colors, rgb)
	}
	return session.ManualConfig{
		Interval:      time.Duration(c.Chromotherapy.IntervalSeconds) * time.Second,
		Colors:        colors,
		Cycles:        c.Chromotherapy.Cycles,
		SafetyCeiling: time.Duration(c.Chromotherapy.SafetySeconds) * time.Second,
	}, nil
}

// Heartbeat returns the heartbeat interval, or 0 when disabled.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.MQTT.HeartbeatSeconds) * time.Second
}
