// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over file values.
const (
	EnvLibraryRoot = "NOWPLAYING_LIBRARY_ROOT"
	EnvLogLevel    = "NOWPLAYING_LOG_LEVEL"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig        `yaml:"app"`
	Library    LibraryConfig    `yaml:"library"`
	Playback   PlaybackConfig   `yaml:"playback"`
	NowPlaying NowPlayingConfig `yaml:"now_playing"`
	Log        LogConfig        `yaml:"log"`
}

// AppConfig identifies the application. ID also names the preference store.
type AppConfig struct {
	ID   string `yaml:"id" default:"com.tejashwikalptaru.nowplaying" validate:"required"`
	Name string `yaml:"name" default:"Now Playing" validate:"required"`
}

// LibraryConfig represents media library configuration.
type LibraryConfig struct {
	// Root is the directory that relative source paths resolve against
	Root    string   `yaml:"root"`
	Formats []string `yaml:"formats" default:"[\".mp3\",\".wav\"]" validate:"min=1,dive,startswith=."`
}

// PlaybackConfig represents playback configuration.
type PlaybackConfig struct {
	LoadTimeout      time.Duration `yaml:"load_timeout" default:"10s" validate:"gt=0"`
	RestartThreshold time.Duration `yaml:"restart_threshold" default:"5s" validate:"gte=0"`
	SampleRate       int           `yaml:"sample_rate" default:"44100" validate:"oneof=22050 44100 48000 96000"`
}

// NowPlayingConfig represents the OS media integration.
type NowPlayingConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" default:"1s" validate:"gte=100ms"`
	MPRIS           bool          `yaml:"mpris" default:"true"`
	BusName         string        `yaml:"bus_name" default:"org.mpris.MediaPlayer2.nowplaying" validate:"startswith=org.mpris.MediaPlayer2."`
	Identity        string        `yaml:"identity" default:"Now Playing"`
	Interruptions   bool          `yaml:"interruptions" default:"true"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// Load loads configuration from a YAML file. An empty path yields the
// defaults. Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	// Defaults go first so that explicit false values in the file survive.
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "failed to parse config file")
		}
	}

	// Override with environment variables
	cfg.overrideFromEnv()
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		panic(errors.Wrap(err, "invalid default tags"))
	}
	return cfg
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv(EnvLibraryRoot); v != "" {
		c.Library.Root = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if c.Library.Root != "" {
		info, err := os.Stat(c.Library.Root)
		if err != nil {
			return errors.Wrap(err, "library root")
		}
		if !info.IsDir() {
			return errors.Newf("library root %s is not a directory", c.Library.Root)
		}
	}

	return nil
}
