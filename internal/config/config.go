// Package config loads the host settings.
//
// Values come from a YAML file decoded leniently ("true", "30" and friends are
// accepted wherever a bool or number is expected) and are then overridden by
// SCRIPTHOST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/caarlos0/env/v11"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SCRIPTHOST_"

// Settings holds the host configuration.
type Settings struct {
	ScriptsLocation string `mapstructure:"scripts_location" env:"SCRIPTS_LOCATION"`
	LogDir          string `mapstructure:"log_dir" env:"LOG_DIR"`
	LogName         string `mapstructure:"log_name" env:"LOG_NAME"`
	LogLevel        string `mapstructure:"log_level" env:"LOG_LEVEL"`
	FrameRate       int    `mapstructure:"frame_rate" env:"FRAME_RATE"`
	ReloadKey       string `mapstructure:"reload_key" env:"RELOAD_KEY"`
	MetricsAddr     string `mapstructure:"metrics_addr" env:"METRICS_ADDR"`
	Watch           bool   `mapstructure:"watch" env:"WATCH"`

	// Unknown lists file keys that matched no setting.
	Unknown []string `mapstructure:"-"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		ScriptsLocation: "scripts",
		LogDir:          "logs",
		LogName:         "scripthost",
		LogLevel:        "info",
		FrameRate:       30,
		ReloadKey:       "Insert",
	}
}

// Load reads path (optional: "" or a missing file keeps the defaults), then
// applies environment overrides and validates the result.
func Load(path string) (Settings, error) {
	s := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return s, fmt.Errorf("failed to read config %s: %w", path, err)
		default:
			if err := decode(data, &s); err != nil {
				return s, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(&s, env.Options{Prefix: EnvPrefix}); err != nil {
		return s, fmt.Errorf("parse env: %w", err)
	}
	return s, s.Validate()
}

func decode(data []byte, s *Settings) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           s,
		WeaklyTypedInput: true,
		Metadata:         &md,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return err
	}
	s.Unknown = slices.Sorted(slices.Values(md.Unused))
	return nil
}

// Validate checks value ranges.
func (s Settings) Validate() error {
	if s.ScriptsLocation == "" {
		return fmt.Errorf("scripts_location must not be empty")
	}
	if s.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %d", s.FrameRate)
	}
	if _, err := s.Key(); err != nil {
		return fmt.Errorf("reload_key: %w", err)
	}
	return nil
}

// Key returns the parsed reload key; "none" disables it.
func (s Settings) Key() (domain.Key, error) {
	if s.ReloadKey == "" || s.ReloadKey == "none" {
		return 0, nil
	}
	return domain.ParseKey(s.ReloadKey)
}
