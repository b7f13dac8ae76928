// Package config handles the runtime settings of hyprdisplay and the persisted
// layout choices.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	cfgDirName       = "hyprdisplay"
	settingsFileName = "settings.yaml"
	stateFileName    = "state.json"
	envPrefix        = "HYPRDISPLAY"
)

const (
	ApplyHyprctl = "hyprctl"
	ApplyFile    = "file"
	ApplyBoth    = "both"
)

// Settings are read from settings.yaml and HYPRDISPLAY_* environment variables.
type Settings struct {
	StateFile        string   `mapstructure:"state_file"`
	MonitorsFile     string   `mapstructure:"monitors_file"`
	ApplyMethod      string   `mapstructure:"apply_method"`
	HyprctlPath      string   `mapstructure:"hyprctl_path"`
	InternalPrefixes []string `mapstructure:"internal_prefixes"`
	LogLevel         string   `mapstructure:"log_level"`
	LidSwitch        bool     `mapstructure:"lid_switch"`

	path string
}

// LoadSettings reads settings from path, or from the default location when path is
// empty. A missing file leaves every key at its default.
func LoadSettings(path string) (*Settings, error) {
	uc, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("getting user config directory path: %w", err)
	}

	if path == "" {
		path = filepath.Join(uc, cfgDirName, settingsFileName)
	}

	v := viper.New()
	setDefaults(v, uc)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checking settings file: %w", err)
		}
		slog.Debug("no settings file found; using defaults", "path", path)
	} else if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	s.path = path

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func setDefaults(v *viper.Viper, userConfigDir string) {
	v.SetDefault("state_file", filepath.Join(userConfigDir, cfgDirName, stateFileName))
	v.SetDefault("monitors_file", filepath.Join(userConfigDir, "hypr", "monitors.conf"))
	v.SetDefault("apply_method", ApplyHyprctl)
	v.SetDefault("hyprctl_path", "")
	v.SetDefault("internal_prefixes", []string{"eDP", "LVDS", "DSI"})
	v.SetDefault("log_level", "info")
	v.SetDefault("lid_switch", true)
}

func (s *Settings) Validate() error {
	switch s.ApplyMethod {
	case ApplyHyprctl, ApplyFile, ApplyBoth:
	default:
		return fmt.Errorf("invalid apply_method %q: want %s, %s or %s", s.ApplyMethod, ApplyHyprctl, ApplyFile, ApplyBoth)
	}

	if s.StateFile == "" {
		return errors.New("state_file not set")
	}

	if s.ApplyMethod != ApplyHyprctl && s.MonitorsFile == "" {
		return errors.New("monitors_file not set")
	}

	if _, err := s.SlogLevel(); err != nil {
		return err
	}

	return nil
}

func (s *Settings) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q: %w", s.LogLevel, err)
	}
	return l, nil
}

// Path is the settings file that was consulted.
func (s *Settings) Path() string {
	return s.path
}
