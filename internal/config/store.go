package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/dsrosen6/hyprdisplay/internal/display"
	"github.com/dsrosen6/hyprdisplay/internal/fsutil"
)

const stateVersion = 1

var (
	// ErrIOFailure indicates the state file could not be read or written. Retryable.
	ErrIOFailure = errors.New("state file i/o failure")

	// ErrCorrupt indicates the state file exists but cannot be parsed. Callers treat
	// it as absent state.
	ErrCorrupt = errors.New("state file corrupt")
)

type (
	// PersistedConfig is the set of choices that produced an applied plan. Geometry
	// is never stored; it is re-derived from fresh detection.
	PersistedConfig struct {
		Mode      display.DisplayMode                `json:"mode" yaml:"mode"`
		Ordering  display.ExtendOrdering             `json:"ordering,omitempty" yaml:"ordering,omitempty"`
		Order     []string                           `json:"order,omitempty" yaml:"order,omitempty"`
		Overrides map[string]display.MonitorOverride `json:"overrides,omitempty" yaml:"overrides,omitempty"`
		Primary   string                             `json:"primary,omitempty" yaml:"primary,omitempty"`
		Target    string                             `json:"target,omitempty" yaml:"target,omitempty"`

		// Monitors is the detected monitor set the config was applied to.
		Monitors []string `json:"monitors,omitempty" yaml:"monitors,omitempty"`
	}

	// Store keeps one PersistedConfig per detected monitor set plus a pointer to the
	// most recently saved one.
	Store struct {
		path string
		now  func() time.Time
	}

	stateFile struct {
		Version int                    `json:"version"`
		Last    string                 `json:"last,omitempty"`
		Layouts map[string]savedLayout `json:"layouts"`
	}

	savedLayout struct {
		SavedAt time.Time       `json:"saved_at"`
		Config  PersistedConfig `json:"config"`
	}
)

func NewStore(path string) *Store {
	return &Store{
		path: path,
		now:  time.Now,
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load returns the most recently saved config, or nil on first run.
func (s *Store) Load() (*PersistedConfig, error) {
	sf, err := s.read()
	if err != nil || sf == nil {
		return nil, err
	}

	if sf.Last == "" {
		return nil, nil
	}

	l, ok := sf.Layouts[sf.Last]
	if !ok {
		return nil, fmt.Errorf("%w: last layout %q missing", ErrCorrupt, sf.Last)
	}

	cfg := l.Config
	return &cfg, nil
}

// LoadFor returns the config saved for exactly this set of monitor names, or nil.
func (s *Store) LoadFor(names []string) (*PersistedConfig, error) {
	sf, err := s.read()
	if err != nil || sf == nil {
		return nil, err
	}

	l, ok := sf.Layouts[SetKey(names)]
	if !ok {
		return nil, nil
	}

	cfg := l.Config
	return &cfg, nil
}

// Save records cfg under its monitor set and marks it as the last applied config.
// The file is replaced atomically. A corrupt existing file is replaced. Empty
// collections are stored as absent, so Load returns cfg.Normalized().
func (s *Store) Save(cfg PersistedConfig) error {
	if !cfg.Mode.Valid() {
		return fmt.Errorf("saving config: %w: %q", display.ErrUnknownMode, cfg.Mode)
	}
	cfg = cfg.Normalized()

	sf, err := s.read()
	if err != nil {
		if !errors.Is(err, ErrCorrupt) {
			return err
		}
		slog.Warn("replacing corrupt state file", "path", s.path, "error", err)
		sf = nil
	}

	if sf == nil {
		sf = &stateFile{}
	}
	if sf.Layouts == nil {
		sf.Layouts = map[string]savedLayout{}
	}

	key := SetKey(cfg.Monitors)
	sf.Version = stateVersion
	sf.Last = key
	sf.Layouts[key] = savedLayout{
		SavedAt: s.now().UTC(),
		Config:  cfg,
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if err := fsutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}

	return nil
}

// read returns nil without error when the file does not exist.
func (s *Store) read() (*stateFile, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: reading %s: %w", ErrIOFailure, s.path, err)
	}

	sf := &stateFile{}
	if err := json.Unmarshal(data, sf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	if sf.Version > stateVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, sf.Version)
	}

	for key, l := range sf.Layouts {
		if !l.Config.Mode.Valid() {
			return nil, fmt.Errorf("%w: layout %q has mode %q", ErrCorrupt, key, l.Config.Mode)
		}
	}

	return sf, nil
}

// SetKey identifies a monitor set independent of detection order.
func SetKey(names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	return strings.Join(sorted, "+")
}

// Normalized returns c with empty collections set to nil, the form Load returns.
func (c PersistedConfig) Normalized() PersistedConfig {
	if len(c.Order) == 0 {
		c.Order = nil
	}
	if len(c.Overrides) == 0 {
		c.Overrides = nil
	}
	if len(c.Monitors) == 0 {
		c.Monitors = nil
	}
	return c
}

// Request converts the persisted choices into a planning request.
func (c PersistedConfig) Request() display.Request {
	return display.Request{
		Mode:      c.Mode,
		Ordering:  c.Ordering,
		Order:     slices.Clone(c.Order),
		Overrides: c.Overrides,
		Primary:   c.Primary,
		Target:    c.Target,
	}
}

// FromRequest records a successful request against the detected monitor names.
func FromRequest(req display.Request, monitors []string) PersistedConfig {
	cfg := PersistedConfig{
		Mode:     req.Mode,
		Order:    slices.Clone(req.Order),
		Primary:  req.Primary,
		Target:   req.Target,
		Monitors: slices.Clone(monitors),
	}
	if req.Mode == display.ModeExtend {
		cfg.Ordering = req.Ordering
	}
	if len(req.Overrides) > 0 {
		cfg.Overrides = req.Overrides
	}
	slices.Sort(cfg.Monitors)
	return cfg
}
