// Package app ties detection, planning, rendering, applying and persistence
// together around one explicit State value.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dsrosen6/hyprdisplay/internal/config"
	"github.com/dsrosen6/hyprdisplay/internal/display"
	"github.com/dsrosen6/hyprdisplay/internal/hyprconf"
	"github.com/dsrosen6/hyprdisplay/internal/power"
)

var (
	ErrNoMonitors    = errors.New("no monitors detected")
	ErrNoSavedLayout = errors.New("no saved layout for the connected monitors")
)

type (
	Detector interface {
		Detect(ctx context.Context) ([]display.MonitorDescriptor, error)
	}

	// Applier hands rendered monitor directives to the compositor.
	Applier interface {
		Apply(ctx context.Context, text string) error
	}

	Store interface {
		Load() (*config.PersistedConfig, error)
		LoadFor(names []string) (*config.PersistedConfig, error)
		Save(cfg config.PersistedConfig) error
	}

	Reloader interface {
		Reload(ctx context.Context) error
	}

	// Deps are the collaborators of an App. Reloader and LidState may be nil.
	Deps struct {
		Detector Detector
		Applier  Applier
		Store    Store
		Reloader Reloader
		LidState func(ctx context.Context) (power.LidState, error)
	}

	App struct {
		Settings *config.Settings
		State    *State
		deps     Deps
	}

	// State is everything the app knows about the current session. It is only
	// touched from the goroutine driving the App.
	State struct {
		Monitors  []display.MonitorDescriptor
		Plan      *display.LayoutPlan
		Applied   string
		Saved     *config.PersistedConfig
		Lid       power.LidState
		// Clamshell is set while the applied layout is the unsaved lid-closed one.
		Clamshell bool
	}

	// Result describes one apply.
	Result struct {
		Plan    display.LayoutPlan
		Text    string
		Skipped bool
	}
)

func NewApp(s *config.Settings, deps Deps) *App {
	return &App{
		Settings: s,
		State:    &State{Lid: power.LidStateUnknown},
		deps:     deps,
	}
}

// Detect refreshes the monitor snapshot.
func (a *App) Detect(ctx context.Context) ([]display.MonitorDescriptor, error) {
	monitors, err := a.deps.Detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detecting monitors: %w", err)
	}

	if len(monitors) == 0 {
		return nil, ErrNoMonitors
	}

	a.State.Monitors = monitors
	slog.Info("monitors detected", "names", strings.Join(a.MonitorNames(), ","))
	for _, m := range monitors {
		slog.Debug("detected monitor", logMonitorAttr(m))
	}

	return monitors, nil
}

// Plan computes a layout for the last detected snapshot.
func (a *App) Plan(req display.Request) (display.LayoutPlan, error) {
	if len(a.State.Monitors) == 0 {
		return display.LayoutPlan{}, ErrNoMonitors
	}

	plan, err := display.Plan(a.State.Monitors, req)
	if err != nil {
		return display.LayoutPlan{}, fmt.Errorf("planning %s layout: %w", req.Mode, err)
	}

	return plan, nil
}

// Render serializes plan with every detected monitor as known.
func (a *App) Render(plan display.LayoutPlan) string {
	return hyprconf.Serialize(plan, a.MonitorNames())
}

func (a *App) MonitorNames() []string {
	names := make([]string, 0, len(a.State.Monitors))
	for _, m := range a.State.Monitors {
		names = append(names, m.Name)
	}
	return names
}

// SavedConfig returns the config saved for the detected monitor set. A corrupt
// state file is logged and reported as absent.
func (a *App) SavedConfig() (*config.PersistedConfig, error) {
	cfg, err := a.deps.Store.LoadFor(a.MonitorNames())
	if err != nil {
		if errors.Is(err, config.ErrCorrupt) {
			slog.Warn("ignoring corrupt state file", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("loading saved layout: %w", err)
	}

	if cfg != nil {
		a.State.Saved = cfg
	}
	return cfg, nil
}

// LastConfig returns the most recently saved config regardless of monitor set.
func (a *App) LastConfig() (*config.PersistedConfig, error) {
	cfg, err := a.deps.Store.Load()
	if err != nil {
		if errors.Is(err, config.ErrCorrupt) {
			slog.Warn("ignoring corrupt state file", "error", err)
			return nil, nil
		}
		return nil, fmt.Errorf("loading last layout: %w", err)
	}
	return cfg, nil
}

func logMonitorAttr(m display.MonitorDescriptor) slog.Attr {
	return slog.Group(
		m.Name,
		slog.String("description", m.Description),
		slog.String("current", m.Current.String()),
		slog.String("preferred", m.PreferredMode().String()),
		slog.Int("modes", len(m.Modes)),
		slog.String("rotation", m.Rotation.String()),
		slog.Int64("x", m.X),
		slog.Int64("y", m.Y),
		slog.Bool("primary", m.Primary),
		slog.Bool("internal", m.Internal),
	)
}
