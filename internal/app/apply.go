package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dsrosen6/hyprdisplay/internal/config"
	"github.com/dsrosen6/hyprdisplay/internal/display"
	"github.com/dsrosen6/hyprdisplay/internal/power"
)

type outputsStatus string

const (
	statusUnknown outputsStatus = "UNKNOWN"
	statusOLLC    outputsStatus = "ONLY_LAPTOP_LID_CLOSED"
	statusOLLO    outputsStatus = "ONLY_LAPTOP_LID_OPEN"
	statusWELC    outputsStatus = "WITH_EXTERNAL_LID_CLOSED"
	statusWELO    outputsStatus = "WITH_EXTERNAL_LID_OPEN"
)

// Apply plans req against the detected monitors, applies the rendered text unless
// it matches what was last applied, and saves the choices.
func (a *App) Apply(ctx context.Context, req display.Request) (*Result, error) {
	return a.apply(ctx, req, true)
}

// Preview plans and renders without touching the compositor or the store.
func (a *App) Preview(req display.Request) (*Result, error) {
	plan, err := a.Plan(req)
	if err != nil {
		return nil, err
	}

	return &Result{Plan: plan, Text: a.Render(plan)}, nil
}

func (a *App) apply(ctx context.Context, req display.Request, persist bool) (*Result, error) {
	res, err := a.Preview(req)
	if err != nil {
		return nil, err
	}

	if res.Text == a.State.Applied {
		slog.Info("layout unchanged; skipping apply", "mode", req.Mode)
		res.Skipped = true
		return res, nil
	}

	if err := a.deps.Applier.Apply(ctx, res.Text); err != nil {
		return nil, fmt.Errorf("applying %s layout: %w", req.Mode, err)
	}

	a.State.Applied = res.Text
	a.State.Plan = &res.Plan
	a.State.Clamshell = false
	slog.Info("layout applied", "mode", res.Plan.Mode, "ordering", res.Plan.Ordering,
		"primary", primaryName(res.Plan), "monitors", len(res.Plan.Monitors))

	if !persist {
		return res, nil
	}

	cfg := config.FromRequest(req, a.MonitorNames()).Normalized()
	cfg.Ordering = res.Plan.Ordering
	if err := a.deps.Store.Save(cfg); err != nil {
		return res, fmt.Errorf("saving layout: %w", err)
	}
	a.State.Saved = &cfg
	slog.Debug("layout saved", "monitors", config.SetKey(cfg.Monitors))

	return res, nil
}

// Restore re-applies the layout saved for the connected monitor set. It fails
// with ErrNoSavedLayout, or the planning error, when the user must choose again.
func (a *App) Restore(ctx context.Context) (*Result, error) {
	if _, err := a.Detect(ctx); err != nil {
		return nil, err
	}

	return a.restoreDetected(ctx)
}

func (a *App) restoreDetected(ctx context.Context) (*Result, error) {
	cfg, err := a.SavedConfig()
	if err != nil {
		return nil, err
	}

	if cfg == nil {
		return nil, ErrNoSavedLayout
	}

	slog.Debug("restoring saved layout", "mode", cfg.Mode, "primary", cfg.Primary)
	return a.apply(ctx, cfg.Request(), true)
}

// Refresh detects monitors and picks between clamshell and the saved layout
// based on the lid.
func (a *App) Refresh(ctx context.Context) (*Result, error) {
	if _, err := a.Detect(ctx); err != nil {
		return nil, err
	}

	if a.Settings != nil && a.Settings.LidSwitch {
		a.State.Lid = a.lidState(ctx)
	}

	s := a.statusShouldBe()
	slog.Info("status determined", "status", s, "lid", a.State.Lid)

	switch s {
	case statusWELC:
		return a.clamshell(ctx)
	case statusOLLC:
		slog.Info("only the internal display is connected and the lid is closed; leaving layout alone")
		return nil, nil
	default:
		res, err := a.restoreDetected(ctx)
		if errors.Is(err, ErrNoSavedLayout) && a.State.Clamshell {
			return a.leaveClamshell(ctx)
		}
		return res, err
	}
}

// clamshell turns off internal panels while externals stay on. It is not saved
// since opening the lid should restore the saved layout.
func (a *App) clamshell(ctx context.Context) (*Result, error) {
	req := display.Request{Mode: display.ModeSingleExternal}

	if cfg, err := a.SavedConfig(); err == nil && cfg != nil && a.isExternal(cfg.Primary) {
		req.Target = cfg.Primary
	}

	res, err := a.apply(ctx, req, false)
	if err != nil {
		return nil, fmt.Errorf("setting clamshell mode: %w", err)
	}

	a.State.Clamshell = true
	slog.Info("clamshell mode set", "display_name", primaryName(res.Plan))
	return res, nil
}

// leaveClamshell turns every monitor back on when there is no saved layout to
// restore after clamshell. Like clamshell, the result is not saved.
func (a *App) leaveClamshell(ctx context.Context) (*Result, error) {
	req := display.Request{Mode: display.ModeExtend}
	if len(a.State.Monitors) < 2 {
		req.Mode = display.ModeSingleInternal
	}

	res, err := a.apply(ctx, req, false)
	if err != nil {
		return nil, fmt.Errorf("leaving clamshell mode: %w", err)
	}

	slog.Info("clamshell mode left without a saved layout", "mode", req.Mode)
	return res, nil
}

func (a *App) statusShouldBe() outputsStatus {
	hasExternal := false
	for _, m := range a.State.Monitors {
		if !m.Internal {
			hasExternal = true
			break
		}
	}

	switch a.State.Lid {
	case power.LidStateClosed:
		if hasExternal {
			return statusWELC
		}
		return statusOLLC
	case power.LidStateOpened:
		if hasExternal {
			return statusWELO
		}
		return statusOLLO
	default:
		return statusUnknown
	}
}

func (a *App) isExternal(name string) bool {
	for _, m := range a.State.Monitors {
		if m.Name == name {
			return !m.Internal
		}
	}
	return false
}

func (a *App) lidState(ctx context.Context) power.LidState {
	if a.deps.LidState == nil {
		return power.LidStateUnknown
	}

	st, err := a.deps.LidState(ctx)
	if err != nil {
		if !errors.Is(err, power.ErrNoLid) {
			slog.Warn("getting lid state", "error", err)
		}
		return power.LidStateUnknown
	}

	return st
}

// Reset reloads the compositor config, dropping every runtime monitor keyword.
func (a *App) Reset(ctx context.Context) error {
	if a.deps.Reloader == nil {
		return errors.New("reset not supported")
	}

	if err := a.deps.Reloader.Reload(ctx); err != nil {
		return fmt.Errorf("reloading hyprland: %w", err)
	}

	a.State.Applied = ""
	a.State.Plan = nil
	a.State.Clamshell = false
	return nil
}

func primaryName(plan display.LayoutPlan) string {
	p, _ := plan.Primary()
	return p.Name
}
