package hypr

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/dsrosen6/hyprdisplay/internal/display"
)

type (
	// Monitor matches one entry of 'hyprctl -j monitors all'.
	Monitor struct {
		ID             int64    `json:"id"`
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		Make           string   `json:"make"`
		Model          string   `json:"model"`
		Width          int64    `json:"width"`
		Height         int64    `json:"height"`
		RefreshRate    float64  `json:"refreshRate"`
		X              int64    `json:"x"`
		Y              int64    `json:"y"`
		Scale          float64  `json:"scale"`
		Transform      int64    `json:"transform"`
		Focused        bool     `json:"focused"`
		Disabled       bool     `json:"disabled"`
		MirrorOf       string   `json:"mirrorOf"`
		AvailableModes []string `json:"availableModes"`
	}

	// Detector turns hyprctl output into monitor descriptors.
	Detector struct {
		Client           *Client
		InternalPrefixes []string
	}
)

// ListMonitors returns every connected monitor, including disabled ones, so that a
// layout can re-enable them.
func (c *Client) ListMonitors(ctx context.Context) ([]Monitor, error) {
	var monitors []Monitor
	if err := c.RunCommandWithUnmarshal(ctx, []string{"monitors", "all"}, &monitors); err != nil {
		return nil, err
	}

	return monitors, nil
}

func NewDetector(c *Client, internalPrefixes []string) *Detector {
	return &Detector{
		Client:           c,
		InternalPrefixes: internalPrefixes,
	}
}

// Detect returns a fresh snapshot in hyprctl order.
func (d *Detector) Detect(ctx context.Context) ([]display.MonitorDescriptor, error) {
	monitors, err := d.Client.ListMonitors(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]display.MonitorDescriptor, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, m.Descriptor(d.InternalPrefixes))
	}

	return out, nil
}

// Descriptor converts the monitor. The first available mode is taken as the
// preferred one; a monitor that reports no modes gets its current mode.
func (m Monitor) Descriptor(internalPrefixes []string) display.MonitorDescriptor {
	d := display.MonitorDescriptor{
		Name:        m.Name,
		Description: m.Description,
		Current: display.Resolution{
			Width:   m.Width,
			Height:  m.Height,
			Refresh: roundRefresh(m.RefreshRate),
		},
		Rotation: display.RotationFromTransform(m.Transform),
		Scale:    display.NormalizeScale(m.Scale),
		X:        m.X,
		Y:        m.Y,
		Primary:  m.Focused && !m.Disabled,
		Internal: isInternal(m.Name, internalPrefixes),
	}

	d.Modes = parseModes(m.Name, m.AvailableModes)
	if len(d.Modes) == 0 && !d.Current.IsZero() {
		d.Modes = []display.Resolution{d.Current}
	}
	if len(d.Modes) > 0 {
		d.Preferred = d.Modes[0]
	}

	return d
}

func parseModes(name string, modes []string) []display.Resolution {
	var out []display.Resolution
	seen := make(map[display.Resolution]struct{}, len(modes))
	for _, s := range modes {
		r, err := display.ParseResolution(s)
		if err != nil {
			slog.Debug("skipping unparsable mode", "monitor", name, "mode", s, "error", err)
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func isInternal(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// roundRefresh matches the two decimals hyprctl uses in availableModes.
func roundRefresh(hz float64) float64 {
	return math.Round(hz*100) / 100
}
