package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dsrosen6/hyprdisplay/internal/display"
)

type requestFlags struct {
	mode      string
	ordering  string
	order     []string
	primary   string
	target    string
	overrides []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.mode, "mode", "m", string(display.ModeExtend), "display mode: extend, mirror, single-internal or single-external")
	fl.StringVarP(&f.ordering, "ordering", "o", "", "extend ordering: left-to-right, right-to-left, top-to-bottom or bottom-to-top")
	fl.StringSliceVar(&f.order, "order", nil, "monitor names in visual order, comma separated")
	fl.StringVarP(&f.primary, "primary", "p", "", "primary monitor")
	fl.StringVarP(&f.target, "target", "t", "", "monitor kept by the single modes")
	fl.StringArrayVar(&f.overrides, "override", nil, "per-monitor override NAME=RESOLUTION[,ROTATION] or NAME=ROTATION (repeatable)")
}

func (f *requestFlags) request() (display.Request, error) {
	mode, err := display.ParseDisplayMode(f.mode)
	if err != nil {
		return display.Request{}, err
	}

	req := display.Request{
		Mode:    mode,
		Order:   f.order,
		Primary: f.primary,
		Target:  f.target,
	}

	if f.ordering != "" {
		if req.Ordering, err = display.ParseExtendOrdering(f.ordering); err != nil {
			return display.Request{}, err
		}
	}

	for _, s := range f.overrides {
		name, ov, err := parseOverride(s)
		if err != nil {
			return display.Request{}, err
		}
		if req.Overrides == nil {
			req.Overrides = map[string]display.MonitorOverride{}
		}
		req.Overrides[name] = ov
	}

	return req, nil
}

// parseOverride reads NAME=VALUE[,VALUE] where each value is a resolution or a
// rotation.
func parseOverride(s string) (string, display.MonitorOverride, error) {
	name, rest, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || rest == "" {
		return "", display.MonitorOverride{}, fmt.Errorf("invalid override %q: want NAME=RESOLUTION[,ROTATION]", s)
	}

	var ov display.MonitorOverride
	for _, part := range strings.Split(rest, ",") {
		part = strings.TrimSpace(part)
		if r, err := display.ParseResolution(part); err == nil {
			if ov.Resolution != nil {
				return "", display.MonitorOverride{}, fmt.Errorf("override %q: resolution given twice", s)
			}
			ov.Resolution = &r
			continue
		}

		rot, err := display.ParseRotation(part)
		if err != nil {
			return "", display.MonitorOverride{}, fmt.Errorf("override %q: %q is neither a resolution nor a rotation", s, part)
		}
		if ov.Rotation != nil {
			return "", display.MonitorOverride{}, fmt.Errorf("override %q: rotation given twice", s)
		}
		ov.Rotation = &rot
	}

	return name, ov, nil
}
