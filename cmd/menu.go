package cmd

import (
	"errors"
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/dsrosen6/hyprdisplay/internal/app"
	"github.com/dsrosen6/hyprdisplay/internal/config"
	"github.com/dsrosen6/hyprdisplay/internal/display"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick a layout interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := detected(cmd.Context())
		if err != nil {
			return err
		}

		for {
			req, err := pickRequest(a)
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}

			res, err := a.Preview(req)
			if err != nil {
				// Planning errors go back to the user for another choice.
				PrintError(err.Error())
				continue
			}

			ok, err := confirmApply(res.Text)
			if err != nil {
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				return err
			}
			if !ok {
				continue
			}

			res, err = a.Apply(cmd.Context(), req)
			if err != nil {
				return err
			}

			printResult(res)
			return nil
		}
	},
}

// menuChoices holds the form values, seeded from the saved layout.
type menuChoices struct {
	mode     string
	ordering string
	order    []string
	primary  string
	target   string

	// resolution holds a physical mode string per monitor; empty means preferred.
	resolution map[string]*string
	rotation   map[string]*string
	detected   map[string]display.Rotation

	// keepRotation marks monitors whose saved rotation override must be carried
	// into the request even when it matches the detected rotation.
	keepRotation map[string]bool
}

func pickRequest(a *app.App) (display.Request, error) {
	names := a.MonitorNames()
	saved, err := a.SavedConfig()
	if err != nil {
		printWarning(err.Error())
	}

	c := newMenuChoices(a.State.Monitors, saved)

	if err := form(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Display mode").
			Options(modeOptions(len(names))...).
			Value(&c.mode),
	)).Run(); err != nil {
		return display.Request{}, fmt.Errorf("running mode selection form: %w", err)
	}

	mode := display.DisplayMode(c.mode)
	if mode.Single() && (saved == nil || saved.Mode != mode) {
		c.target = defaultTarget(a.State.Monitors, mode)
	}

	var groups []*huh.Group

	switch {
	case mode.Single():
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Keep which display on").
				Options(huh.NewOptions(names...)...).
				Value(&c.target),
		))

	case mode == display.ModeExtend:
		orderings := make([]string, 0, len(display.Orderings))
		for _, o := range display.Orderings {
			orderings = append(orderings, string(o))
		}
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Arrangement").
				Options(huh.NewOptions(orderings...)...).
				Value(&c.ordering),
		))
		groups = append(groups, orderGroup(names, c.order))
		fallthrough

	default:
		groups = append(groups, huh.NewGroup(
			huh.NewSelect[string]().
				Title("Primary display").
				Options(huh.NewOptions(names...)...).
				Value(&c.primary),
		))
	}

	groups = append(groups, resolutionGroup(a.State.Monitors, c.resolution))
	groups = append(groups, rotationGroup(names, c.rotation))

	if err := form(groups...).Run(); err != nil {
		return display.Request{}, fmt.Errorf("running layout form: %w", err)
	}

	return c.request(mode)
}

func newMenuChoices(monitors []display.MonitorDescriptor, saved *config.PersistedConfig) *menuChoices {
	names := make([]string, 0, len(monitors))
	for _, m := range monitors {
		names = append(names, m.Name)
	}

	c := &menuChoices{
		mode:         string(display.ModeExtend),
		ordering:     string(display.LeftToRight),
		order:        slices.Clone(names),
		resolution:   map[string]*string{},
		rotation:     map[string]*string{},
		detected:     map[string]display.Rotation{},
		keepRotation: map[string]bool{},
	}
	if len(names) > 0 {
		c.primary = names[0]
		c.target = names[0]
	}
	for _, m := range monitors {
		r := m.Rotation.String()
		res := ""
		c.rotation[m.Name] = &r
		c.resolution[m.Name] = &res
		c.detected[m.Name] = m.Rotation
	}

	if saved == nil {
		return c
	}

	c.mode = string(saved.Mode)
	if saved.Ordering != "" {
		c.ordering = string(saved.Ordering)
	}
	if saved.Primary != "" {
		c.primary = saved.Primary
	}
	if saved.Target != "" {
		c.target = saved.Target
	}
	if len(saved.Order) > 0 {
		var order []string
		for _, n := range saved.Order {
			if slices.Contains(names, n) && !slices.Contains(order, n) {
				order = append(order, n)
			}
		}
		for _, n := range names {
			if !slices.Contains(order, n) {
				order = append(order, n)
			}
		}
		c.order = order
	}
	for _, m := range monitors {
		ov, ok := saved.Overrides[m.Name]
		if !ok {
			continue
		}

		rot := m.Rotation
		if ov.Rotation != nil {
			rot = *ov.Rotation
			*c.rotation[m.Name] = rot.String()
			c.keepRotation[m.Name] = true
		}

		// Saved resolutions are in the rotated orientation; the picker lists
		// physical modes.
		if ov.Resolution != nil {
			if mode, ok := m.Supports(*ov.Resolution, rot); ok {
				*c.resolution[m.Name] = mode.String()
			}
		}
	}

	return c
}

// orderGroup asks for the monitor at each position. Repeated picks are dropped and
// unpicked monitors follow in detection order.
func orderGroup(names, order []string) *huh.Group {
	var fields []huh.Field
	for i := range order {
		pos := i
		fields = append(fields, huh.NewSelect[string]().
			Title(fmt.Sprintf("Position %d", pos+1)).
			Options(huh.NewOptions(names...)...).
			Value(&order[pos]))
	}
	return huh.NewGroup(fields...)
}

func rotationGroup(names []string, rotation map[string]*string) *huh.Group {
	opts := make([]string, 0, len(display.Rotations))
	for _, r := range display.Rotations {
		opts = append(opts, r.String())
	}

	var fields []huh.Field
	for _, n := range names {
		fields = append(fields, huh.NewSelect[string]().
			Title(fmt.Sprintf("Rotation for %s", n)).
			Options(huh.NewOptions(opts...)...).
			Value(rotation[n]))
	}
	return huh.NewGroup(fields...)
}

const preferredOption = "preferred"

func resolutionGroup(monitors []display.MonitorDescriptor, resolution map[string]*string) *huh.Group {
	var fields []huh.Field
	for _, m := range monitors {
		opts := []huh.Option[string]{huh.NewOption(preferredOption, "")}
		for _, mode := range m.Modes {
			s := mode.String()
			opts = append(opts, huh.NewOption(s, s))
		}

		fields = append(fields, huh.NewSelect[string]().
			Title(fmt.Sprintf("Resolution for %s", m.Name)).
			Options(opts...).
			Value(resolution[m.Name]))
	}
	return huh.NewGroup(fields...)
}

func defaultTarget(monitors []display.MonitorDescriptor, mode display.DisplayMode) string {
	wantInternal := mode == display.ModeSingleInternal
	for _, m := range monitors {
		if m.Internal == wantInternal {
			return m.Name
		}
	}
	if len(monitors) > 0 {
		return monitors[0].Name
	}
	return ""
}

func (c *menuChoices) request(mode display.DisplayMode) (display.Request, error) {
	req := display.Request{Mode: mode}

	switch {
	case mode.Single():
		req.Target = c.target
	case mode == display.ModeExtend:
		ordering, err := display.ParseExtendOrdering(c.ordering)
		if err != nil {
			return display.Request{}, err
		}
		req.Ordering = ordering
		req.Order = compactOrder(c.order)
		req.Primary = c.primary
	default:
		req.Primary = c.primary
	}

	for n, s := range c.rotation {
		ov, err := c.override(n, *s)
		if err != nil {
			return display.Request{}, err
		}
		if ov.Rotation == nil && ov.Resolution == nil {
			continue
		}
		if req.Overrides == nil {
			req.Overrides = map[string]display.MonitorOverride{}
		}
		req.Overrides[n] = ov
	}

	return req, nil
}

// override builds the override for one monitor. A rotation is kept when it differs
// from the detected one or came from the saved layout; a picked mode is always kept.
func (c *menuChoices) override(name, rotation string) (display.MonitorOverride, error) {
	var ov display.MonitorOverride

	rot, err := display.ParseRotation(rotation)
	if err != nil {
		return ov, err
	}
	if rot != c.detected[name] || c.keepRotation[name] {
		ov.Rotation = &rot
	}

	if s, ok := c.resolution[name]; ok && *s != "" {
		mode, err := display.ParseResolution(*s)
		if err != nil {
			return ov, fmt.Errorf("monitor %s: %w", name, err)
		}
		if rot.Swaps() {
			mode = mode.Swapped()
		}
		ov.Resolution = &mode
	}

	return ov, nil
}

// compactOrder drops repeated picks, keeping the first position of each name.
func compactOrder(order []string) []string {
	var out []string
	for _, n := range order {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func modeOptions(monitors int) []huh.Option[string] {
	var opts []huh.Option[string]
	for _, m := range display.Modes {
		if !m.Single() && monitors < 2 {
			continue
		}
		opts = append(opts, huh.NewOption(string(m), string(m)))
	}
	return opts
}

func confirmApply(text string) (bool, error) {
	ok := true
	err := form(huh.NewGroup(
		huh.NewConfirm().
			Title("Apply this layout?").
			Description(text).
			Value(&ok),
	)).Run()
	if err != nil {
		return false, fmt.Errorf("running confirmation form: %w", err)
	}
	return ok, nil
}

func form(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).
		WithTheme(huh.ThemeBase())
}
