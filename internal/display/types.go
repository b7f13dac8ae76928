package display

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type (
	// Resolution is a display mode. Refresh is in Hz; zero means "any refresh rate".
	Resolution struct {
		Width   int64
		Height  int64
		Refresh float64
	}

	// Rotation is a clockwise rotation in degrees.
	Rotation int

	// MonitorDescriptor is an immutable snapshot of one detected display. Modes is
	// the supported set in detector order.
	MonitorDescriptor struct {
		Name        string
		Description string
		Modes       []Resolution
		Preferred   Resolution
		Current     Resolution
		Rotation    Rotation

		// Scale is the detected fractional scale; zero means unscaled.
		Scale    float64
		X        int64
		Y        int64
		Primary  bool
		Internal bool
	}

	DisplayMode    string
	ExtendOrdering string

	// MonitorOverride is a user choice superseding detected defaults. The resolution
	// is given in the rotated orientation, e.g. 1080x1920 for a 1920x1080 panel
	// turned 90 degrees.
	MonitorOverride struct {
		Resolution *Resolution `json:"resolution,omitempty" yaml:"resolution,omitempty"`
		Rotation   *Rotation   `json:"rotation,omitempty" yaml:"rotation,omitempty"`
	}

	// PlacedMonitor is one participating monitor in a plan. Resolution is the mode
	// as it appears in the monitor's supported set; Size gives the rotated extent.
	// A zero Scale renders as 1; extend positions are in unscaled pixels.
	PlacedMonitor struct {
		Name       string     `json:"name" yaml:"name"`
		Resolution Resolution `json:"resolution" yaml:"resolution"`
		Rotation   Rotation   `json:"rotation" yaml:"rotation"`
		Scale      float64    `json:"scale,omitempty" yaml:"scale,omitempty"`
		X          int64      `json:"x" yaml:"x"`
		Y          int64      `json:"y" yaml:"y"`
		Primary    bool       `json:"primary" yaml:"primary"`
		MirrorOf   string     `json:"mirror_of,omitempty" yaml:"mirror_of,omitempty"`
	}

	// LayoutPlan is the resolved arrangement. Monitors not listed are disabled.
	LayoutPlan struct {
		Mode     DisplayMode     `json:"mode" yaml:"mode"`
		Ordering ExtendOrdering  `json:"ordering,omitempty" yaml:"ordering,omitempty"`
		Monitors []PlacedMonitor `json:"monitors" yaml:"monitors"`
	}
)

const (
	RotationNone Rotation = 0
	Rotation90   Rotation = 90
	Rotation180  Rotation = 180
	Rotation270  Rotation = 270
)

const (
	ModeSingleInternal DisplayMode = "single-internal"
	ModeSingleExternal DisplayMode = "single-external"
	ModeMirror         DisplayMode = "mirror"
	ModeExtend         DisplayMode = "extend"
)

const (
	LeftToRight ExtendOrdering = "left-to-right"
	RightToLeft ExtendOrdering = "right-to-left"
	TopToBottom ExtendOrdering = "top-to-bottom"
	BottomToTop ExtendOrdering = "bottom-to-top"
)

var (
	Modes     = []DisplayMode{ModeExtend, ModeMirror, ModeSingleInternal, ModeSingleExternal}
	Orderings = []ExtendOrdering{LeftToRight, RightToLeft, TopToBottom, BottomToTop}
	Rotations = []Rotation{RotationNone, Rotation90, Rotation180, Rotation270}
)

// refreshTolerance absorbs the rounding in hyprctl's two-decimal refresh rates.
const refreshTolerance = 0.005

// ParseResolution accepts "1920x1080", "1920x1080@60", "1920x1080@59.95" and the
// hyprctl form "1920x1080@59.95Hz".
func ParseResolution(s string) (Resolution, error) {
	s = strings.TrimSpace(s)
	size, rate, hasRate := strings.Cut(s, "@")

	w, h, ok := strings.Cut(size, "x")
	if !ok {
		return Resolution{}, fmt.Errorf("invalid resolution %q", s)
	}

	width, err := strconv.ParseInt(w, 10, 64)
	if err != nil || width <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution width %q", s)
	}

	height, err := strconv.ParseInt(h, 10, 64)
	if err != nil || height <= 0 {
		return Resolution{}, fmt.Errorf("invalid resolution height %q", s)
	}

	r := Resolution{Width: width, Height: height}
	if hasRate {
		rate = strings.TrimSuffix(strings.TrimSuffix(rate, "Hz"), "hz")
		hz, err := strconv.ParseFloat(rate, 64)
		if err != nil || hz < 0 {
			return Resolution{}, fmt.Errorf("invalid refresh rate %q", s)
		}
		r.Refresh = hz
	}

	return r, nil
}

func (r Resolution) String() string {
	size := fmt.Sprintf("%dx%d", r.Width, r.Height)
	if r.Refresh == 0 {
		return size
	}
	return size + "@" + strconv.FormatFloat(r.Refresh, 'f', 2, 64)
}

func (r Resolution) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Resolution) UnmarshalText(b []byte) error {
	p, err := ParseResolution(string(b))
	if err != nil {
		return err
	}
	*r = p
	return nil
}

func (r Resolution) IsZero() bool {
	return r.Width == 0 && r.Height == 0
}

func (r Resolution) Swapped() Resolution {
	return Resolution{Width: r.Height, Height: r.Width, Refresh: r.Refresh}
}

func (r Resolution) SameSize(o Resolution) bool {
	return r.Width == o.Width && r.Height == o.Height
}

func (r Resolution) Area() int64 {
	return r.Width * r.Height
}

// matches reports whether r selects mode m. A zero refresh on r matches any rate.
func (r Resolution) matches(m Resolution) bool {
	if !r.SameSize(m) {
		return false
	}
	return r.Refresh == 0 || math.Abs(r.Refresh-m.Refresh) < refreshTolerance
}

func (r Rotation) Valid() bool {
	switch r {
	case RotationNone, Rotation90, Rotation180, Rotation270:
		return true
	default:
		return false
	}
}

// Swaps reports whether the rotation exchanges width and height.
func (r Rotation) Swaps() bool {
	return r == Rotation90 || r == Rotation270
}

// Transform is the Hyprland transform index for the rotation.
func (r Rotation) Transform() int {
	return int(r) / 90
}

// RotationFromTransform maps a Hyprland transform to a rotation. Flipped
// transforms (4-7) keep their rotation component.
func RotationFromTransform(t int64) Rotation {
	return Rotation((((t % 4) + 4) % 4) * 90)
}

// ParseRotation accepts degrees or the names normal, left, inverted and right.
func ParseRotation(s string) (Rotation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "normal", "none":
		return RotationNone, nil
	case "90", "left":
		return Rotation90, nil
	case "180", "inverted":
		return Rotation180, nil
	case "270", "right":
		return Rotation270, nil
	default:
		return RotationNone, fmt.Errorf("%w: %q", ErrInvalidRotation, s)
	}
}

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "normal"
	case Rotation90:
		return "left"
	case Rotation180:
		return "inverted"
	case Rotation270:
		return "right"
	default:
		return strconv.Itoa(int(r))
	}
}

func ParseDisplayMode(s string) (DisplayMode, error) {
	m := DisplayMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

func (m DisplayMode) Valid() bool {
	switch m {
	case ModeSingleInternal, ModeSingleExternal, ModeMirror, ModeExtend:
		return true
	default:
		return false
	}
}

func (m DisplayMode) Single() bool {
	return m == ModeSingleInternal || m == ModeSingleExternal
}

func ParseExtendOrdering(s string) (ExtendOrdering, error) {
	o := ExtendOrdering(strings.ToLower(strings.TrimSpace(s)))
	if !o.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownOrdering, s)
	}
	return o, nil
}

func (o ExtendOrdering) Valid() bool {
	switch o {
	case LeftToRight, RightToLeft, TopToBottom, BottomToTop:
		return true
	default:
		return false
	}
}

func (o ExtendOrdering) vertical() bool {
	return o == TopToBottom || o == BottomToTop
}

func (o ExtendOrdering) reversed() bool {
	return o == RightToLeft || o == BottomToTop
}

// PreferredMode returns the native resolution, falling back to the first supported mode.
func (d MonitorDescriptor) PreferredMode() Resolution {
	if !d.Preferred.IsZero() {
		return d.Preferred
	}
	if len(d.Modes) > 0 {
		return d.Modes[0]
	}
	return d.Current
}

// Supports looks up a resolution given in the rotated orientation and returns the
// matching supported mode.
func (d MonitorDescriptor) Supports(res Resolution, rot Rotation) (Resolution, bool) {
	want := res
	if rot.Swaps() {
		want = res.Swapped()
	}

	for _, m := range d.Modes {
		if want.matches(m) {
			return m, true
		}
	}

	return Resolution{}, false
}

// NormalizeScale maps an unscaled value (zero, negative or 1) to zero.
func NormalizeScale(s float64) float64 {
	if s <= 0 || s == 1 {
		return 0
	}
	return s
}

// Size returns the monitor's extent after rotation.
func (p PlacedMonitor) Size() (int64, int64) {
	if p.Rotation.Swaps() {
		return p.Resolution.Height, p.Resolution.Width
	}
	return p.Resolution.Width, p.Resolution.Height
}

func (p PlacedMonitor) Rect() Rect {
	w, h := p.Size()
	return Rect{X: p.X, Y: p.Y, W: w, H: h}
}

// Primary returns the plan's primary monitor.
func (p LayoutPlan) Primary() (PlacedMonitor, bool) {
	for _, m := range p.Monitors {
		if m.Primary {
			return m, true
		}
	}
	return PlacedMonitor{}, false
}

func (p LayoutPlan) Names() []string {
	names := make([]string, 0, len(p.Monitors))
	for _, m := range p.Monitors {
		names = append(names, m.Name)
	}
	return names
}

// Contains reports whether the named monitor is enabled by the plan.
func (p LayoutPlan) Contains(name string) bool {
	for _, m := range p.Monitors {
		if m.Name == name {
			return true
		}
	}
	return false
}
