package display

import (
	"slices"
)

// Request carries the choices for one planning call.
type Request struct {
	Mode DisplayMode

	// Ordering applies to ModeExtend only and defaults to LeftToRight.
	Ordering ExtendOrdering

	// Order lists monitor names in the visual order chosen by the user. Monitors
	// missing from it follow in detection order.
	Order []string

	Overrides map[string]MonitorOverride

	// Primary is optional. When empty the first monitor in the extend order, the
	// single monitor, or the first name in ascending order for mirror is used.
	Primary string

	// Target names the monitor kept by the single modes. When empty the first
	// internal (or external) monitor in detection order is used.
	Target string
}

type participant struct {
	desc     MonitorDescriptor
	mode     Resolution
	rotation Rotation
	pinned   bool
}

// Plan computes a layout for the detected monitors. It never returns a partial plan.
func Plan(monitors []MonitorDescriptor, req Request) (LayoutPlan, error) {
	if err := validateSnapshot(monitors); err != nil {
		return LayoutPlan{}, err
	}

	if !req.Mode.Valid() {
		return LayoutPlan{}, layoutErr(ErrUnknownMode, "", "%q", req.Mode)
	}

	ordering := ExtendOrdering("")
	if req.Mode == ModeExtend {
		ordering = req.Ordering
		if ordering == "" {
			ordering = LeftToRight
		}
		if !ordering.Valid() {
			return LayoutPlan{}, layoutErr(ErrUnknownOrdering, "", "%q", req.Ordering)
		}
	}

	descs, err := selectParticipants(monitors, req)
	if err != nil {
		return LayoutPlan{}, err
	}

	parts, err := resolveParticipants(descs, req.Overrides)
	if err != nil {
		return LayoutPlan{}, err
	}

	primary, err := resolvePrimary(parts, req)
	if err != nil {
		return LayoutPlan{}, err
	}

	plan := LayoutPlan{
		Mode:     req.Mode,
		Ordering: ordering,
	}

	switch req.Mode {
	case ModeExtend:
		plan.Monitors = placeExtend(parts, ordering, primary)
	case ModeMirror:
		placed, err := placeMirror(parts, primary)
		if err != nil {
			return LayoutPlan{}, err
		}
		plan.Monitors = placed
	default:
		pm := parts[0].placed(primary)
		pm.Scale = NormalizeScale(parts[0].desc.Scale)
		plan.Monitors = []PlacedMonitor{pm}
	}

	return plan, nil
}

func validateSnapshot(monitors []MonitorDescriptor) error {
	seen := newSet[string]()
	for _, m := range monitors {
		if m.Name == "" {
			return layoutErr(ErrInvalidDescriptor, "", "empty monitor name")
		}
		if seen.contains(m.Name) {
			return layoutErr(ErrInvalidDescriptor, m.Name, "duplicate monitor name")
		}
		seen.add(m.Name)

		if len(m.Modes) == 0 {
			return layoutErr(ErrInvalidDescriptor, m.Name, "no supported resolutions")
		}
		if !m.Rotation.Valid() {
			return layoutErr(ErrInvalidRotation, m.Name, "detected rotation %d", m.Rotation)
		}
	}

	return nil
}

func selectParticipants(monitors []MonitorDescriptor, req Request) ([]MonitorDescriptor, error) {
	switch req.Mode {
	case ModeSingleInternal, ModeSingleExternal:
		t, err := singleTarget(monitors, req)
		if err != nil {
			return nil, err
		}
		return []MonitorDescriptor{t}, nil
	}

	if len(monitors) < 2 {
		return nil, layoutErr(ErrInsufficientMonitors, "", "%s needs at least 2 monitors, got %d", req.Mode, len(monitors))
	}

	if req.Mode == ModeExtend {
		return orderMonitors(monitors, req.Order)
	}

	return slices.Clone(monitors), nil
}

func singleTarget(monitors []MonitorDescriptor, req Request) (MonitorDescriptor, error) {
	if req.Target != "" {
		for _, m := range monitors {
			if m.Name == req.Target {
				return m, nil
			}
		}
		return MonitorDescriptor{}, layoutErr(ErrMonitorNotFound, req.Target, "")
	}

	wantInternal := req.Mode == ModeSingleInternal
	for _, m := range monitors {
		if m.Internal == wantInternal {
			return m, nil
		}
	}

	kind := "external"
	if wantInternal {
		kind = "internal"
	}
	return MonitorDescriptor{}, layoutErr(ErrMonitorNotFound, "", "no %s monitor detected", kind)
}

// orderMonitors sorts monitors by the caller's order vector, appending the rest in
// detection order. Names that were not detected fail the plan.
func orderMonitors(monitors []MonitorDescriptor, order []string) ([]MonitorDescriptor, error) {
	byName := make(map[string]MonitorDescriptor, len(monitors))
	for _, m := range monitors {
		byName[m.Name] = m
	}

	used := newSet[string]()
	out := make([]MonitorDescriptor, 0, len(monitors))
	for _, name := range order {
		if used.contains(name) {
			continue
		}
		m, ok := byName[name]
		if !ok {
			return nil, layoutErr(ErrMonitorNotFound, name, "named in monitor order")
		}
		used.add(name)
		out = append(out, m)
	}

	for _, m := range monitors {
		if !used.contains(m.Name) {
			out = append(out, m)
		}
	}

	return out, nil
}

func resolveParticipants(descs []MonitorDescriptor, overrides map[string]MonitorOverride) ([]participant, error) {
	parts := make([]participant, 0, len(descs))
	for _, d := range descs {
		p := participant{
			desc:     d,
			mode:     d.PreferredMode(),
			rotation: d.Rotation,
		}

		ov, ok := overrides[d.Name]
		if ok && ov.Rotation != nil {
			if !ov.Rotation.Valid() {
				return nil, layoutErr(ErrInvalidRotation, d.Name, "override rotation %d", *ov.Rotation)
			}
			p.rotation = *ov.Rotation
		}

		if ok && ov.Resolution != nil {
			m, found := d.Supports(*ov.Resolution, p.rotation)
			if !found {
				return nil, layoutErr(ErrUnsupportedResolution, d.Name, "%s at rotation %s", ov.Resolution, p.rotation)
			}
			p.mode = m
			p.pinned = true
		}

		parts = append(parts, p)
	}

	return parts, nil
}

func resolvePrimary(parts []participant, req Request) (string, error) {
	if req.Primary != "" {
		for _, p := range parts {
			if p.desc.Name == req.Primary {
				return req.Primary, nil
			}
		}
		return "", layoutErr(ErrInvalidPrimary, req.Primary, "not participating in %s", req.Mode)
	}

	if req.Mode == ModeMirror {
		first := parts[0].desc.Name
		for _, p := range parts[1:] {
			if p.desc.Name < first {
				first = p.desc.Name
			}
		}
		return first, nil
	}

	return parts[0].desc.Name, nil
}

// placeExtend lays monitors end to end along the ordering axis starting at the
// origin. Reversed orderings are placed back to front so the first monitor in the
// user's order ends up rightmost (or bottommost).
func placeExtend(parts []participant, ordering ExtendOrdering, primary string) []PlacedMonitor {
	seq := parts
	if ordering.reversed() {
		seq = slices.Clone(parts)
		slices.Reverse(seq)
	}

	var offset int64
	placed := make([]PlacedMonitor, 0, len(seq))
	for _, p := range seq {
		pm := p.placed(primary)
		w, h := pm.Size()
		if ordering.vertical() {
			pm.Y = offset
			offset += h
		} else {
			pm.X = offset
			offset += w
		}
		placed = append(placed, pm)
	}

	return placed
}

// placeMirror puts every monitor at the origin with one shared resolution and the
// primary's scale. The primary comes first and the others mirror it.
func placeMirror(parts []participant, primary string) ([]PlacedMonitor, error) {
	size, err := mirrorSize(parts, primary)
	if err != nil {
		return nil, err
	}

	var scale float64
	ordered := make([]participant, 0, len(parts))
	for _, p := range parts {
		if p.desc.Name == primary {
			ordered = append(ordered, p)
			scale = NormalizeScale(p.desc.Scale)
		}
	}
	for _, p := range parts {
		if p.desc.Name != primary {
			ordered = append(ordered, p)
		}
	}

	placed := make([]PlacedMonitor, 0, len(ordered))
	for _, p := range ordered {
		pm := p.placed(primary)
		pm.Scale = scale
		if !p.logical().SameSize(size) {
			mode, ok := p.desc.Supports(size, p.rotation)
			if !ok {
				return nil, layoutErr(ErrIncompatibleMirrorResolutions, p.desc.Name, "does not support %s", size)
			}
			pm.Resolution = mode
		}
		if pm.Name != primary {
			pm.MirrorOf = primary
		}
		placed = append(placed, pm)
	}

	return placed, nil
}

// mirrorSize picks the shared rotated size for a mirror plan. Pinned overrides
// must agree and win (the primary's pin first); otherwise the smallest effective
// size is used, or the largest size every monitor supports below it.
func mirrorSize(parts []participant, primary string) (Resolution, error) {
	var pinned []participant
	for _, p := range parts {
		if p.pinned {
			pinned = append(pinned, p)
		}
	}

	if len(pinned) > 0 {
		target := pinned[0].logical()
		for _, p := range pinned {
			if p.desc.Name == primary {
				target = p.logical()
			}
		}

		for _, p := range pinned {
			if !p.logical().SameSize(target) {
				return Resolution{}, layoutErr(ErrIncompatibleMirrorResolutions, p.desc.Name,
					"pinned %s, mirror needs %s", p.logical(), target)
			}
		}

		for _, p := range parts {
			if _, ok := p.desc.Supports(target, p.rotation); !ok {
				return Resolution{}, layoutErr(ErrIncompatibleMirrorResolutions, p.desc.Name, "does not support %s", target)
			}
		}

		return target, nil
	}

	target := parts[0].logical()
	for _, p := range parts[1:] {
		if l := p.logical(); smaller(l, target) {
			target = l
		}
	}

	if supportedByAll(parts, target) {
		return target, nil
	}

	var best Resolution
	found := false
	ref := parts[0]
	for _, m := range ref.desc.Modes {
		l := sizeOnly(m, ref.rotation)
		if l.Width > target.Width || l.Height > target.Height {
			continue
		}
		if !supportedByAll(parts, l) {
			continue
		}
		if !found || smaller(best, l) {
			best = l
			found = true
		}
	}

	if !found {
		return Resolution{}, layoutErr(ErrIncompatibleMirrorResolutions, "", "no resolution shared by all monitors at or below %s", target)
	}

	return best, nil
}

func supportedByAll(parts []participant, size Resolution) bool {
	for _, p := range parts {
		if _, ok := p.desc.Supports(size, p.rotation); !ok {
			return false
		}
	}
	return true
}

// smaller orders sizes by area, then width, then height.
func smaller(a, b Resolution) bool {
	if a.Area() != b.Area() {
		return a.Area() < b.Area()
	}
	if a.Width != b.Width {
		return a.Width < b.Width
	}
	return a.Height < b.Height
}

func sizeOnly(mode Resolution, rot Rotation) Resolution {
	if rot.Swaps() {
		return Resolution{Width: mode.Height, Height: mode.Width}
	}
	return Resolution{Width: mode.Width, Height: mode.Height}
}

func (p participant) logical() Resolution {
	return sizeOnly(p.mode, p.rotation)
}

func (p participant) placed(primary string) PlacedMonitor {
	return PlacedMonitor{
		Name:       p.desc.Name,
		Resolution: p.mode,
		Rotation:   p.rotation,
		Primary:    p.desc.Name == primary,
	}
}
