package display

import (
	"errors"
	"fmt"
)

// Rect is an axis-aligned rectangle in layout coordinates.
type Rect struct {
	X, Y, W, H int64
}

func (r Rect) Right() int64  { return r.X + r.W }
func (r Rect) Bottom() int64 { return r.Y + r.H }

// Overlaps reports whether the rectangles share any area. Touching edges do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

type set[E comparable] map[E]struct{}

func newSet[E comparable]() set[E] {
	return set[E]{}
}

func (s set[E]) contains(v E) bool {
	_, ok := s[v]
	return ok
}

func (s set[E]) add(vals ...E) {
	for _, v := range vals {
		s[v] = struct{}{}
	}
}

// Validate checks the structural invariants of a plan: unique names, exactly one
// primary, shared origin for mirror, disjoint rectangles for extend, and a single
// monitor for single modes. It is used on plans read back from rendered text.
func (p LayoutPlan) Validate() error {
	if !p.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMode, p.Mode)
	}
	if len(p.Monitors) == 0 {
		return errors.New("plan has no monitors")
	}

	seen := newSet[string]()
	primaries := 0
	for _, m := range p.Monitors {
		if seen.contains(m.Name) {
			return fmt.Errorf("duplicate monitor %s", m.Name)
		}
		seen.add(m.Name)
		if m.Primary {
			primaries++
		}
	}
	if primaries != 1 {
		return fmt.Errorf("plan has %d primary monitors, want 1", primaries)
	}

	switch p.Mode {
	case ModeSingleInternal, ModeSingleExternal:
		if len(p.Monitors) != 1 {
			return fmt.Errorf("single mode plan has %d monitors", len(p.Monitors))
		}
	case ModeMirror:
		for _, m := range p.Monitors {
			if m.X != 0 || m.Y != 0 {
				return fmt.Errorf("mirrored monitor %s is not at the origin", m.Name)
			}
		}
	case ModeExtend:
		for i := range p.Monitors {
			for j := i + 1; j < len(p.Monitors); j++ {
				if p.Monitors[i].Rect().Overlaps(p.Monitors[j].Rect()) {
					return fmt.Errorf("monitors %s and %s overlap", p.Monitors[i].Name, p.Monitors[j].Name)
				}
			}
		}
	}

	return nil
}
