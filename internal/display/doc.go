// Package display holds the monitor model and the layout planner.
//
// The planner turns a detection snapshot plus the user's choices (mode, ordering,
// per-monitor overrides, primary) into a LayoutPlan. It is a pure function: the same
// inputs always yield the same plan, nothing is logged and nothing outside the
// returned value is touched.
//
// Planning fails fast. The first violated rule is returned as a *LayoutError that
// unwraps to one of the package's sentinel errors, so callers can re-prompt with
// errors.Is:
//   - ErrMonitorNotFound, ErrInsufficientMonitors (mode arity)
//   - ErrUnsupportedResolution (override not in the supported set)
//   - ErrInvalidPrimary (requested primary does not participate)
//   - ErrIncompatibleMirrorResolutions (no shared mirror resolution)
package display
