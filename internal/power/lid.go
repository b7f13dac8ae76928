// Package power reports the laptop lid state from UPower over the system bus, with
// the ACPI proc file as a fallback.
package power

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/godbus/dbus/v5"
)

type LidState string

const (
	LidStateUnknown LidState = "unknown"
	LidStateOpened  LidState = "opened"
	LidStateClosed  LidState = "closed"
)

const (
	upowerDest     = "org.freedesktop.UPower"
	upowerPath     = "/org/freedesktop/UPower"
	upowerMatchIfc = "org.freedesktop.DBus.Properties"
	upowerMatchMbr = "PropertiesChanged"
	upowerMethod   = "org.freedesktop.DBus.Properties.Get"
	upowerSignal   = upowerMatchIfc + "." + upowerMatchMbr
	upowerProperty = "LidIsClosed"
	upowerPresent  = "LidIsPresent"
)

var (
	ErrNoLid = errors.New("no lid present")

	// LidStateFile is read when UPower is unavailable.
	LidStateFile = "/proc/acpi/button/lid/LID/state"
)

type Lid struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
}

// NewLid connects to the system bus. The returned Lid must be closed.
func NewLid() (*Lid, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connecting to system bus: %w", err)
	}

	return &Lid{
		conn:    conn,
		signals: make(chan *dbus.Signal, 10),
	}, nil
}

func (l *Lid) Close() error {
	return l.conn.Close()
}

// Present reports whether UPower knows about a lid at all.
func (l *Lid) Present(ctx context.Context) (bool, error) {
	v, err := l.getProperty(ctx, upowerPresent)
	if err != nil {
		return false, err
	}

	present, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected type for %s: %s", upowerPresent, v.Signature())
	}
	return present, nil
}

func (l *Lid) State(ctx context.Context) (LidState, error) {
	v, err := l.getProperty(ctx, upowerProperty)
	if err != nil {
		return LidStateUnknown, err
	}
	return stateFromVariant(v)
}

// Watch sends the lid state every time it changes until ctx ends.
func (l *Lid) Watch(ctx context.Context, out chan<- LidState) error {
	if err := l.conn.AddMatchSignalContext(
		ctx, dbus.WithMatchInterface(upowerMatchIfc), dbus.WithMatchMember(upowerMatchMbr),
		dbus.WithMatchObjectPath(dbus.ObjectPath(upowerPath)),
	); err != nil {
		return fmt.Errorf("adding dbus match rule: %w", err)
	}

	l.conn.Signal(l.signals)
	defer l.conn.RemoveSignal(l.signals)

	last, err := l.State(ctx)
	if err != nil {
		slog.Warn("lid watcher: reading initial state", "error", err)
	}

	for {
		select {
		case sig, ok := <-l.signals:
			if !ok {
				return errors.New("signals channel closed")
			}

			if !shouldHandleSignal(sig) {
				continue
			}

			current, err := l.State(ctx)
			if err != nil {
				return fmt.Errorf("getting current lid state: %w", err)
			}

			if current == last {
				continue
			}

			select {
			case out <- current:
				last = current
			case <-ctx.Done():
				return ctx.Err()
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Lid) getProperty(ctx context.Context, prop string) (dbus.Variant, error) {
	obj := l.conn.Object(upowerDest, upowerPath)
	var result dbus.Variant
	if err := obj.CallWithContext(ctx, upowerMethod, 0, upowerDest, prop).Store(&result); err != nil {
		return dbus.Variant{}, fmt.Errorf("getting %s: %w", prop, err)
	}
	return result, nil
}

func stateFromVariant(v dbus.Variant) (LidState, error) {
	closed, ok := v.Value().(bool)
	if !ok {
		return LidStateUnknown, fmt.Errorf("unexpected type for %s: %s", upowerProperty, v.Signature())
	}
	if closed {
		return LidStateClosed, nil
	}
	return LidStateOpened, nil
}

func shouldHandleSignal(sig *dbus.Signal) bool {
	if sig == nil || sig.Name != upowerSignal {
		return false
	}

	if len(sig.Body) < 2 {
		return false
	}

	if changed, ok := sig.Body[1].(map[string]dbus.Variant); ok {
		if _, exists := changed[upowerProperty]; exists {
			return true
		}
	}

	if len(sig.Body) >= 3 {
		if invalidated, ok := sig.Body[2].([]string); ok {
			if slices.Contains(invalidated, upowerProperty) {
				return true
			}
		}
	}

	return false
}

// ReadLidFile reads the ACPI lid state file.
func ReadLidFile(path string) (LidState, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return LidStateUnknown, ErrNoLid
		}
		return LidStateUnknown, fmt.Errorf("reading lid state file: %w", err)
	}

	return parseLidFile(string(b)), nil
}

func parseLidFile(s string) LidState {
	s = strings.ToLower(s)
	switch {
	case strings.Contains(s, "open"):
		return LidStateOpened
	case strings.Contains(s, "closed"):
		return LidStateClosed
	default:
		return LidStateUnknown
	}
}

// ParseLidState accepts the values written by String.
func ParseLidState(s string) LidState {
	switch LidState(s) {
	case LidStateOpened, LidStateClosed:
		return LidState(s)
	default:
		return LidStateUnknown
	}
}

func (s LidState) String() string {
	return string(s)
}

// CurrentLidState asks UPower first and falls back to the ACPI file.
func CurrentLidState(ctx context.Context) (LidState, error) {
	l, err := NewLid()
	if err == nil {
		defer func() {
			if err := l.Close(); err != nil {
				slog.Error("closing system bus connection", "error", err)
			}
		}()

		st, err := l.State(ctx)
		if err == nil {
			return st, nil
		}
		slog.Debug("upower lid state unavailable", "error", err)
	} else {
		slog.Debug("system bus unavailable", "error", err)
	}

	return ReadLidFile(LidStateFile)
}
