package listener

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dsrosen6/hyprdisplay/internal/hypr"
)

var monitorEvents = map[string]EventType{
	hypr.MonitorAdded:   DisplayAddEvent,
	hypr.MonitorRemoved: DisplayRemoveEvent,
}

func (l *Listener) listenHyprland(ctx context.Context, events chan<- Event) error {
	raw := make(chan hypr.Event, 8)
	errc := make(chan error, 1)
	go func() {
		errc <- l.hypr.ListenForEvents(ctx, raw)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if err == nil && ctx.Err() == nil {
				return errors.New("event socket closed")
			}
			return err
		case ev := <-raw:
			et, ok := monitorEvents[ev.Name]
			if !ok {
				slog.Debug("hyprland listener: ignoring event", "name", ev.Name)
				continue
			}

			if !send(ctx, events, Event{Type: et, Details: ev.Monitor}) {
				return nil
			}
		}
	}
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
