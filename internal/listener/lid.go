package listener

import (
	"context"
	"log/slog"

	"github.com/dsrosen6/hyprdisplay/internal/power"
)

// listenLid forwards lid changes. A failing lid source is logged and dropped
// since the command socket can still deliver lid switches.
func (l *Listener) listenLid(ctx context.Context, events chan<- Event) {
	states := make(chan power.LidState, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- l.lid.Watch(ctx, states)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errc:
			if err != nil && ctx.Err() == nil {
				slog.Warn("lid listener stopped", "error", err)
			}
			return
		case st := <-states:
			if !send(ctx, events, Event{Type: LidSwitchEvent, Details: st.String()}) {
				return
			}
		}
	}
}
