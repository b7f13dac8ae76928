package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dsrosen6/hyprdisplay/internal/listener"
	"github.com/dsrosen6/hyprdisplay/internal/power"
)

// Listen restores the saved layout, then reacts to listener events until ctx
// ends or a listener source fails.
func (a *App) Listen(ctx context.Context, opts listener.Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan listener.Event, 16)
	errc := make(chan error, 1)

	go func() {
		if err := listener.NewListener(opts).Run(ctx, events); err != nil && !errors.Is(err, context.Canceled) {
			errc <- err
			cancel()
		}
	}()

	a.logResult("startup", a.handleRefresh(ctx))

	for {
		select {
		case ev := <-events:
			slog.Info("received event from listener", "type", ev.Type, "details", ev.Details)
			a.logResult(string(ev.Type), a.handleEvent(ctx, ev))

		case err := <-errc:
			return fmt.Errorf("listener failed: %w", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *App) handleEvent(ctx context.Context, ev listener.Event) error {
	switch ev.Type {
	case listener.LidSwitchEvent:
		if a.Settings != nil && !a.Settings.LidSwitch {
			slog.Debug("lid switch handling disabled")
			return nil
		}
		return a.handleRefresh(ctx)

	case listener.DisplayAddEvent, listener.DisplayRemoveEvent,
		listener.IdleWakeEvent, listener.DisplayUnknownEvent:
		return a.handleRefresh(ctx)

	case listener.ConfigUpdatedEvent:
		if _, err := a.Detect(ctx); err != nil {
			return err
		}
		if a.State.Lid == power.LidStateClosed && a.statusShouldBe() == statusWELC {
			slog.Debug("state changed while in clamshell mode; waiting for lid open")
			return nil
		}
		_, err := a.restoreDetected(ctx)
		return err
	}

	return fmt.Errorf("unhandled event type %s", ev.Type)
}

func (a *App) handleRefresh(ctx context.Context) error {
	_, err := a.Refresh(ctx)
	return err
}

func (a *App) logResult(trigger string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSavedLayout):
		slog.Info("no saved layout for connected monitors; run hyprdisplay apply or menu",
			"trigger", trigger, "monitors", a.MonitorNames())
	default:
		slog.Error("updating layout", "trigger", trigger, "error", err)
	}
}
