// Package listener fans in the events that can change the display layout: monitor
// hotplug from hyprland, edits to the persisted state, lid switches, and commands
// from other hyprdisplay processes.
package listener

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dsrosen6/hyprdisplay/internal/hypr"
	"github.com/dsrosen6/hyprdisplay/internal/power"
)

type (
	HyprSource interface {
		ListenForEvents(ctx context.Context, out chan<- hypr.Event) error
	}

	LidSource interface {
		Watch(ctx context.Context, out chan<- power.LidState) error
	}

	// Options selects the sources to listen to. Nil sources and empty paths are
	// skipped.
	Options struct {
		Hypr       HyprSource
		Lid        LidSource
		StatePath  string
		SocketPath string
	}

	Listener struct {
		hypr      HyprSource
		lid       LidSource
		statePath string
		sockPath  string
	}
)

func NewListener(opts Options) *Listener {
	return &Listener{
		hypr:      opts.Hypr,
		lid:       opts.Lid,
		statePath: opts.StatePath,
		sockPath:  opts.SocketPath,
	}
}

// Run sends events until ctx ends or a required source fails.
func (l *Listener) Run(ctx context.Context, events chan<- Event) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 3)

	if l.hypr != nil {
		go func() {
			if err := l.listenHyprland(ctx, events); err != nil {
				errc <- fmt.Errorf("hyprland listener: %w", err)
			}
		}()
	}

	if l.statePath != "" {
		go func() {
			if err := l.listenForConfigChanges(ctx, events); err != nil {
				errc <- fmt.Errorf("config listener: %w", err)
			}
		}()
	}

	if l.sockPath != "" {
		go func() {
			if err := l.commandListener(ctx, events); err != nil {
				errc <- fmt.Errorf("command listener: %w", err)
			}
		}()
	}

	if l.lid != nil {
		go l.listenLid(ctx, events)
	}

	slog.Debug("listener started",
		"hyprland", l.hypr != nil, "lid", l.lid != nil,
		"state_file", l.statePath, "socket", l.sockPath)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errc:
		return err
	}
}
