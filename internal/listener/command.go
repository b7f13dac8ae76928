package listener

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
)

const CommandSockName = "hyprdisplay.sock"

var ErrNotRunning = errors.New("command listener not running")

// DefaultSocketPath is where the listener accepts commands from other hyprdisplay
// invocations.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), CommandSockName)
}

// commandListener accepts one-line commands, such as a lid switch bound in
// hyprland.conf, and turns them into events.
func (l *Listener) commandListener(ctx context.Context, events chan<- Event) error {
	// remove existing file if it already exists
	_ = os.Remove(l.sockPath)

	ln, err := net.Listen("unix", l.sockPath)
	if err != nil {
		return fmt.Errorf("command listener: listen unix socket: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := ln.Close(); err != nil {
			slog.Error("command listener: closing hyprdisplay socket", "error", err)
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("command listener: accept", "error", err)
			continue
		}

		go l.handleCommand(ctx, conn, events)
	}
}

func (l *Listener) handleCommand(ctx context.Context, conn net.Conn, events chan<- Event) {
	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("command listener: closing socket conn", "error", err)
		} else {
			slog.Debug("command listener: socket conn closed")
		}
	}()

	buf, err := io.ReadAll(io.LimitReader(conn, 256))
	if err != nil {
		slog.Warn("command listener: reading message", "error", err)
		return
	}

	msg := strings.TrimSpace(string(buf))
	et, ok := commandEvents[msg]
	if !ok {
		slog.Warn("command listener: got unknown message", "msg", msg)
		return
	}

	send(ctx, events, Event{Type: et, Details: "command"})
}

// SendCommand delivers an event to a running listener.
func SendCommand(sockPath string, et EventType) error {
	if _, ok := commandEvents[string(et)]; !ok {
		return fmt.Errorf("event %s cannot be sent as a command", et)
	}

	conn, err := net.Dial("unix", sockPath)
	if err != nil {
		return ErrNotRunning
	}

	defer func() {
		if err := conn.Close(); err != nil {
			slog.Error("closing socket connection", "error", err)
		}
	}()

	if _, err = conn.Write([]byte(et)); err != nil {
		return fmt.Errorf("writing message '%s' to socket: %w", et, err)
	}

	return nil
}
