package hypr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
)

const (
	runtimeEnv = "XDG_RUNTIME_DIR"
	sigEnv     = "HYPRLAND_INSTANCE_SIGNATURE"
	sockName   = ".socket2.sock"
)

const (
	MonitorAdded   = "monitoraddedv2"
	MonitorRemoved = "monitorremovedv2"
)

var (
	ErrMissingEnvs = errors.New("missing hyprland envs")

	// Only the v2 events are kept; hyprland sends both versions for every change.
	monitorEvents = map[string]struct{}{
		MonitorAdded:   {},
		MonitorRemoved: {},
	}
)

type SocketConn struct {
	*net.UnixConn
}

// Event is a monitor add or remove event from socket2.
type Event struct {
	Name    string
	Payload string
	Monitor string
}

func NewSocketConn() (*SocketConn, error) {
	runtime := os.Getenv(runtimeEnv)
	sig := os.Getenv(sigEnv)
	if runtime == "" || sig == "" {
		return nil, ErrMissingEnvs
	}

	sock := filepath.Join(runtime, "hypr", sig, sockName)
	addr := &net.UnixAddr{
		Name: sock,
		Net:  "unix",
	}

	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("connecting to socket: %w", err)
	}

	return &SocketConn{conn}, nil
}

// ListenForEvents forwards monitor events until the connection closes or ctx ends.
func (h *SocketConn) ListenForEvents(ctx context.Context, out chan<- Event) error {
	scn := bufio.NewScanner(h)
	for scn.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ev, ok := parseMonitorEvent(scn.Text())
		if !ok {
			continue
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := scn.Err(); err != nil {
		return fmt.Errorf("error scanning: %w", err)
	}

	return nil
}

func parseMonitorEvent(line string) (Event, bool) {
	name, payload, ok := strings.Cut(line, ">>")
	if !ok {
		slog.Error("parse error", "err", fmt.Errorf("invalid event: %q", line))
		return Event{}, false
	}

	if _, ok := monitorEvents[name]; !ok {
		return Event{}, false
	}

	ev := Event{Name: name, Payload: payload}
	mn, err := extractMonitorName(payload)
	if err != nil {
		slog.Warn("monitor event without name", "error", err)
	}
	ev.Monitor = mn

	return ev, true
}

// extractMonitorName reads NAME from a "ID,NAME,DESCRIPTION" v2 payload.
func extractMonitorName(payload string) (string, error) {
	parts := strings.SplitN(payload, ",", 3)
	if len(parts) != 3 {
		return "", fmt.Errorf("bad monitorv2 event: %q", payload)
	}

	return parts[1], nil
}
