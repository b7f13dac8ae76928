package hypr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dsrosen6/hyprdisplay/internal/fsutil"
	"github.com/dsrosen6/hyprdisplay/internal/hyprconf"
)

var ErrNoDirectives = errors.New("no monitor directives to apply")

type (
	applier interface {
		Apply(ctx context.Context, text string) error
	}

	// HyprctlApplier applies rendered directives to the running compositor with a
	// single batched hyprctl call.
	HyprctlApplier struct {
		Client *Client
	}

	// FileApplier writes rendered directives to a file sourced by hyprland.conf, so
	// the layout survives a compositor restart.
	FileApplier struct {
		Path string
	}

	// MultiApplier runs appliers in order and stops at the first failure.
	MultiApplier []applier
)

func NewHyprctlApplier(c *Client) *HyprctlApplier {
	return &HyprctlApplier{Client: c}
}

func (a *HyprctlApplier) Apply(ctx context.Context, text string) error {
	args := hyprconf.KeywordArgs(text)
	if len(args) == 0 {
		return ErrNoDirectives
	}

	cmds := make([]string, 0, len(args))
	for _, arg := range args {
		cmds = append(cmds, "keyword monitor "+arg)
	}

	batch := strings.Join(cmds, " ; ")
	slog.Debug("applying monitor directives", "batch", batch)
	out, err := a.Client.RunCommand(ctx, []string{"--batch", batch})
	if err != nil {
		return fmt.Errorf("running hyprctl batch: %w", err)
	}

	return checkReplies(string(out))
}

func NewFileApplier(path string) *FileApplier {
	return &FileApplier{Path: path}
}

// Apply rewrites the whole file. An unchanged file is left untouched.
func (a *FileApplier) Apply(_ context.Context, text string) error {
	if len(hyprconf.KeywordArgs(text)) == 0 {
		return ErrNoDirectives
	}

	current, err := os.ReadFile(a.Path)
	if err == nil && bytes.Equal(current, []byte(text)) {
		slog.Debug("monitors file unchanged", "path", a.Path)
		return nil
	}

	if err := fsutil.WriteFileAtomic(a.Path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing monitors file: %w", err)
	}

	slog.Info("monitors file written", "path", a.Path)
	return nil
}

func (m MultiApplier) Apply(ctx context.Context, text string) error {
	for _, a := range m {
		if err := a.Apply(ctx, text); err != nil {
			return err
		}
	}

	return nil
}
