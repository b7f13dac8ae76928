// Package hypr talks to a running Hyprland instance: it detects monitors through
// hyprctl, applies rendered monitor directives and streams socket2 events.
package hypr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	binaryName       = "hyprctl"
	unknownReqOutput = "unknown request"
	okOutput         = "ok"
)

var ErrUnknownRequest = errors.New(unknownReqOutput)

type Client struct {
	BinaryPath string
}

// NewClient creates a hyprctl client. An empty path is looked up on PATH.
func NewClient(path string) (*Client, error) {
	if path == "" {
		bp, err := exec.LookPath(binaryName)
		if err != nil {
			return nil, fmt.Errorf("finding full hyprctl binary path: %w", err)
		}
		path = bp
	}

	return &Client{
		BinaryPath: path,
	}, nil
}

func (c *Client) RunCommandWithUnmarshal(ctx context.Context, args []string, v any) error {
	a := append([]string{"-j"}, args...)
	out, err := c.RunCommand(ctx, a)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(out, v); err != nil {
		return fmt.Errorf("unmarshaling json: %w", err)
	}

	return nil
}

func (c *Client) RunCommand(ctx context.Context, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.BinaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("running command: %w", err)
	}

	out := stdout.Bytes()
	errStr := strings.TrimSpace(stderr.String())
	if errStr != "" {
		return nil, errors.New(errStr)
	}

	return out, checkForErr(string(out))
}

// Reload makes Hyprland re-read its configuration, dropping runtime keyword changes.
func (c *Client) Reload(ctx context.Context) error {
	out, err := c.RunCommand(ctx, []string{"reload"})
	if err != nil {
		return err
	}

	return checkReplies(string(out))
}

func checkForErr(out string) error {
	out = strings.TrimSpace(out)
	switch out {
	case unknownReqOutput:
		return ErrUnknownRequest
	default:
		return nil
	}
}

// checkReplies verifies every reply of a plain or batched command is "ok".
func checkReplies(out string) error {
	var failed []string
	for _, reply := range strings.Fields(out) {
		if reply != okOutput {
			failed = append(failed, reply)
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("hyprctl replied: %s", strings.Join(failed, " "))
	}

	return nil
}
