package hypr

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsrosen6/hyprdisplay/internal/display"
)

const sampleMonitors = `[
  {
    "id": 0, "name": "eDP-1", "description": "BOE 0x0BCA", "make": "BOE", "model": "0x0BCA",
    "width": 2256, "height": 1504, "refreshRate": 59.99900, "x": 0, "y": 0,
    "scale": 1.5, "transform": 0, "focused": true, "disabled": false, "mirrorOf": "none",
    "availableModes": ["2256x1504@60.00Hz", "2256x1504@48.00Hz", "2256x1504@60.00Hz"]
  },
  {
    "id": 1, "name": "DP-3", "description": "Dell U2720Q", "make": "Dell", "model": "U2720Q",
    "width": 3840, "height": 2160, "refreshRate": 59.997, "x": 1504, "y": 0,
    "scale": 1, "transform": 5, "focused": false, "disabled": false, "mirrorOf": "none",
    "availableModes": ["3840x2160@60.00Hz", "2560x1440@59.95Hz", "bogus"]
  }
]`

func TestMonitor_Descriptor(t *testing.T) {
	var monitors []Monitor
	if err := json.Unmarshal([]byte(sampleMonitors), &monitors); err != nil {
		t.Fatalf("unmarshaling sample: %v", err)
	}

	prefixes := []string{"eDP", "LVDS"}
	got := []display.MonitorDescriptor{
		monitors[0].Descriptor(prefixes),
		monitors[1].Descriptor(prefixes),
	}

	want := []display.MonitorDescriptor{
		{
			Name:        "eDP-1",
			Description: "BOE 0x0BCA",
			Modes: []display.Resolution{
				{Width: 2256, Height: 1504, Refresh: 60},
				{Width: 2256, Height: 1504, Refresh: 48},
			},
			Preferred: display.Resolution{Width: 2256, Height: 1504, Refresh: 60},
			Current:   display.Resolution{Width: 2256, Height: 1504, Refresh: 60},
			Scale:     1.5,
			Primary:   true,
			Internal:  true,
		},
		{
			Name:        "DP-3",
			Description: "Dell U2720Q",
			Modes: []display.Resolution{
				{Width: 3840, Height: 2160, Refresh: 60},
				{Width: 2560, Height: 1440, Refresh: 59.95},
			},
			Preferred: display.Resolution{Width: 3840, Height: 2160, Refresh: 60},
			Current:   display.Resolution{Width: 3840, Height: 2160, Refresh: 60},
			Rotation:  display.Rotation90,
			X:         1504,
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}
}

func TestMonitor_DescriptorWithoutModes(t *testing.T) {
	m := Monitor{Name: "HDMI-A-1", Width: 1920, Height: 1080, RefreshRate: 60}
	d := m.Descriptor(nil)
	if len(d.Modes) != 1 || d.Preferred != d.Current {
		t.Errorf("expected current mode as the only mode, got %+v", d)
	}
}

func TestParseMonitorEvent(t *testing.T) {
	tests := []struct {
		line   string
		want   Event
		wantOK bool
	}{
		{
			line:   "monitoraddedv2>>2,HDMI-A-1,LG Electronics, 27GL850",
			want:   Event{Name: MonitorAdded, Payload: "2,HDMI-A-1,LG Electronics, 27GL850", Monitor: "HDMI-A-1"},
			wantOK: true,
		},
		{
			line:   "monitorremovedv2>>1,DP-3,Dell U2720Q",
			want:   Event{Name: MonitorRemoved, Payload: "1,DP-3,Dell U2720Q", Monitor: "DP-3"},
			wantOK: true,
		},
		{line: "monitoradded>>HDMI-A-1"},
		{line: "workspace>>2"},
		{line: "garbage"},
	}

	for _, tt := range tests {
		got, ok := parseMonitorEvent(tt.line)
		if ok != tt.wantOK {
			t.Errorf("%q: got ok=%v, want %v", tt.line, ok, tt.wantOK)
			continue
		}
		if got != tt.want {
			t.Errorf("%q: got %+v, want %+v", tt.line, got, tt.want)
		}
	}
}

func TestCheckReplies(t *testing.T) {
	if err := checkReplies("ok\n\nok\n"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := checkReplies("ok\ninvalid monitor\n"); err == nil {
		t.Errorf("expected error for failed reply")
	}
}

const renderedText = `# hyprdisplay: mode=single-internal
monitor = eDP-1, 2256x1504@60.00, 0x0, 1, transform, 0 # primary
monitor = DP-3, disable
`

// newFakeHyprctl writes a shell script standing in for hyprctl. It records its
// arguments and prints reply.
func newFakeHyprctl(t *testing.T, reply string) (*Client, string) {
	t.Helper()
	dir := t.TempDir()
	argsFile := filepath.Join(dir, "args")
	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + argsFile + "\nprintf '" + reply + "'\n"
	bin := filepath.Join(dir, "hyprctl")
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatalf("writing fake hyprctl: %v", err)
	}

	c, err := NewClient(bin)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c, argsFile
}

func TestHyprctlApplier_Apply(t *testing.T) {
	c, argsFile := newFakeHyprctl(t, "ok\\n\\nok\\n")

	if err := NewHyprctlApplier(c).Apply(context.Background(), renderedText); err != nil {
		t.Fatalf("applying: %v", err)
	}

	b, err := os.ReadFile(argsFile)
	if err != nil {
		t.Fatalf("reading recorded args: %v", err)
	}

	got := strings.Split(strings.TrimSpace(string(b)), "\n")
	want := []string{
		"--batch",
		"keyword monitor eDP-1,2256x1504@60.00,0x0,1,transform,0 ; keyword monitor DP-3,disable",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("hyprctl args mismatch (-want +got):\n%s", diff)
	}
}

func TestHyprctlApplier_ApplyRejected(t *testing.T) {
	c, _ := newFakeHyprctl(t, "ok\\ninvalid\\n")
	if err := NewHyprctlApplier(c).Apply(context.Background(), renderedText); err == nil {
		t.Fatalf("expected error for rejected directive")
	}
}

func TestHyprctlApplier_Empty(t *testing.T) {
	c, _ := newFakeHyprctl(t, "ok")
	err := NewHyprctlApplier(c).Apply(context.Background(), "# nothing\n")
	if !errors.Is(err, ErrNoDirectives) {
		t.Fatalf("expected ErrNoDirectives, got %v", err)
	}
}

func TestFileApplier_Apply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hypr", "monitors.conf")
	a := NewFileApplier(path)

	if err := a.Apply(context.Background(), renderedText); err != nil {
		t.Fatalf("applying: %v", err)
	}
	first, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if err := a.Apply(context.Background(), renderedText); err != nil {
		t.Fatalf("re-applying: %v", err)
	}
	second, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !first.ModTime().Equal(second.ModTime()) {
		t.Errorf("expected unchanged file to be left alone")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if string(b) != renderedText {
		t.Errorf("got %q, want %q", b, renderedText)
	}
}

func TestClient_ListMonitors(t *testing.T) {
	if os.Getenv(sigEnv) == "" {
		t.Skip("not running under hyprland")
	}

	c, err := NewClient("")
	if err != nil {
		t.Fatal(err)
	}

	monitors, err := c.ListMonitors(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range monitors {
		t.Logf("Monitor found: %s", m.Name)
	}
}
