package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsrosen6/hyprdisplay/internal/config"
	"github.com/dsrosen6/hyprdisplay/internal/display"
)

func TestParseOverride(t *testing.T) {
	left := display.Rotation90
	tests := []struct {
		in       string
		wantName string
		wantRes  string
		wantRot  *display.Rotation
		wantErr  bool
	}{
		{in: "DP-1=2560x1440@144", wantName: "DP-1", wantRes: "2560x1440@144.00"},
		{in: "DP-1=1080x1920,left", wantName: "DP-1", wantRes: "1080x1920", wantRot: &left},
		{in: "HDMI-A-1=90", wantName: "HDMI-A-1", wantRot: &left},
		{in: "DP-1", wantErr: true},
		{in: "=1920x1080", wantErr: true},
		{in: "DP-1=sideways", wantErr: true},
		{in: "DP-1=left,right", wantErr: true},
		{in: "DP-1=1920x1080,1280x720", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			name, ov, err := parseOverride(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("wanted error, got %s %+v", name, ov)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}

			if name != tt.wantName {
				t.Errorf("name: got %q, want %q", name, tt.wantName)
			}

			gotRes := ""
			if ov.Resolution != nil {
				gotRes = ov.Resolution.String()
			}
			if gotRes != tt.wantRes {
				t.Errorf("resolution: got %q, want %q", gotRes, tt.wantRes)
			}

			if diff := cmp.Diff(tt.wantRot, ov.Rotation); diff != "" {
				t.Errorf("rotation mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestFlags(t *testing.T) {
	f := requestFlags{
		mode:      "extend",
		ordering:  "top-to-bottom",
		order:     []string{"DP-1", "eDP-1"},
		primary:   "DP-1",
		overrides: []string{"eDP-1=inverted"},
	}

	req, err := f.request()
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	inverted := display.Rotation180
	want := display.Request{
		Mode:      display.ModeExtend,
		Ordering:  display.TopToBottom,
		Order:     []string{"DP-1", "eDP-1"},
		Primary:   "DP-1",
		Overrides: map[string]display.MonitorOverride{"eDP-1": {Rotation: &inverted}},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}

	if _, err := (&requestFlags{mode: "tile"}).request(); err == nil {
		t.Error("expected unknown mode to fail")
	}
	if _, err := (&requestFlags{mode: "extend", ordering: "diagonal"}).request(); err == nil {
		t.Error("expected unknown ordering to fail")
	}
}

func testMonitors() []display.MonitorDescriptor {
	hd := display.Resolution{Width: 1920, Height: 1080, Refresh: 60}
	return []display.MonitorDescriptor{
		{Name: "eDP-1", Modes: []display.Resolution{hd}, Internal: true},
		{Name: "DP-1", Modes: []display.Resolution{hd}, Rotation: display.Rotation90},
		{Name: "HDMI-1", Modes: []display.Resolution{hd}},
	}
}

func TestMenuChoices(t *testing.T) {
	monitors := testMonitors()

	c := newMenuChoices(monitors, nil)
	if c.mode != string(display.ModeExtend) || c.primary != "eDP-1" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if *c.rotation["DP-1"] != "left" {
		t.Errorf("rotation should default to the detected one, got %s", *c.rotation["DP-1"])
	}

	req, err := c.request(display.ModeExtend)
	if err != nil {
		t.Fatal(err)
	}
	if len(req.Overrides) != 0 {
		t.Errorf("unchanged rotations should not become overrides: %+v", req.Overrides)
	}

	r := display.Rotation270
	saved := &config.PersistedConfig{
		Mode:      display.ModeExtend,
		Ordering:  display.RightToLeft,
		Order:     []string{"HDMI-1", "gone-1", "eDP-1"},
		Primary:   "HDMI-1",
		Overrides: map[string]display.MonitorOverride{"eDP-1": {Rotation: &r}},
	}
	c = newMenuChoices(monitors, saved)

	if diff := cmp.Diff([]string{"HDMI-1", "eDP-1", "DP-1"}, c.order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}

	c.order = []string{"HDMI-1", "HDMI-1", "DP-1"}
	req, err = c.request(display.ModeExtend)
	if err != nil {
		t.Fatal(err)
	}

	want := display.Request{
		Mode:      display.ModeExtend,
		Ordering:  display.RightToLeft,
		Order:     []string{"HDMI-1", "DP-1"},
		Primary:   "HDMI-1",
		Overrides: map[string]display.MonitorOverride{"eDP-1": {Rotation: &r}},
	}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}

	if _, err := display.Plan(monitors, req); err != nil {
		t.Errorf("menu request should plan: %v", err)
	}
}

func TestMenuChoices_KeepsSavedOverrides(t *testing.T) {
	monitors := testMonitors()
	monitors[1].Modes = append(monitors[1].Modes, display.Resolution{Width: 1280, Height: 720, Refresh: 60})

	// DP-1 is detected at the saved rotation, as it is after the layout was applied.
	rot := display.Rotation90
	res := display.Resolution{Width: 720, Height: 1280, Refresh: 60}
	saved := &config.PersistedConfig{
		Mode:      display.ModeExtend,
		Ordering:  display.LeftToRight,
		Overrides: map[string]display.MonitorOverride{"DP-1": {Resolution: &res, Rotation: &rot}},
	}

	c := newMenuChoices(monitors, saved)
	if got := *c.resolution["DP-1"]; got != "1280x720@60.00" {
		t.Errorf("resolution picker should start at the saved mode, got %q", got)
	}
	if got := *c.resolution["eDP-1"]; got != "" {
		t.Errorf("monitors without an override should start at preferred, got %q", got)
	}

	req, err := c.request(display.ModeExtend)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(saved.Overrides, req.Overrides); diff != "" {
		t.Errorf("saved overrides not carried through (-want +got):\n%s", diff)
	}

	*c.resolution["HDMI-1"] = "1920x1080@60.00"
	*c.rotation["HDMI-1"] = display.Rotation270.String()
	req, err = c.request(display.ModeExtend)
	if err != nil {
		t.Fatal(err)
	}
	r270 := display.Rotation270
	want := display.MonitorOverride{
		Resolution: &display.Resolution{Width: 1080, Height: 1920, Refresh: 60},
		Rotation:   &r270,
	}
	if diff := cmp.Diff(want, req.Overrides["HDMI-1"]); diff != "" {
		t.Errorf("edited override mismatch (-want +got):\n%s", diff)
	}

	plan, err := display.Plan(monitors, req)
	if err != nil {
		t.Fatalf("menu request should plan: %v", err)
	}
	for _, m := range plan.Monitors {
		if m.Name == "DP-1" && m.Resolution.Width != 1280 {
			t.Errorf("DP-1 should use the saved mode, got %s", m.Resolution)
		}
	}
}

func TestDefaultTarget(t *testing.T) {
	monitors := testMonitors()
	if got := defaultTarget(monitors, display.ModeSingleInternal); got != "eDP-1" {
		t.Errorf("internal: got %q", got)
	}
	if got := defaultTarget(monitors, display.ModeSingleExternal); got != "DP-1" {
		t.Errorf("external: got %q", got)
	}
}

func TestModeOptions(t *testing.T) {
	if got := len(modeOptions(1)); got != 2 {
		t.Errorf("one monitor: expected only single modes, got %d options", got)
	}
	if got := len(modeOptions(2)); got != len(display.Modes) {
		t.Errorf("two monitors: expected every mode, got %d options", got)
	}
}

func TestWriteValue(t *testing.T) {
	plan := display.LayoutPlan{
		Mode: display.ModeExtend,
		Monitors: []display.PlacedMonitor{
			{Name: "DP-1", Resolution: display.Resolution{Width: 1920, Height: 1080, Refresh: 60}, Primary: true},
		},
	}

	var buf bytes.Buffer
	if err := writeValue(&buf, formatYAML, plan); err != nil {
		t.Fatalf("writing yaml: %v", err)
	}
	for _, want := range []string{"mode: extend", "name: DP-1", "resolution: 1920x1080@60.00", "primary: true"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("yaml output missing %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := writeValue(&buf, formatJSON, plan); err != nil {
		t.Fatalf("writing json: %v", err)
	}
	if !strings.Contains(buf.String(), `"resolution": "1920x1080@60.00"`) {
		t.Errorf("unexpected json:\n%s", buf.String())
	}

	if err := writeValue(&buf, "xml", plan); err == nil {
		t.Error("expected unknown format to fail")
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("running version: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("got %q, want %q", out.String(), version)
	}
}
