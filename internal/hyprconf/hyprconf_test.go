package hyprconf

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dsrosen6/hyprdisplay/internal/display"
)

func newTestMonitors(t *testing.T) []display.MonitorDescriptor {
	t.Helper()
	mk := func(name string, internal bool, modes ...string) display.MonitorDescriptor {
		d := display.MonitorDescriptor{Name: name, Internal: internal}
		for _, s := range modes {
			r, err := display.ParseResolution(s)
			if err != nil {
				t.Fatalf("parsing mode %q: %v", s, err)
			}
			d.Modes = append(d.Modes, r)
		}
		d.Preferred = d.Modes[0]
		return d
	}

	return []display.MonitorDescriptor{
		mk("eDP-1", true, "2560x1600@120.00", "1920x1080@60.00"),
		mk("DP-1", false, "1920x1080@60.00"),
		mk("HDMI-1", false, "1920x1080@60.00"),
	}
}

func names(monitors []display.MonitorDescriptor) []string {
	var out []string
	for _, m := range monitors {
		out = append(out, m.Name)
	}
	return out
}

func TestSerialize(t *testing.T) {
	monitors := newTestMonitors(t)
	tests := []struct {
		name string
		req  display.Request
		want string
	}{
		{
			name: "extend",
			req:  display.Request{Mode: display.ModeExtend, Order: []string{"DP-1", "HDMI-1", "eDP-1"}},
			want: `# hyprdisplay: mode=extend ordering=left-to-right
monitor = DP-1, 1920x1080@60.00, 0x0, 1, transform, 0 # primary
monitor = HDMI-1, 1920x1080@60.00, 1920x0, 1, transform, 0
monitor = eDP-1, 2560x1600@120.00, 3840x0, 1, transform, 0
`,
		},
		{
			name: "mirror",
			req:  display.Request{Mode: display.ModeMirror, Primary: "HDMI-1"},
			want: `# hyprdisplay: mode=mirror
monitor = HDMI-1, 1920x1080@60.00, 0x0, 1, transform, 0 # primary
monitor = eDP-1, 1920x1080@60.00, 0x0, 1, transform, 0, mirror, HDMI-1
monitor = DP-1, 1920x1080@60.00, 0x0, 1, transform, 0, mirror, HDMI-1
`,
		},
		{
			name: "single external",
			req:  display.Request{Mode: display.ModeSingleExternal, Target: "HDMI-1"},
			want: `# hyprdisplay: mode=single-external
monitor = HDMI-1, 1920x1080@60.00, 0x0, 1, transform, 0 # primary
monitor = DP-1, disable
monitor = eDP-1, disable
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := display.Plan(monitors, tt.req)
			if err != nil {
				t.Fatalf("planning: %v", err)
			}

			got := Serialize(plan, names(monitors))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("rendered text mismatch (-want +got):\n%s", diff)
			}

			if again := Serialize(plan, names(monitors)); again != got {
				t.Errorf("serialization is not deterministic")
			}
		})
	}
}

func TestSerialize_Rotation(t *testing.T) {
	r := display.Rotation270
	plan, err := display.Plan(newTestMonitors(t), display.Request{
		Mode:      display.ModeSingleInternal,
		Overrides: map[string]display.MonitorOverride{"eDP-1": {Rotation: &r}},
	})
	if err != nil {
		t.Fatalf("planning: %v", err)
	}

	got := KeywordArgs(Serialize(plan, nil))
	want := []string{"eDP-1,2560x1600@120.00,0x0,1,transform,3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("keyword args mismatch (-want +got):\n%s", diff)
	}
}

func TestSerialize_Scale(t *testing.T) {
	monitors := newTestMonitors(t)
	monitors[0].Scale = 1.5

	tests := []struct {
		name string
		req  display.Request
		want string
	}{
		{
			name: "single keeps detected scale",
			req:  display.Request{Mode: display.ModeSingleInternal},
			want: "monitor = eDP-1, 2560x1600@120.00, 0x0, 1.5, transform, 0 # primary",
		},
		{
			name: "mirror uses primary scale",
			req:  display.Request{Mode: display.ModeMirror, Primary: "eDP-1"},
			want: "monitor = DP-1, 1920x1080@60.00, 0x0, 1.5, transform, 0, mirror, eDP-1",
		},
		{
			name: "extend is unscaled",
			req:  display.Request{Mode: display.ModeExtend},
			want: "monitor = eDP-1, 2560x1600@120.00, 0x0, 1, transform, 0 # primary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := display.Plan(monitors, tt.req)
			if err != nil {
				t.Fatalf("planning: %v", err)
			}

			text := Serialize(plan, names(monitors))
			if !strings.Contains(text, tt.want+"\n") {
				t.Errorf("expected line %q in:\n%s", tt.want, text)
			}

			doc, err := Parse(text)
			if err != nil {
				t.Fatalf("parsing: %v", err)
			}
			if diff := cmp.Diff(plan, doc.Plan); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	monitors := newTestMonitors(t)
	r := display.Rotation90
	reqs := []display.Request{
		{Mode: display.ModeExtend, Ordering: display.RightToLeft},
		{Mode: display.ModeExtend, Ordering: display.BottomToTop, Primary: "HDMI-1"},
		{Mode: display.ModeExtend, Overrides: map[string]display.MonitorOverride{"DP-1": {Rotation: &r}}},
		{Mode: display.ModeMirror},
		{Mode: display.ModeSingleInternal},
		{Mode: display.ModeSingleExternal},
	}

	for _, req := range reqs {
		plan, err := display.Plan(monitors, req)
		if err != nil {
			t.Fatalf("%s: planning: %v", req.Mode, err)
		}

		text := Serialize(plan, names(monitors))
		doc, err := Parse(text)
		if err != nil {
			t.Fatalf("%s: parsing:\n%s\n%v", req.Mode, text, err)
		}

		if diff := cmp.Diff(plan, doc.Plan); diff != "" {
			t.Errorf("%s: round trip mismatch (-want +got):\n%s", req.Mode, diff)
		}

		if got := Serialize(doc.Plan, names(monitors)); got != text {
			t.Errorf("%s: re-rendered text differs:\n%s\nvs\n%s", req.Mode, got, text)
		}

		for _, n := range doc.Disabled {
			if plan.Contains(n) {
				t.Errorf("%s: %s is both placed and disabled", req.Mode, n)
			}
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{
			name:    "no header",
			text:    "monitor = DP-1, 1920x1080, 0x0, 1 # primary\n",
			wantErr: ErrMissingHeader,
		},
		{
			name: "unknown mode",
			text: "# hyprdisplay: mode=tile\nmonitor = DP-1, 1920x1080, 0x0, 1 # primary\n",
			wantErr: display.ErrUnknownMode,
		},
		{name: "bad position", text: "# hyprdisplay: mode=extend\nmonitor = DP-1, 1920x1080, 0,0, 1\n"},
		{name: "bad scale", text: "# hyprdisplay: mode=extend\nmonitor = DP-1, 1920x1080, 0x0, 0 # primary\n"},
		{name: "bad transform", text: "# hyprdisplay: mode=extend\nmonitor = DP-1, 1920x1080, 0x0, 1, transform, 9\n"},
		{name: "not a directive", text: "# hyprdisplay: mode=extend\nworkspace = 1, monitor:DP-1\n"},
		{
			name: "overlapping extend",
			text: "# hyprdisplay: mode=extend\n" +
				"monitor = DP-1, 1920x1080, 0x0, 1 # primary\n" +
				"monitor = DP-2, 1920x1080, 100x0, 1\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(tt.text)
			if err == nil {
				t.Fatalf("wanted error, got %+v", doc)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestKeywordArgs(t *testing.T) {
	text := "# hyprdisplay: mode=single-internal\n" +
		"monitor = eDP-1, 1920x1080@60.00, 0x0, 1, transform, 0 # primary\n" +
		"\n" +
		"monitor = HDMI-1, disable\n"

	want := []string{
		"eDP-1,1920x1080@60.00,0x0,1,transform,0",
		"HDMI-1,disable",
	}
	if diff := cmp.Diff(want, KeywordArgs(text)); diff != "" {
		t.Errorf("keyword args mismatch (-want +got):\n%s", diff)
	}
}
