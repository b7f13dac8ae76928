package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s, err := LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}

	if s.ApplyMethod != ApplyHyprctl {
		t.Errorf("apply_method: got %q", s.ApplyMethod)
	}
	if diff := cmp.Diff([]string{"eDP", "LVDS", "DSI"}, s.InternalPrefixes); diff != "" {
		t.Errorf("internal_prefixes mismatch (-want +got):\n%s", diff)
	}
	if !s.LidSwitch {
		t.Errorf("lid_switch should default to true")
	}
	if filepath.Base(s.StateFile) != stateFileName {
		t.Errorf("unexpected state file %q", s.StateFile)
	}
	if l, _ := s.SlogLevel(); l != slog.LevelInfo {
		t.Errorf("log level: got %v", l)
	}
}

func TestLoadSettings_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	data := "apply_method: both\n" +
		"monitors_file: " + filepath.Join(dir, "monitors.conf") + "\n" +
		"internal_prefixes: [eDP]\n" +
		"log_level: debug\n" +
		"lid_switch: false\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HYPRDISPLAY_STATE_FILE", filepath.Join(dir, "custom.json"))

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}

	want := &Settings{
		StateFile:        filepath.Join(dir, "custom.json"),
		MonitorsFile:     filepath.Join(dir, "monitors.conf"),
		ApplyMethod:      ApplyBoth,
		InternalPrefixes: []string{"eDP"},
		LogLevel:         "debug",
		LidSwitch:        false,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Settings{})); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
	if got.Path() != path {
		t.Errorf("path: got %q", got.Path())
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("apply_method: telepathy\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Error("expected invalid apply_method to fail")
	}
}
