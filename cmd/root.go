// Package cmd is the hyprdisplay command line.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dsrosen6/hyprdisplay/internal/app"
	"github.com/dsrosen6/hyprdisplay/internal/config"
	"github.com/dsrosen6/hyprdisplay/internal/hypr"
	"github.com/dsrosen6/hyprdisplay/internal/power"
)

const version = "0.2.0"

var (
	cfgFile string
	debug   bool

	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "hyprdisplay",
	Short: "Display layouts for Hyprland",
	Long: `hyprdisplay detects connected monitors, plans mirror, extend and single-display
layouts, applies them to Hyprland and remembers the choice per monitor set.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		return initSettings()
	},
}

func init() {
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "settings file (default $XDG_CONFIG_HOME/hyprdisplay/settings.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "layout", Title: "Layout:"},
		&cobra.Group{ID: "daemon", Title: "Daemon:"},
	)

	for _, c := range []*cobra.Command{detectCmd, planCmd, applyCmd, restoreCmd, menuCmd, stateCmd, resetCmd} {
		c.GroupID = "layout"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{listenCmd, lidCmd, wakeCmd} {
		c.GroupID = "daemon"
		rootCmd.AddCommand(c)
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the hyprdisplay version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
}

// Run is the primary entry point of hyprdisplay.
func Run() error {
	return rootCmd.Execute()
}

func initSettings() error {
	if debug || os.Getenv("DEBUG") == "true" {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	s, err := config.LoadSettings(cfgFile)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	settings = s

	if !debug && os.Getenv("DEBUG") != "true" {
		l, _ := s.SlogLevel()
		slog.SetLogLoggerLevel(l)
	}

	slog.Debug("settings loaded", "path", s.Path(), "state_file", s.StateFile, "apply_method", s.ApplyMethod)
	return nil
}

// newApp wires the hyprctl-backed collaborators into an App.
func newApp() (*app.App, error) {
	hc, err := hypr.NewClient(settings.HyprctlPath)
	if err != nil {
		return nil, fmt.Errorf("creating hyprctl client: %w", err)
	}

	deps := app.Deps{
		Detector: hypr.NewDetector(hc, settings.InternalPrefixes),
		Applier:  newApplier(hc),
		Store:    config.NewStore(settings.StateFile),
		Reloader: hc,
	}
	if settings.LidSwitch {
		deps.LidState = power.CurrentLidState
	}

	return app.NewApp(settings, deps), nil
}

func newApplier(hc *hypr.Client) app.Applier {
	switch settings.ApplyMethod {
	case config.ApplyFile:
		return hypr.NewFileApplier(settings.MonitorsFile)
	case config.ApplyBoth:
		return hypr.MultiApplier{hypr.NewFileApplier(settings.MonitorsFile), hypr.NewHyprctlApplier(hc)}
	default:
		return hypr.NewHyprctlApplier(hc)
	}
}

// detected returns an App with a fresh monitor snapshot.
func detected(ctx context.Context) (*app.App, error) {
	a, err := newApp()
	if err != nil {
		return nil, err
	}

	if _, err := a.Detect(ctx); err != nil {
		return nil, err
	}

	return a, nil
}
