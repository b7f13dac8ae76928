package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dsrosen6/hyprdisplay/internal/app"
	"github.com/dsrosen6/hyprdisplay/internal/config"
	"github.com/dsrosen6/hyprdisplay/internal/display"
	"github.com/dsrosen6/hyprdisplay/internal/hypr"
	"github.com/dsrosen6/hyprdisplay/internal/listener"
	"github.com/dsrosen6/hyprdisplay/internal/power"
)

var (
	planFlags  requestFlags
	applyFlags requestFlags

	planFormat   string
	applyDryRun  bool
	detectFormat string
	stateFormat  string
	stateCurrent bool
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "List connected monitors and their modes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := detected(cmd.Context())
		if err != nil {
			return err
		}

		if detectFormat != formatText {
			return writeValue(cmd.OutOrStdout(), detectFormat, a.State.Monitors)
		}

		printMonitors(a.State.Monitors)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a layout without applying it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := planFlags.request()
		if err != nil {
			return err
		}

		a, err := detected(cmd.Context())
		if err != nil {
			return err
		}

		res, err := a.Preview(req)
		if err != nil {
			return err
		}

		if planFormat == formatText {
			fmt.Fprint(cmd.OutOrStdout(), res.Text)
			return nil
		}
		return writeValue(cmd.OutOrStdout(), planFormat, res.Plan)
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a layout and remember it for this monitor set",
	Long: `Apply plans a layout for the connected monitors, hands it to Hyprland and saves
the choices so restore and listen can reproduce it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := applyFlags.request()
		if err != nil {
			return err
		}

		a, err := detected(cmd.Context())
		if err != nil {
			return err
		}

		if applyDryRun {
			res, err := a.Preview(req)
			if err != nil {
				return err
			}
			printSection("Dry Run")
			fmt.Print(res.Text)
			return nil
		}

		res, err := a.Apply(cmd.Context(), req)
		if err != nil {
			return err
		}

		printResult(res)
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Re-apply the layout saved for the connected monitors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		res, err := a.Restore(cmd.Context())
		if err != nil {
			if errors.Is(err, app.ErrNoSavedLayout) || isPlanningError(err) {
				printWarning("choose a layout with 'hyprdisplay apply' or 'hyprdisplay menu'")
			}
			return err
		}

		printResult(res)
		return nil
	},
}

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show the saved layout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		var cfg *config.PersistedConfig
		if stateCurrent {
			if _, err := a.Detect(cmd.Context()); err != nil {
				return err
			}
			cfg, err = a.SavedConfig()
		} else {
			cfg, err = a.LastConfig()
		}
		if err != nil {
			return err
		}

		if cfg == nil {
			printWarning("no saved layout")
			return nil
		}

		return writeValue(cmd.OutOrStdout(), stateFormat, cfg)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reload Hyprland, dropping runtime monitor settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		if err := a.Reset(cmd.Context()); err != nil {
			return err
		}

		printSuccess("hyprland config reloaded")
		return nil
	},
}

// listenCmd is meant to be run as a systemd user unit or an exec-once in hyprland.
var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Restore layouts on hotplug, lid and state changes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp()
		if err != nil {
			return err
		}

		opts, cleanup, err := listenerOptions(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		err = a.Listen(ctx, opts)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

// lidCmd is meant for a hyprland switch bind when UPower is unavailable.
var lidCmd = &cobra.Command{
	Use:   "lid",
	Short: "Tell the listener the lid switched",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listener.SendCommand(listener.DefaultSocketPath(), listener.LidSwitchEvent)
	},
}

// wakeCmd is meant for hypridle's after_sleep_cmd, since displays may have changed
// while suspended.
var wakeCmd = &cobra.Command{
	Use:   "wake",
	Short: "Tell the listener the system woke from sleep",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listener.SendCommand(listener.DefaultSocketPath(), listener.IdleWakeEvent)
	},
}

func init() {
	planFlags.register(planCmd)
	planCmd.Flags().StringVarP(&planFormat, "format", "f", formatText, "output format: text, json or yaml")

	applyFlags.register(applyCmd)
	applyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "print the rendered config without applying it")

	detectCmd.Flags().StringVarP(&detectFormat, "format", "f", formatText, "output format: text, json or yaml")

	stateCmd.Flags().StringVarP(&stateFormat, "format", "f", formatYAML, "output format: json or yaml")
	stateCmd.Flags().BoolVar(&stateCurrent, "current", false, "show the layout saved for the connected monitors")
}

func listenerOptions(ctx context.Context) (listener.Options, func(), error) {
	opts := listener.Options{
		StatePath:  settings.StateFile,
		SocketPath: listener.DefaultSocketPath(),
	}
	var closers []func() error

	sc, err := hypr.NewSocketConn()
	if err != nil {
		return opts, nil, fmt.Errorf("creating hyprland socket connection: %w", err)
	}
	opts.Hypr = sc
	closers = append(closers, sc.Close)

	if settings.LidSwitch {
		if l, ok := openLid(ctx); ok {
			opts.Lid = l
			closers = append(closers, l.Close)
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				PrintError(fmt.Sprintf("closing listener source: %v", err))
			}
		}
	}

	return opts, cleanup, nil
}

func openLid(ctx context.Context) (*power.Lid, bool) {
	l, err := power.NewLid()
	if err != nil {
		printWarning(fmt.Sprintf("lid events unavailable: %v", err))
		return nil, false
	}

	present, err := l.Present(ctx)
	if err != nil || !present {
		_ = l.Close()
		return nil, false
	}

	return l, true
}

func printResult(res *app.Result) {
	if res.Skipped {
		printSuccess(fmt.Sprintf("%s layout already applied", res.Plan.Mode))
		return
	}

	printSuccess(fmt.Sprintf("%s layout applied", res.Plan.Mode))
	for _, m := range res.Plan.Monitors {
		w, h := m.Size()
		line := fmt.Sprintf("%s %dx%d at %dx%d", m.Name, w, h, m.X, m.Y)
		if m.Primary {
			line += " (primary)"
		}
		if m.MirrorOf != "" {
			line += " mirroring " + m.MirrorOf
		}
		printLabelValue("monitor", line)
	}
}

func isPlanningError(err error) bool {
	var le *display.LayoutError
	return errors.As(err, &le)
}
