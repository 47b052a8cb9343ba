package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/harshul/stackdash/internal/dashboard"
	"github.com/harshul/stackdash/internal/lock"
	"github.com/harshul/stackdash/internal/project"
	"github.com/harshul/stackdash/internal/ringlog"
	"github.com/harshul/stackdash/internal/ui"
	"github.com/harshul/stackdash/internal/watcher"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the live dashboard",
	Long: `The run command opens the dashboard for the project in the current
directory (or --root).

It will:
- Check that the project manifest and the launcher exist
- Poll the supervisor and the host every refresh interval
- Run launcher actions on key press (1-8), one at a time
- Keep a bounded log of command output that can be saved with 's'

Without a terminal, or with --no-tui, log entries are printed as plain
lines until the process receives SIGINT or SIGTERM.`,
	RunE: runDashboard,
}

func init() {
	addDashboardFlags(runCmd)
}

func addDashboardFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("no-tui", false, "Disable the TUI dashboard (print log lines instead)")
	cmd.Flags().Bool("no-lock", false, "Allow more than one dashboard for the same project")
	cmd.Flags().Duration("interval", 0, "Override the refresh interval (e.g. 2s)")
	cmd.Flags().Duration("timeout", 0, "Override the command timeout (e.g. 10m)")
	cmd.Flags().Bool("no-auto-refresh", false, "Start with auto-refresh disabled")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	noTUI, _ := cmd.Flags().GetBool("no-tui")
	noLock, _ := cmd.Flags().GetBool("no-lock")
	interval, _ := cmd.Flags().GetDuration("interval")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	noAuto, _ := cmd.Flags().GetBool("no-auto-refresh")

	fallback := noTUI || !ui.Interactive(os.Stdout)

	a, err := loadApp(cmd, !fallback)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	if interval > 0 {
		cfg.RefreshInterval = interval
	}
	if timeout > 0 {
		cfg.CommandTimeout = timeout
	}
	if noAuto {
		cfg.AutoRefresh = false
	}

	runner := a.executor()
	if err := project.Check(a.root, cfg.Markers.Manifest, runner.LauncherPath()); err != nil {
		return err
	}

	if !noLock {
		lk, err := lock.Acquire(a.root)
		if err != nil {
			return err
		}
		defer lk.Release()
	}

	log := ringlog.New(cfg.LogCapacity)
	state := dashboard.NewState(log)
	bridge := ui.NewBridge()

	sched := dashboard.NewScheduler(state, a.poller(), runner,
		dashboard.WithInterval(cfg.RefreshInterval),
		dashboard.WithCommandTimeout(cfg.CommandTimeout),
		dashboard.WithAutoRefresh(cfg.AutoRefresh),
		dashboard.WithExport(a.resolve(cfg.ExportDir), cfg.ExportPrefix),
		dashboard.WithLogger(a.log),
		dashboard.WithNotify(bridge.Notify),
	)

	log.Info("stackdash started")

	if cfg.WatchMarkers {
		w, err := watcher.New(a.root, cfg.Markers.Status().Names(), watcher.DefaultDebounce, func() {
			_ = sched.RequestRefresh()
		}, a.log)
		if err == nil {
			err = w.Start()
			defer w.Close()
		}
		if err != nil {
			a.log.Warn("marker watcher disabled: %v", err)
		}
	}

	info := project.Inspect(a.root, cfg.Markers.Manifest)
	a.log.Info("dashboard for %s (%s), fallback=%v", info.Name, a.root, fallback)

	return ui.Run(cmd.Context(), sched, bridge, ui.RunConfig{
		Options: ui.Options{
			Project: info.Name,
			Markers: cfg.Markers.Status(),
			LogView: cfg.LogView,
		},
		FallbackMode: fallback,
	})
}
