package main

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harshul/stackdash/internal/config"
	"github.com/harshul/stackdash/internal/executor"
	"github.com/harshul/stackdash/internal/hostinfo"
	"github.com/harshul/stackdash/internal/logger"
	"github.com/harshul/stackdash/internal/project"
	"github.com/harshul/stackdash/internal/status"
	"github.com/harshul/stackdash/internal/supervisor"
)

// app is the resolved project context shared by every command.
type app struct {
	root    string
	cfg     *config.Config
	cfgPath string
	log     logger.Logger
	closer  io.Closer
}

// loadApp resolves the project root, loads the config and opens the
// diagnostic logger. When quiet is false and no log file is configured,
// STACKDASH_DEBUG sends debug output to stderr.
func loadApp(cmd *cobra.Command, quiet bool) (*app, error) {
	rootFlag, _ := cmd.Flags().GetString("root")
	configFlag, _ := cmd.Flags().GetString("config")
	logFile, _ := cmd.Flags().GetString("log-file")

	root, err := project.Resolve(rootFlag)
	if err != nil {
		return nil, err
	}

	cfg, cfgPath, err := config.Load(configFlag, root)
	if err != nil {
		return nil, err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	a := &app{root: root, cfg: cfg, cfgPath: cfgPath, log: logger.Noop()}

	switch {
	case cfg.LogFile != "":
		l, closer, err := logger.NewFile(logger.FileOptions{Path: a.resolve(cfg.LogFile), Level: cfg.LogLevel})
		if err != nil {
			return nil, err
		}
		a.log, a.closer = l, closer
	case !quiet && os.Getenv(logger.DebugEnv) != "":
		level, _ := logger.ParseLevel("debug")
		a.log = logger.New(os.Stderr, level)
	}

	a.log.Debug("project root %s, config %q", root, cfgPath)
	return a, nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

func (a *app) executor() *executor.Executor {
	return executor.New(a.root, a.cfg.Launcher,
		executor.WithInterpreter(a.cfg.Interpreter),
		executor.WithLogger(a.log),
	)
}

func (a *app) supervisor() *supervisor.PM2 {
	return supervisor.NewPM2(a.cfg.Supervisor,
		supervisor.WithListTimeout(a.cfg.SupervisorTimeout),
	)
}

func (a *app) poller() *status.Poller {
	return status.NewPoller(a.root, a.cfg.Markers.Status(), a.supervisor(), hostinfo.Probe,
		status.WithSupervisorTimeout(a.cfg.SupervisorTimeout),
		status.WithCPUSample(a.cfg.CPUSample),
		status.WithLogger(a.log),
	)
}

// resolve makes path absolute relative to the project root.
func (a *app) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, path)
}
