package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/harshul/stackdash/internal/config"
	"github.com/harshul/stackdash/internal/fsutil"
	"github.com/harshul/stackdash/internal/project"
	"github.com/harshul/stackdash/internal/ui"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .stackdash.yaml file",
	Long: `The init command writes a .stackdash.yaml configuration file for the
project root with the default settings. With --interactive it asks for
the launcher, its interpreter, the supervisor and the refresh interval.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringP("output", "o", config.FileName, "Output file path for the configuration")
	initCmd.Flags().BoolP("force", "f", false, "Overwrite an existing configuration file")
	initCmd.Flags().BoolP("interactive", "i", false, "Run in interactive mode with prompts")
}

func runInit(cmd *cobra.Command, args []string) error {
	rootFlag, _ := cmd.Flags().GetString("root")
	outputPath, _ := cmd.Flags().GetString("output")
	force, _ := cmd.Flags().GetBool("force")
	interactive, _ := cmd.Flags().GetBool("interactive")

	root, err := project.Resolve(rootFlag)
	if err != nil {
		return err
	}

	if !filepath.IsAbs(outputPath) {
		outputPath = filepath.Join(root, outputPath)
	}
	if fsutil.Exists(outputPath) && !force {
		return fmt.Errorf("configuration file already exists at %s. Use --force to overwrite", outputPath)
	}

	cfg := config.Default()
	if interactive {
		if !ui.Interactive(os.Stdin) {
			return fmt.Errorf("--interactive needs a terminal")
		}
		if err := promptConfig(cfg); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Write(outputPath, cfg); err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}

	out := ui.NewPrinter(cmd.OutOrStdout())
	out.Success("Configuration written to %s", outputPath)

	info := project.Inspect(root, cfg.Markers.Manifest)
	out.Field("Project", info.Name)
	if !fsutil.Exists(filepath.Join(root, cfg.Markers.Manifest)) {
		out.Warn("%s not found in %s", cfg.Markers.Manifest, root)
	}
	if !fsutil.Exists(filepath.Join(root, cfg.Launcher)) {
		out.Warn("Launcher %s does not exist yet", cfg.Launcher)
	}
	out.Info("Run 'stackdash' to open the dashboard")
	return nil
}

func promptConfig(cfg *config.Config) error {
	launcher, err := ui.Input("Launcher script", "stackdash.sh", cfg.Launcher)
	if err != nil {
		return err
	}
	cfg.Launcher = launcher

	interpreter, err := ui.Choose("Run the launcher with", []string{"bash", "sh", ""}, cfg.Interpreter)
	if err != nil {
		return err
	}
	cfg.Interpreter = interpreter

	supervisor, err := ui.Input("Process supervisor", "pm2", cfg.Supervisor)
	if err != nil {
		return err
	}
	cfg.Supervisor = supervisor

	interval, err := ui.Input("Refresh interval", "5s", cfg.RefreshInterval.String())
	if err != nil {
		return err
	}
	d, err := time.ParseDuration(interval)
	if err != nil {
		return fmt.Errorf("invalid refresh interval %q: %w", interval, err)
	}
	cfg.RefreshInterval = d

	auto, err := ui.Confirm("Refresh automatically?", "You can toggle it in the dashboard with 'a'", cfg.AutoRefresh)
	if err != nil {
		return err
	}
	cfg.AutoRefresh = auto
	return nil
}
