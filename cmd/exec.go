package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harshul/stackdash/internal/dashboard"
	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/project"
	"github.com/harshul/stackdash/internal/ui"
)

var execCmd = &cobra.Command{
	Use:   "exec <action>",
	Short: "Run one launcher action without the dashboard",
	Long: `The exec command runs the launcher with a single action and streams its
output. The exit status is non-zero when the action fails.

Actions: ` + strings.Join(dashboard.ActionNames(), ", "),
	Args:      cobra.ExactArgs(1),
	ValidArgs: dashboard.ActionNames(),
	RunE:      runExec,
}

func init() {
	execCmd.Flags().Duration("timeout", 0, "Override the command timeout (e.g. 10m)")
}

func runExec(cmd *cobra.Command, args []string) error {
	action := args[0]
	if _, ok := dashboard.LookupAction(action); !ok {
		return errors.New(errors.ErrConfig,
			"Unknown action: "+action,
			"Use one of: "+strings.Join(dashboard.ActionNames(), ", "))
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")

	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	if timeout <= 0 {
		timeout = a.cfg.CommandTimeout
	}

	runner := a.executor()
	if err := project.Check(a.root, a.cfg.Markers.Manifest, runner.LauncherPath()); err != nil {
		return err
	}

	out := ui.NewPrinter(cmd.OutOrStdout())
	out.Info("Running command: %s", action)

	res := runner.ExecuteStream(cmd.Context(), action, timeout, cmd.OutOrStdout())
	if res.Success {
		out.Success("Command succeeded: %s (%s)", action, res.Duration().Round(10*time.Millisecond))
		return nil
	}

	out.Error("Command failed: %s", action)
	if res.Err != nil {
		return res.Err
	}
	if res.ExitCode != nil {
		return fmt.Errorf("exit code %d", *res.ExitCode)
	}
	return fmt.Errorf("command %s failed", action)
}
