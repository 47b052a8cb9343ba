package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harshul/stackdash/internal/doctor"
	"github.com/harshul/stackdash/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the project setup",
	Long: `The doctor command checks everything the dashboard needs: the project
manifest, the launcher, the interpreter, the supervisor, the runtime,
installed dependencies and the configuration.`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	d := doctor.Diagnose(cmd.Context(), a.root, a.cfg)
	if a.cfgPath != "" {
		d.Add(doctor.ConfigFileCheck(a.cfgPath))
	}

	out := ui.NewPrinter(cmd.OutOrStdout())
	out.Header("stackdash doctor")
	out.Field("Project", d.ProjectPath)
	if a.cfgPath != "" {
		out.Field("Config", a.cfgPath)
	} else {
		out.Field("Config", "defaults (no .stackdash.yaml)")
	}
	out.Divider()

	for _, c := range d.Checks {
		if c.OK {
			out.Success("%s: %s", c.Name, c.Detail)
			continue
		}
		out.Error("%s: %s", c.Name, c.Detail)
		if c.Hint != "" {
			out.Hint(c.Hint)
		}
	}
	out.Divider()

	if !d.Healthy {
		return fmt.Errorf("%d problem(s) found", len(d.Issues))
	}
	out.Success("Ready to run stackdash")
	return nil
}
