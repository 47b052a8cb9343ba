package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (can be set at build time)
var (
	version = "0.1.0"
)

// rootCmd opens the dashboard when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stackdash",
	Short: "Live terminal dashboard for a locally supervised application stack",
	Long: `stackdash watches a local application stack and lets you drive it from
one screen. It runs lifecycle actions through the project's launcher script,
polls the process supervisor and the host for status, and keeps a scrolling
log of everything that happened.

Usage:
  stackdash            Open the dashboard (same as 'stackdash run')
  stackdash status     Print one status snapshot
  stackdash exec NAME  Run one launcher action without the dashboard
  stackdash logs       Show recent supervisor logs
  stackdash doctor     Check the project setup
  stackdash init       Write a .stackdash.yaml file`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDashboard,
}

func init() {
	rootCmd.PersistentFlags().String("root", "", "Project root (default: current directory)")
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default: <root>/.stackdash.yaml)")
	rootCmd.PersistentFlags().String("log-file", "", "Write diagnostic logs to this file")

	addDashboardFlags(rootCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
