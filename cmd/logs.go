package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent supervisor logs",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().IntP("lines", "n", 50, "Number of lines per process")
}

func runLogs(cmd *cobra.Command, args []string) error {
	lines, _ := cmd.Flags().GetInt("lines")
	if lines < 1 {
		return fmt.Errorf("--lines must be at least 1")
	}

	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	out, err := a.supervisor().Logs(cmd.Context(), lines)
	if out != "" {
		fmt.Fprint(cmd.OutOrStdout(), out)
	}
	return err
}
