package main

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/harshul/stackdash/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print one status snapshot",
	Long: `The status command polls the supervisor and the host once and prints
the project markers, the supervised processes and host resource usage.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "Print the snapshot as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	a, err := loadApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	snap := a.poller().Poll(cmd.Context())

	if asJSON {
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	width := ui.TerminalWidth(os.Stdout, 100) - 2
	fmt.Fprintln(cmd.OutOrStdout(), ui.RenderSnapshot(snap, a.cfg.Markers.Status(), width))
	return nil
}
