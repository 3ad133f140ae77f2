package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vedsharma/companionctl/internal/format"
)

var logsLimit int

func init() {
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the trigger log, newest first",
		Long: `Show the trigger log, newest first.

Entries of deleted actions show the raw action id.

Example:
  companionctl logs -n 20`,
		Args: cobra.NoArgs,
		Run:  runLogs,
	}

	logsCmd.Flags().IntVarP(&logsLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) {
	client := mustClient()
	ctx := cmd.Context()

	logs, err := client.ListLogs(ctx)
	if err != nil {
		exitWithError("Failed to load logs", err)
	}

	if len(logs) == 0 {
		fmt.Println("No log entries found")
		return
	}

	// Names are a nicety; without them rows fall back to ids.
	actions, err := client.ListActions(ctx)
	if err != nil {
		log.Warn("failed to load action names", zap.Error(err))
	}

	rows := format.LogRows(logs, format.NameIndex(actions))
	format.WriteLogsTable(os.Stdout, rows, logsLimit)
}
