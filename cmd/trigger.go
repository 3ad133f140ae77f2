package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/companionctl/internal/dashboard"
	"github.com/vedsharma/companionctl/internal/format"
)

func init() {
	triggerCmd := &cobra.Command{
		Use:     "trigger <name>",
		Aliases: []string{"t", "run"},
		Short:   "Trigger an action by name",
		Long: `Ask the companion proxy to execute the named action, then show the
latest log entries.

Example:
  companionctl trigger deploy`,
		Args: cobra.ExactArgs(1),
		Run:  runTrigger,
	}

	rootCmd.AddCommand(triggerCmd)
}

func runTrigger(cmd *cobra.Command, args []string) {
	name := args[0]
	ctx := cmd.Context()

	renderer := format.NewRenderer(5)
	dash := dashboard.New(mustClient(), renderer, dashboard.WriterAlerter{W: os.Stderr}, nil, log)

	// Load names first so the log rows show them.
	dash.RefreshActions(ctx)
	if err := dash.Trigger(ctx, name); err != nil {
		// Already alerted.
		exit(1)
		return
	}

	format.PrintSuccess(fmt.Sprintf("Triggered '%s'", name))
	format.WriteLogsTable(os.Stdout, renderer.Logs(), 5)
}
