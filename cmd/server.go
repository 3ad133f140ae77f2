package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/companionctl/internal/format"
	httpclient "github.com/vedsharma/companionctl/internal/http"
)

func init() {
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Manage saved backend servers",
		Long: `Manage saved backend servers.

A saved name can be used wherever a server URL is expected, so you can use
'--server prod' instead of '--server https://companion.example.com'.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all saved servers",
		Args:  cobra.NoArgs,
		Run:   runServerList,
	}

	addCmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Save a server",
		Long: `Save a backend base URL under a name.

Example:
  companionctl server add prod https://companion.example.com
  companionctl --server prod actions list`,
		Args: cobra.ExactArgs(2),
		Run:  runServerAdd,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved server",
		Args:  cobra.ExactArgs(1),
		Run:   runServerDelete,
	}

	serverCmd.AddCommand(listCmd, addCmd, deleteCmd)
	rootCmd.AddCommand(serverCmd)
}

func runServerList(cmd *cobra.Command, args []string) {
	servers, err := store.LoadServers()
	if err != nil {
		exitWithError("Failed to load servers", err)
	}

	format.PrintServerList(servers)
}

func runServerAdd(cmd *cobra.Command, args []string) {
	name := args[0]
	url := args[1]

	// Reuse the client's URL rules so a saved server always resolves.
	if _, err := httpclient.NewClient(url); err != nil {
		exitWithError("Failed to save server", err)
	}

	if err := store.CreateServer(name, url); err != nil {
		exitWithError("Failed to save server", err)
	}

	format.PrintSuccess(fmt.Sprintf("Server '%s' saved for %s", name, url))
}

func runServerDelete(cmd *cobra.Command, args []string) {
	name := args[0]

	_, exists, err := store.GetServer(name)
	if err != nil {
		exitWithError("Failed to delete server", err)
	}
	if !exists {
		exitWithError(fmt.Sprintf("Server '%s' not found", name), nil)
	}

	if err := store.DeleteServer(name); err != nil {
		exitWithError("Failed to delete server", err)
	}

	format.PrintSuccess(fmt.Sprintf("Server '%s' deleted", name))
}
