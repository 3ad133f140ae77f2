package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/companionctl/internal/editor"
	"github.com/vedsharma/companionctl/internal/format"
	httpclient "github.com/vedsharma/companionctl/internal/http"
)

var (
	actionName    string
	actionURL     string
	actionMethod  string
	actionHeaders []string
	actionBody    string
	revealHeaders bool
	assumeYes     bool
)

func init() {
	actionsCmd := &cobra.Command{
		Use:     "actions",
		Aliases: []string{"action", "a"},
		Short:   "Manage actions",
		Long: `Manage the actions stored on the companion proxy.

Actions are referenced by id or by name (case-insensitive).`,
	}

	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all actions",
		Args:    cobra.NoArgs,
		Run:     runActionsList,
	}

	showCmd := &cobra.Command{
		Use:   "show <name|id>",
		Short: "Show one action",
		Args:  cobra.ExactArgs(1),
		Run:   runActionsShow,
	}
	showCmd.Flags().BoolVar(&revealHeaders, "reveal", false, "Show credential header values")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create an action from flags",
		Long: `Create an action from flags.

Example:
  companionctl actions add --name deploy --url https://ci.example.com/deploy \
    -H "Authorization: Bearer token" --body '{"env": "prod"}'`,
		Args: cobra.NoArgs,
		Run:  runActionsAdd,
	}
	addFormFlags(addCmd)

	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Create an action interactively",
		Args:  cobra.NoArgs,
		Run:   runActionsNew,
	}

	editCmd := &cobra.Command{
		Use:   "edit <name|id>",
		Short: "Edit an action",
		Long: `Edit an action. With any field flag set the changes are applied directly,
otherwise an interactive form opens with the current values.`,
		Args: cobra.ExactArgs(1),
		Run:  runActionsEdit,
	}
	addFormFlags(editCmd)

	deleteCmd := &cobra.Command{
		Use:     "delete <name|id>",
		Aliases: []string{"rm"},
		Short:   "Delete an action",
		Args:    cobra.ExactArgs(1),
		Run:     runActionsDelete,
	}
	deleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the confirmation")

	actionsCmd.AddCommand(listCmd, showCmd, addCmd, newCmd, editCmd, deleteCmd)
	rootCmd.AddCommand(actionsCmd)
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&actionName, "name", "", "Action name (unique, case-insensitive)")
	cmd.Flags().StringVar(&actionURL, "url", "", "Target URL")
	cmd.Flags().StringVarP(&actionMethod, "method", "X", "", "HTTP method (default POST)")
	cmd.Flags().StringArrayVarP(&actionHeaders, "header", "H", nil, "Header 'Key: Value' (can be repeated)")
	cmd.Flags().StringVarP(&actionBody, "body", "d", "", "Request body")
}

// applyFormFlags copies the flags that were set into the open form
func applyFormFlags(cmd *cobra.Command, ed *editor.Editor) error {
	if cmd.Flags().Changed("name") {
		ed.SetName(actionName)
	}
	if cmd.Flags().Changed("url") {
		ed.SetURL(actionURL)
	}
	if cmd.Flags().Changed("method") {
		ed.SetMethod(actionMethod)
	}
	if cmd.Flags().Changed("body") {
		ed.SetBody(actionBody)
	}
	if cmd.Flags().Changed("header") {
		// Flags replace the existing header set.
		for i := len(ed.Form().Headers) - 1; i >= 0; i-- {
			ed.RemoveHeader(i)
		}
		for _, h := range actionHeaders {
			key, value, ok := parseHeader(h)
			if !ok {
				return fmt.Errorf("invalid header %q: expected 'Key: Value'", h)
			}
			ed.AddHeader(key, value)
		}
	}
	return nil
}

func formFlagsSet(cmd *cobra.Command) bool {
	for _, name := range []string{"name", "url", "method", "header", "body"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func runActionsList(cmd *cobra.Command, args []string) {
	client := mustClient()

	actions, err := client.ListActions(cmd.Context())
	if err != nil {
		exitWithError("Failed to load actions", err)
	}

	if len(actions) == 0 {
		fmt.Println("No actions found")
		return
	}
	format.WriteActionsTable(os.Stdout, format.ActionRows(actions))
}

func runActionsShow(cmd *cobra.Command, args []string) {
	client := mustClient()

	found, err := resolveAction(cmd.Context(), client, args[0])
	if err != nil {
		exitWithError("Failed to load action", err)
	}

	action, err := client.GetAction(cmd.Context(), found.ID)
	if err != nil {
		exitWithError("Failed to load action", err)
	}

	format.PrintAction(os.Stdout, action, revealHeaders)
}

func runActionsAdd(cmd *cobra.Command, args []string) {
	client := mustClient()
	ed := editor.New(client, log, nil)

	ed.OpenCreate(cmd.Context())
	if err := applyFormFlags(cmd, ed); err != nil {
		exitWithError("Failed to create action", err)
	}

	saved, err := ed.Submit(cmd.Context())
	if err != nil {
		exitWithError("Failed to create action", err)
	}

	format.PrintSuccess(fmt.Sprintf("Action '%s' created (id %s)", saved.Name, saved.ID))
}

func runActionsNew(cmd *cobra.Command, args []string) {
	client := mustClient()
	ed := editor.New(client, log, nil)

	ed.OpenCreate(cmd.Context())
	saved, err := runForm(cmd.Context(), ed)
	if errors.Is(err, errCancelled) {
		fmt.Println("Cancelled")
		return
	}
	if err != nil {
		exitWithError("Failed to create action", err)
	}

	format.PrintSuccess(fmt.Sprintf("Action '%s' created (id %s)", saved.Name, saved.ID))
}

func runActionsEdit(cmd *cobra.Command, args []string) {
	client := mustClient()
	ed := editor.New(client, log, nil)

	found, err := resolveAction(cmd.Context(), client, args[0])
	if err != nil {
		exitWithError("Failed to load action", err)
	}
	if err := ed.OpenEdit(cmd.Context(), found.ID); err != nil {
		exitWithError("Failed to load action", err)
	}

	if formFlagsSet(cmd) {
		if err := applyFormFlags(cmd, ed); err != nil {
			exitWithError("Failed to update action", err)
		}
		saved, err := ed.Submit(cmd.Context())
		if err != nil {
			exitWithError("Failed to update action", err)
		}
		format.PrintSuccess(fmt.Sprintf("Action '%s' updated", saved.Name))
		return
	}

	saved, err := runForm(cmd.Context(), ed)
	if errors.Is(err, errCancelled) {
		fmt.Println("Cancelled")
		return
	}
	if err != nil {
		exitWithError("Failed to update action", err)
	}

	format.PrintSuccess(fmt.Sprintf("Action '%s' updated", saved.Name))
}

func runActionsDelete(cmd *cobra.Command, args []string) {
	client := mustClient()
	ed := editor.New(client, log, nil)

	found, err := resolveAction(cmd.Context(), client, args[0])
	if err != nil {
		exitWithError("Failed to delete action", err)
	}

	ed.StageDelete(found.ID)
	if !assumeYes && !confirm(fmt.Sprintf("Delete action '%s'", found.Name)) {
		ed.CancelDelete()
		fmt.Println("Cancelled")
		return
	}

	if err := ed.ConfirmDelete(cmd.Context()); err != nil {
		var netErr *httpclient.NetworkError
		if errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound {
			exitWithError("Action no longer exists", nil)
		}
		exitWithError("Failed to delete action", err)
	}

	format.PrintSuccess(fmt.Sprintf("Action '%s' deleted", found.Name))
}
