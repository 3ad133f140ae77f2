package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/companionctl/internal/format"
	"github.com/vedsharma/companionctl/internal/model"
	"github.com/vedsharma/companionctl/internal/storage"
)

func init() {
	themeCmd := &cobra.Command{
		Use:       "theme [light|dark|toggle]",
		Short:     "Show or change the color theme",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "toggle"},
		Run:       runTheme,
	}

	rootCmd.AddCommand(themeCmd)
}

func runTheme(cmd *cobra.Command, args []string) {
	current, err := storage.LoadTheme(store)
	if err != nil {
		exitWithError("Failed to load theme", err)
	}

	if len(args) == 0 {
		fmt.Println(current)
		return
	}

	var next model.Theme
	switch args[0] {
	case "toggle":
		next = current.Toggle()
	case string(model.ThemeLight), string(model.ThemeDark):
		next = model.Theme(args[0])
	default:
		exitWithError(fmt.Sprintf("Unknown theme '%s': use light, dark or toggle", args[0]), nil)
	}

	if err := storage.SaveTheme(store, next); err != nil {
		exitWithError("Failed to save theme", err)
	}

	format.SetTheme(next)
	format.PrintSuccess(fmt.Sprintf("Theme set to %s", next))
}
