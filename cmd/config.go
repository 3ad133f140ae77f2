package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vedsharma/companionctl/internal/config"
	"github.com/vedsharma/companionctl/internal/format"
)

var forceInit bool

func init() {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Args:  cobra.NoArgs,
		Run:   runConfigInit,
	}
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		Run:   runConfigShow,
	}

	configCmd.AddCommand(initCmd, showCmd)
	rootCmd.AddCommand(configCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func runConfigInit(cmd *cobra.Command, args []string) {
	path := configPath()

	if _, err := os.Stat(path); err == nil && !forceInit {
		exitWithError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), nil)
	}

	if err := cfg.Save(path); err != nil {
		exitWithError("Failed to write config", err)
	}

	format.PrintSuccess(fmt.Sprintf("Config written to %s", path))
}

func runConfigShow(cmd *cobra.Command, args []string) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		exitWithError("Failed to encode config", err)
	}
	fmt.Print(string(data))
}
