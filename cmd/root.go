package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vedsharma/companionctl/internal/config"
	"github.com/vedsharma/companionctl/internal/format"
	httpclient "github.com/vedsharma/companionctl/internal/http"
	"github.com/vedsharma/companionctl/internal/logger"
	"github.com/vedsharma/companionctl/internal/storage"
)

var (
	cfgFile    string
	serverFlag string
	verbose    bool

	cfg   *config.Config
	log   = zap.NewNop()
	store storage.Store
)

var rootCmd = &cobra.Command{
	Use:   "companionctl",
	Short: "A CLI client for a companion proxy",
	Long: `companionctl manages the actions of a companion proxy: HTTP requests
stored on the server that can be fired by name.

Create, edit and delete actions, trigger them, and follow the trigger log
in a live dashboard.

Examples:
  companionctl actions list
  companionctl actions add --name ping --url https://example.com/ping --method GET
  companionctl trigger ping
  companionctl logs -n 20
  companionctl watch`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			store.Close()
		}
		log.Sync()
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default ~/.companionctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&serverFlag, "server", "s", "", "Backend base URL or saved server name")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and responses")
}

// setup loads config, logger, local storage and the saved theme
func setup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}

	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if serverFlag != "" {
		c.Server = serverFlag
	}
	if verbose {
		c.LogLevel = "debug"
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	log = l

	s, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	store = s

	theme, err := storage.LoadTheme(store)
	if err != nil {
		log.Warn("failed to load theme", zap.Error(err))
	}
	format.SetTheme(theme)

	return nil
}

// newClient builds the API client for the configured server, resolving
// saved server names
func newClient() (*httpclient.Client, error) {
	baseURL, err := storage.ResolveServer(store, cfg.Server)
	if err != nil {
		return nil, err
	}
	return httpclient.NewClient(baseURL, httpclient.WithLogger(log))
}

func mustClient() *httpclient.Client {
	client, err := newClient()
	if err != nil {
		exitWithError("Invalid server", err)
	}
	return client
}

// osExit is replaced in tests
var osExit = os.Exit

// exitWithError prints msg and err then exits with status 1
func exitWithError(msg string, err error) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	format.PrintError(msg)
	exit(1)
}

// exit closes local storage, which os.Exit would skip, then exits with code
func exit(code int) {
	if store != nil {
		store.Close()
	}
	osExit(code)
}
