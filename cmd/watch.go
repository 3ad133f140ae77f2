package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vedsharma/companionctl/internal/dashboard"
	"github.com/vedsharma/companionctl/internal/editor"
	"github.com/vedsharma/companionctl/internal/format"
	httpclient "github.com/vedsharma/companionctl/internal/http"
	"github.com/vedsharma/companionctl/internal/refresh"
	"github.com/vedsharma/companionctl/internal/storage"
)

const watchFooter = "[n]ew  [e]dit <name>  [d]elete <name>  [t]rigger <name>  [r]efresh  theme  [q]uit"

var watchLogLimit int

func init() {
	watchCmd := &cobra.Command{
		Use:     "watch",
		Aliases: []string{"w", "dashboard"},
		Short:   "Live dashboard of actions and logs",
		Long: `Show the actions and the trigger log, refreshed every refresh_interval
(2s by default). Refreshing pauses while an action form or a delete
confirmation is open.

Commands (type and press enter):
  n                 create an action
  e <name|id>       edit an action
  d <name|id>       delete an action
  t <name>          trigger an action
  r                 refresh now
  theme             toggle light/dark
  q                 quit`,
		Args: cobra.NoArgs,
		Run:  runWatch,
	}

	watchCmd.Flags().IntVarP(&watchLogLimit, "limit", "n", 15, "Number of log entries to show (0 for all)")
	rootCmd.AddCommand(watchCmd)
}

// watchSession is one interactive dashboard run
type watchSession struct {
	dash *dashboard.Dashboard
	ed   *editor.Editor
}

func runWatch(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	client := mustClient()

	dash := dashboard.New(client, format.NewRenderer(watchLogLimit), dashboard.WriterAlerter{W: os.Stderr}, os.Stdout, log)
	dash.SetFooter(watchFooter)

	ed := editor.New(client, log, dash.RefreshActions)
	sched := refresh.New(cfg.RefreshInterval, ed, dash.Refresh, log)

	s := &watchSession{dash: dash, ed: ed}

	dash.Refresh(ctx)
	sched.Start(ctx)
	defer sched.Stop()

	lines, ack := readLines(ctx, os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			quit := s.handle(ctx, line)
			if quit {
				return
			}
			select {
			case ack <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// readLines delivers stdin lines one at a time. After each line it waits for
// an ack so prompts can read stdin directly in between.
func readLines(ctx context.Context, r io.Reader) (<-chan string, chan<- struct{}) {
	lines := make(chan string)
	ack := make(chan struct{})

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
			select {
			case <-ack:
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines, ack
}

// handle runs one dashboard command and reports whether to quit
func (s *watchSession) handle(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(command) {
	case "":
		s.dash.Redraw()
	case "q", "quit", "exit":
		return true
	case "r", "refresh":
		s.dash.Refresh(ctx)
	case "n", "new":
		s.create(ctx)
	case "e", "edit":
		s.edit(ctx, arg)
	case "d", "delete":
		s.remove(ctx, arg)
	case "t", "trigger":
		s.trigger(ctx, arg)
	case "theme":
		s.toggleTheme()
	default:
		format.PrintError(fmt.Sprintf("Unknown command '%s'", command))
	}
	return false
}

func (s *watchSession) create(ctx context.Context) {
	s.ed.OpenCreate(ctx)
	s.finishForm(ctx)
}

func (s *watchSession) edit(ctx context.Context, ref string) {
	id, ok := s.lookup(ref)
	if !ok {
		return
	}
	if err := s.ed.OpenEdit(ctx, id); err != nil {
		format.PrintAlert(os.Stderr, fmt.Sprintf("Failed to load action: %v", err))
		return
	}
	s.finishForm(ctx)
}

func (s *watchSession) finishForm(ctx context.Context) {
	_, err := runForm(ctx, s.ed)
	if err != nil && !errors.Is(err, errCancelled) {
		log.Debug("form closed without saving", zap.Error(err))
	}
	// A successful save has already refreshed the actions.
	s.dash.Redraw()
}

func (s *watchSession) remove(ctx context.Context, ref string) {
	id, ok := s.lookup(ref)
	if !ok {
		return
	}

	s.ed.StageDelete(id)
	for {
		if !confirm(fmt.Sprintf("Delete action '%s'", s.dash.Renderer().ActionName(id))) {
			s.ed.CancelDelete()
			break
		}

		err := s.ed.ConfirmDelete(ctx)
		if err == nil {
			break
		}

		var netErr *httpclient.NetworkError
		if errors.As(err, &netErr) && netErr.StatusCode == http.StatusNotFound {
			// Already gone; nothing left to confirm.
			s.ed.CancelDelete()
			s.dash.RefreshActions(ctx)
			break
		}
		format.PrintAlert(os.Stderr, fmt.Sprintf("Failed to delete action: %v", err))
	}
	s.dash.Redraw()
}

func (s *watchSession) trigger(ctx context.Context, name string) {
	if name == "" {
		format.PrintError("Usage: t <name>")
		return
	}
	// Unknown names still go to the backend, which decides.
	if id, ok := s.find(name); ok {
		name = s.dash.Renderer().ActionName(id)
	}
	s.dash.Trigger(ctx, name)
}

func (s *watchSession) toggleTheme() {
	current, err := storage.LoadTheme(store)
	if err != nil {
		log.Warn("failed to load theme", zap.Error(err))
	}
	next := current.Toggle()
	if err := storage.SaveTheme(store, next); err != nil {
		format.PrintAlert(os.Stderr, fmt.Sprintf("Failed to save theme: %v", err))
	}
	format.SetTheme(next)
	s.dash.Redraw()
}

// lookup resolves ref against the rendered actions table, reporting misses
func (s *watchSession) lookup(ref string) (string, bool) {
	if ref == "" {
		format.PrintError("Missing action name")
		return "", false
	}
	id, ok := s.find(ref)
	if !ok {
		format.PrintError(fmt.Sprintf("Action '%s' not found", ref))
	}
	return id, ok
}

// find matches ref by id, then by case-insensitive name
func (s *watchSession) find(ref string) (string, bool) {
	for _, row := range s.dash.Renderer().Actions() {
		if row.ID == ref {
			return row.ID, true
		}
	}
	for _, row := range s.dash.Renderer().Actions() {
		if strings.EqualFold(row.Name, ref) {
			return row.ID, true
		}
	}
	return "", false
}
