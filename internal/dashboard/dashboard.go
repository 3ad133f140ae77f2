// Package dashboard wires the backend client, the table renderer and the
// alert surface into poll cycles and user-triggered refreshes.
package dashboard

import (
	"context"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/vedsharma/companionctl/internal/format"
	"github.com/vedsharma/companionctl/internal/model"
)

// Backend is the subset of the API client the dashboard reads through
type Backend interface {
	ListActions(ctx context.Context) ([]model.Action, error)
	ListLogs(ctx context.Context) ([]model.LogEntry, error)
	Trigger(ctx context.Context, name string) error
}

// Alerter surfaces a blocking, user-visible failure
type Alerter interface {
	Alert(msg string, err error)
}

// AlertFunc adapts a function to Alerter
type AlertFunc func(msg string, err error)

func (f AlertFunc) Alert(msg string, err error) {
	f(msg, err)
}

// WriterAlerter prints alerts to w
type WriterAlerter struct {
	W io.Writer
}

func (a WriterAlerter) Alert(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	format.PrintAlert(a.W, msg)
}

// Dashboard keeps the rendered tables in sync with the backend
type Dashboard struct {
	backend  Backend
	renderer *format.Renderer
	alerter  Alerter
	log      *zap.Logger

	// screen, when set, is redrawn after every table update
	screen   io.Writer
	screenMu sync.Mutex
	footer   string
}

// New creates a dashboard. screen may be nil when the caller draws itself.
func New(backend Backend, renderer *format.Renderer, alerter Alerter, screen io.Writer, log *zap.Logger) *Dashboard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dashboard{
		backend:  backend,
		renderer: renderer,
		alerter:  alerter,
		screen:   screen,
		log:      log,
	}
}

// Renderer returns the table renderer
func (d *Dashboard) Renderer() *format.Renderer {
	return d.renderer
}

// Refresh runs one poll cycle: actions and logs are fetched concurrently and
// each table is replaced as soon as its own fetch resolves.
func (d *Dashboard) Refresh(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.RefreshActions(ctx)
	}()
	go func() {
		defer wg.Done()
		d.RefreshLogs(ctx)
	}()
	wg.Wait()
}

// RefreshActions re-fetches and re-renders the actions table
func (d *Dashboard) RefreshActions(ctx context.Context) {
	actions, err := d.backend.ListActions(ctx)
	if err != nil {
		d.fail(ctx, "Failed to load actions", err)
		return
	}
	d.renderer.RenderActions(actions)
	d.draw()
}

// RefreshLogs re-fetches and re-renders the logs table
func (d *Dashboard) RefreshLogs(ctx context.Context) {
	logs, err := d.backend.ListLogs(ctx)
	if err != nil {
		d.fail(ctx, "Failed to load logs", err)
		return
	}
	d.renderer.RenderLogs(logs)
	d.draw()
}

// Trigger fires the named action and then refreshes the logs, whatever the outcome
func (d *Dashboard) Trigger(ctx context.Context, name string) error {
	err := d.backend.Trigger(ctx, name)
	if err != nil {
		d.fail(ctx, "Error triggering action", err)
	} else {
		d.log.Info("action triggered", zap.String("name", name))
	}
	d.RefreshLogs(ctx)
	return err
}

func (d *Dashboard) fail(ctx context.Context, msg string, err error) {
	if ctx.Err() != nil {
		// Abandoned on shutdown; nothing to tell the user.
		return
	}
	d.log.Debug(msg, zap.Error(err))
	if d.alerter != nil {
		d.alerter.Alert(msg, err)
	}
}

// SetFooter sets a line printed below the tables on every redraw
func (d *Dashboard) SetFooter(footer string) {
	d.screenMu.Lock()
	defer d.screenMu.Unlock()
	d.footer = footer
}

// Redraw repaints the screen from the current tables without fetching
func (d *Dashboard) Redraw() {
	d.draw()
}

func (d *Dashboard) draw() {
	if d.screen == nil {
		return
	}
	d.screenMu.Lock()
	defer d.screenMu.Unlock()
	io.WriteString(d.screen, clearScreen)
	d.renderer.Draw(d.screen)
	if d.footer != "" {
		io.WriteString(d.screen, "\n"+d.footer+"\n")
	}
}

const clearScreen = "\033[H\033[2J"
