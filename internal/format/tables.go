package format

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/vedsharma/companionctl/internal/model"
)

const timeLayout = "2006-01-02 15:04:05"

// ActionRow is one display row of the actions table
type ActionRow struct {
	ID     string
	Name   string
	URL    string
	Method string
}

// LogRow is one display row of the logs table
type LogRow struct {
	Timestamp  time.Time
	ActionID   string
	ActionName string
	Success    bool
	Response   string
}

// ActionRows converts actions into rows ordered by name (codepoint order, stable on ties)
func ActionRows(actions []model.Action) []ActionRow {
	rows := make([]ActionRow, 0, len(actions))
	for _, a := range actions {
		rows = append(rows, ActionRow{ID: a.ID, Name: a.Name, URL: a.URL, Method: a.Method})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Name < rows[j].Name
	})
	return rows
}

// NameIndex maps action id to action name
func NameIndex(actions []model.Action) map[string]string {
	index := make(map[string]string, len(actions))
	for _, a := range actions {
		index[a.ID] = a.Name
	}
	return index
}

// LogRows converts logs into rows, newest first, resolving action names through
// names and falling back to the raw id for unknown actions
func LogRows(logs []model.LogEntry, names map[string]string) []LogRow {
	rows := make([]LogRow, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		entry := logs[i]
		name, ok := names[entry.ActionID]
		if !ok {
			name = entry.ActionID
		}
		rows = append(rows, LogRow{
			Timestamp:  entry.Timestamp,
			ActionID:   entry.ActionID,
			ActionName: name,
			Success:    entry.Success,
			Response:   entry.Response,
		})
	}
	return rows
}

// Renderer holds the currently displayed tables. Each render fully replaces
// one table; Draw writes both.
type Renderer struct {
	mu       sync.Mutex
	actions  []ActionRow
	names    map[string]string
	entries  []model.LogEntry
	logs     []LogRow
	logLimit int
}

// NewRenderer creates a renderer showing at most logLimit log rows (0 for all)
func NewRenderer(logLimit int) *Renderer {
	return &Renderer{
		names:    map[string]string{},
		logLimit: logLimit,
	}
}

// RenderActions replaces the actions table and the id to name index, and
// re-resolves the rendered log rows against the new names
func (r *Renderer) RenderActions(actions []model.Action) {
	rows := ActionRows(actions)
	names := NameIndex(actions)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = rows
	r.names = names
	r.logs = LogRows(r.entries, names)
}

// RenderLogs replaces the logs table, resolving names against the rendered actions
func (r *Renderer) RenderLogs(logs []model.LogEntry) {
	entries := append([]model.LogEntry(nil), logs...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
	r.logs = LogRows(entries, r.names)
}

// ActionName resolves id against the rendered actions, falling back to id
func (r *Renderer) ActionName(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name, ok := r.names[id]; ok {
		return name
	}
	return id
}

// Actions returns a copy of the rendered action rows
func (r *Renderer) Actions() []ActionRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ActionRow(nil), r.actions...)
}

// Logs returns a copy of the rendered log rows
func (r *Renderer) Logs() []LogRow {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogRow(nil), r.logs...)
}

// Draw writes both tables to w
func (r *Renderer) Draw(w io.Writer) {
	actions := r.Actions()
	logs := r.Logs()

	colors().heading.Fprintln(w, "Actions")
	WriteActionsTable(w, actions)
	fmt.Fprintln(w)
	colors().heading.Fprintln(w, "Logs")
	WriteLogsTable(w, logs, r.logLimit)
}

// WriteActionsTable writes action rows as an aligned table
func WriteActionsTable(w io.Writer, rows []ActionRow) {
	p := colors()
	if len(rows) == 0 {
		p.dim.Fprintln(w, "No actions found")
		return
	}

	lines := tabulate("NAME\tURL\tMETHOD\tID", len(rows), func(i int) string {
		row := rows[i]
		return strings.Join([]string{cell(row.Name), cell(row.URL), cell(row.Method), cell(row.ID)}, "\t")
	})

	p.dim.Fprintln(w, lines[0])
	for _, line := range lines[1:] {
		fmt.Fprintln(w, line)
	}
}

// WriteLogsTable writes log rows as an aligned table, at most limit rows when limit > 0
func WriteLogsTable(w io.Writer, rows []LogRow, limit int) {
	p := colors()
	if len(rows) == 0 {
		p.dim.Fprintln(w, "No logs found")
		return
	}

	count := len(rows)
	if limit > 0 && limit < count {
		count = limit
	}

	lines := tabulate("TIME\tACTION\tSTATUS\tRESPONSE", count, func(i int) string {
		row := rows[i]
		status := "✗ Error"
		if row.Success {
			status = "✓ Success"
		}
		return strings.Join([]string{
			row.Timestamp.Local().Format(timeLayout),
			cell(row.ActionName),
			status,
			cell(row.Response),
		}, "\t")
	})

	p.dim.Fprintln(w, lines[0])
	for i, line := range lines[1:] {
		if rows[i].Success {
			p.success.Fprintln(w, line)
		} else {
			p.failure.Fprintln(w, line)
		}
	}

	if count < len(rows) {
		p.dim.Fprintf(w, "... and %d more entries\n", len(rows)-count)
	}
}

// tabulate aligns a header plus n rows and returns one string per line.
// Colors are applied per line afterwards so escape codes never skew column widths.
func tabulate(header string, n int, row func(i int) string) []string {
	var buf bytes.Buffer
	tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for i := 0; i < n; i++ {
		fmt.Fprintln(tw, row(i))
	}
	tw.Flush()

	return strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
}
