package cmd

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vedsharma/companionctl/internal/backendtest"
	"github.com/vedsharma/companionctl/internal/config"
	"github.com/vedsharma/companionctl/internal/dashboard"
	"github.com/vedsharma/companionctl/internal/editor"
	"github.com/vedsharma/companionctl/internal/format"
	httpclient "github.com/vedsharma/companionctl/internal/http"
	"github.com/vedsharma/companionctl/internal/model"
	"github.com/vedsharma/companionctl/internal/storage"
)

func init() {
	color.NoColor = true
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		in         string
		key, value string
		ok         bool
	}{
		{"Authorization: Bearer x", "Authorization", "Bearer x", true},
		{"X-Url:http://a:b", "X-Url", "http://a:b", true},
		{"  Accept :  */*  ", "Accept", "*/*", true},
		{"no-colon", "", "", false},
	}

	for _, tt := range tests {
		key, value, ok := parseHeader(tt.in)
		if key != tt.key || value != tt.value || ok != tt.ok {
			t.Errorf("parseHeader(%q) = %q, %q, %v", tt.in, key, value, ok)
		}
	}
}

func TestFindAction(t *testing.T) {
	actions := []model.Action{
		{ID: "1", Name: "Deploy"},
		{ID: "2", Name: "1"},
	}

	if a, err := findAction(actions, "deploy"); err != nil || a.ID != "1" {
		t.Errorf("expected case-insensitive name match, got %+v %v", a, err)
	}
	if a, err := findAction(actions, "1"); err != nil || a.ID != "1" {
		t.Errorf("expected id to win over name, got %+v %v", a, err)
	}

	_, err := findAction(actions, "missing")
	var nf *httpclient.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFoundError, got %v", err)
	}
}

func TestApplyFormFlags(t *testing.T) {
	backend, srv := backendtest.Start(t)
	backend.Seed(model.Action{Name: "ping", URL: "http://old", Method: "GET", Headers: map[string]string{"X-Old": "1"}})
	client, err := httpclient.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	ed := editor.New(client, nil, nil)
	if err := ed.OpenEdit(context.Background(), "1"); err != nil {
		t.Fatalf("OpenEdit: %v", err)
	}

	c := &cobra.Command{Use: "edit"}
	addFormFlags(c)
	c.Flags().Set("url", "http://new")
	c.Flags().Set("header", "X-New: 2")

	if !formFlagsSet(c) {
		t.Fatal("expected flags reported as set")
	}
	if err := applyFormFlags(c, ed); err != nil {
		t.Fatalf("applyFormFlags: %v", err)
	}

	draft := ed.Draft()
	if draft.Name != "ping" || draft.URL != "http://new" || draft.Method != "GET" {
		t.Errorf("unexpected draft %+v", draft)
	}
	if len(draft.Headers) != 1 || draft.Headers["X-New"] != "2" {
		t.Errorf("expected headers replaced, got %v", draft.Headers)
	}

	bad := &cobra.Command{Use: "add"}
	addFormFlags(bad)
	bad.Flags().Set("header", "broken")
	if err := applyFormFlags(bad, ed); err == nil {
		t.Error("expected error for malformed header")
	}
}

func TestReadLinesWaitsForAck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines, ack := readLines(ctx, strings.NewReader("n\nq\n"))

	if got := <-lines; got != "n" {
		t.Fatalf("expected first line n, got %q", got)
	}

	select {
	case got := <-lines:
		t.Fatalf("line %q delivered before ack", got)
	case <-time.After(50 * time.Millisecond):
	}

	ack <- struct{}{}
	if got := <-lines; got != "q" {
		t.Fatalf("expected second line q, got %q", got)
	}
	ack <- struct{}{}

	if _, ok := <-lines; ok {
		t.Error("expected channel closed at EOF")
	}
}

func TestWatchSessionCommands(t *testing.T) {
	backend, srv := backendtest.Start(t)
	backend.Seed(model.Action{Name: "Ping", URL: "http://x"})
	client, err := httpclient.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var alerts []string
	dash := dashboard.New(client, format.NewRenderer(0), dashboard.AlertFunc(func(msg string, err error) {
		alerts = append(alerts, msg)
	}), nil, nil)
	s := &watchSession{dash: dash, ed: editor.New(client, nil, dash.RefreshActions)}

	ctx := context.Background()
	if s.handle(ctx, "r") {
		t.Fatal("refresh should not quit")
	}
	if len(dash.Renderer().Actions()) != 1 {
		t.Fatalf("expected actions loaded, got %v", dash.Renderer().Actions())
	}

	// Case-insensitive lookup sends the stored name.
	s.handle(ctx, "t ping")
	if backend.Count("GET /trigger/Ping") != 1 {
		t.Errorf("expected trigger by stored name, got %v", backend.Requests())
	}
	logs := dash.Renderer().Logs()
	if len(logs) != 1 || logs[0].ActionName != "Ping" {
		t.Errorf("expected log row for Ping, got %+v", logs)
	}

	// Unknown names still reach the backend.
	s.handle(ctx, "t ghost")
	if backend.Count("GET /trigger/ghost") != 1 {
		t.Errorf("expected unknown name forwarded, got %v", backend.Requests())
	}
	if len(alerts) != 0 {
		t.Errorf("expected no alerts, got %v", alerts)
	}

	if !s.handle(ctx, "q") {
		t.Error("q should quit")
	}
}

func TestTriggerFailureClosesStore(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	s, err := storage.NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}

	prevCfg, prevStore, prevExit := cfg, store, osExit
	t.Cleanup(func() { cfg, store, osExit = prevCfg, prevStore, prevExit })

	cfg = config.DefaultConfig()
	cfg.Server = srv.URL
	store = s
	code := -1
	osExit = func(c int) { code = c }

	c := &cobra.Command{Use: "trigger"}
	c.SetContext(context.Background())
	runTrigger(c, []string{"ping"})

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if _, _, err := s.GetSetting(storage.ThemeKey); err == nil {
		t.Error("expected store closed before exit")
	}
}
