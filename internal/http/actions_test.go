package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vedsharma/companionctl/internal/backendtest"
	"github.com/vedsharma/companionctl/internal/model"
)

func newTestClient(t *testing.T) (*Client, *backendtest.Backend) {
	t.Helper()
	backend, srv := backendtest.Start(t)
	c, err := NewClient(srv.URL + "/")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, backend
}

func TestNewClientRejectsBadURL(t *testing.T) {
	tests := []string{"", "ftp://example.com", "http://", "localhost:8080"}
	for _, raw := range tests {
		if _, err := NewClient(raw); err == nil {
			t.Errorf("NewClient(%q): expected error", raw)
		}
	}
}

func TestCreateAndList(t *testing.T) {
	c, backend := newTestClient(t)
	ctx := context.Background()

	created, err := c.CreateAction(ctx, model.Action{
		ID:     "ignored",
		Name:   "ping",
		URL:    "http://x",
		Method: "GET",
	})
	if err != nil {
		t.Fatalf("CreateAction: %v", err)
	}
	if created.ID != "1" {
		t.Errorf("expected id 1, got %q", created.ID)
	}
	if created.Headers == nil {
		t.Error("expected non-nil headers map")
	}

	actions, err := c.ListActions(ctx)
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if len(actions) != 1 || actions[0].Name != "ping" {
		t.Fatalf("unexpected actions: %+v", actions)
	}

	for _, id := range backend.RequestIDs() {
		if id == "" {
			t.Error("expected every request to carry a request id")
		}
	}
}

func TestListEmpty(t *testing.T) {
	c, _ := newTestClient(t)

	actions, err := c.ListActions(context.Background())
	if err != nil {
		t.Fatalf("ListActions: %v", err)
	}
	if actions == nil || len(actions) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", actions)
	}

	logs, err := c.ListLogs(context.Background())
	if err != nil {
		t.Fatalf("ListLogs: %v", err)
	}
	if logs == nil || len(logs) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", logs)
	}
}

func TestListNonSuccessIsNetworkError(t *testing.T) {
	c, backend := newTestClient(t)
	backend.Fault = func(r *http.Request) int { return http.StatusInternalServerError }

	_, err := c.ListActions(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if netErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", netErr.StatusCode)
	}

	_, err = c.ListLogs(context.Background())
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestMalformedJSONIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = c.ListActions(context.Background())
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(url)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	var netErr *NetworkError
	if err := c.Trigger(context.Background(), "ping"); !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError from trigger, got %v", err)
	}
	if err := c.DeleteAction(context.Background(), "1"); !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError from delete, got %v", err)
	}
}

func TestGetMissingIsNotFound(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.GetAction(context.Background(), "missing")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ID != "missing" {
		t.Errorf("expected id 'missing', got %q", nf.ID)
	}
}

func TestDuplicateNameIsValidationError(t *testing.T) {
	c, backend := newTestClient(t)
	backend.Seed(model.Action{Name: "ping", URL: "http://x", Method: "GET"})

	_, err := c.CreateAction(context.Background(), model.Action{Name: "ping", URL: "http://y"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Message != "Action name must be unique" {
		t.Errorf("unexpected message %q", ve.Message)
	}
}

func TestUpdateAction(t *testing.T) {
	c, backend := newTestClient(t)
	seeded := backend.Seed(model.Action{Name: "ping", URL: "http://x", Method: "GET"})
	other := backend.Seed(model.Action{Name: "pong", URL: "http://x", Method: "GET"})

	updated, err := c.UpdateAction(context.Background(), seeded.ID, model.Action{
		Name:    "ping2",
		URL:     "http://z",
		Method:  "PUT",
		Headers: map[string]string{"X-Key": "v"},
	})
	if err != nil {
		t.Fatalf("UpdateAction: %v", err)
	}
	if updated.ID != seeded.ID || updated.Name != "ping2" || updated.Headers["X-Key"] != "v" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	_, err = c.UpdateAction(context.Background(), seeded.ID, model.Action{Name: other.Name, URL: "http://z"})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestDeleteAction(t *testing.T) {
	c, backend := newTestClient(t)
	seeded := backend.Seed(model.Action{Name: "ping", URL: "http://x"})

	if err := c.DeleteAction(context.Background(), seeded.ID); err != nil {
		t.Fatalf("DeleteAction: %v", err)
	}

	err := c.DeleteAction(context.Background(), seeded.ID)
	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 NetworkError, got %v", err)
	}
}

func TestTriggerEscapesNameAndIgnoresStatus(t *testing.T) {
	c, backend := newTestClient(t)
	backend.Seed(model.Action{Name: "say hi/there", URL: "http://x"})

	if err := c.Trigger(context.Background(), "say hi/there"); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if got := backend.Count("GET /trigger/say%20hi%2Fthere"); got != 1 {
		t.Errorf("expected escaped trigger path, got requests %v", backend.Requests())
	}
	if len(backend.Logs()) != 1 {
		t.Errorf("expected one log entry, got %d", len(backend.Logs()))
	}

	// Unknown names produce a 404 that is not inspected.
	if err := c.Trigger(context.Background(), "missing"); err != nil {
		t.Errorf("expected nil error for non-2xx trigger, got %v", err)
	}
}

func TestOversizedResponseReportsTruncation(t *testing.T) {
	c, backend := newTestClient(t)
	backend.Seed(model.Action{Name: "a-rather-long-action-name", URL: "http://x"})
	c.maxBody = 16

	_, err := c.ListActions(context.Background())
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("expected NetworkError wrapper, got %T", err)
	}

	// Bodies at the limit are not truncated.
	c.maxBody = MaxResponseSize
	if _, err := c.ListActions(context.Background()); err != nil {
		t.Errorf("unexpected error under the limit: %v", err)
	}
}
