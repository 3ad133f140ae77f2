// Package backendtest provides an in-memory companion backend for tests.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vedsharma/companionctl/internal/model"
)

// Backend implements the actions/logs/trigger REST contract in memory
type Backend struct {
	// Execute decides the outcome of a trigger. Defaults to success with a 200 status text.
	Execute func(model.Action) (bool, string)

	// Fault, when set and returning a non-zero status, short-circuits the request with that status.
	Fault func(r *http.Request) int

	mu       sync.Mutex
	actions  map[string]model.Action
	logs     []model.LogEntry
	nextID   int
	requests []string
	ids      []string
	now      func() time.Time
}

// New returns an empty backend with sequential ids starting at "1"
func New() *Backend {
	return &Backend{
		actions: make(map[string]model.Action),
		nextID:  1,
		now:     time.Now,
	}
}

// Start serves the backend on a local test server closed at test cleanup
func Start(t interface{ Cleanup(func()) }) (*Backend, *httptest.Server) {
	b := New()
	srv := httptest.NewServer(b.Router())
	t.Cleanup(srv.Close)
	return b, srv
}

// Router returns the chi router serving the REST contract
func (b *Backend) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Route("/actions", func(r chi.Router) {
		r.Get("/", b.listActions)
		r.Post("/", b.createAction)
		r.Get("/{id}", b.getAction)
		r.Put("/{id}", b.updateAction)
		r.Delete("/{id}", b.deleteAction)
	})
	r.Get("/logs", b.listLogs)
	r.Get("/trigger/{name}", b.trigger)

	return r
}

// Seed stores an action directly, assigning the next id when none is set
func (b *Backend) Seed(a model.Action) model.Action {
	b.mu.Lock()
	defer b.mu.Unlock()

	if a.ID == "" {
		a.ID = b.allocID()
	} else if n, err := strconv.Atoi(a.ID); err == nil && n >= b.nextID {
		b.nextID = n + 1
	}
	if a.Headers == nil {
		a.Headers = map[string]string{}
	}
	b.actions[a.ID] = a
	return a
}

// SeedLog appends a log entry directly
func (b *Backend) SeedLog(e model.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = append(b.logs, e)
}

// Remove deletes an action without going through HTTP, as another client would
func (b *Backend) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.actions, id)
}

// Requests returns "METHOD /path" for every request received, in order
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Count returns how many received requests match "METHOD /path" exactly
func (b *Backend) Count(req string) int {
	n := 0
	for _, r := range b.Requests() {
		if r == req {
			n++
		}
	}
	return n
}

// RequestIDs returns the X-Request-ID header of every request received
func (b *Backend) RequestIDs() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.ids...)
}

// Logs returns a copy of the stored log entries
func (b *Backend) Logs() []model.LogEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.LogEntry(nil), b.logs...)
}

func (b *Backend) allocID() string {
	id := strconv.Itoa(b.nextID)
	b.nextID++
	return id
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		path := r.URL.EscapedPath()
		b.requests = append(b.requests, r.Method+" "+path)
		b.ids = append(b.ids, r.Header.Get("X-Request-ID"))
		b.mu.Unlock()

		if b.Fault != nil {
			if status := b.Fault(r); status != 0 {
				http.Error(w, http.StatusText(status), status)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) listActions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	list := make([]model.Action, 0, len(b.actions))
	for _, a := range b.actions {
		list = append(list, a)
	}
	b.mu.Unlock()

	respondJSON(w, list)
}

func (b *Backend) getAction(w http.ResponseWriter, r *http.Request) {
	id := param(r, "id")

	b.mu.Lock()
	a, ok := b.actions[id]
	b.mu.Unlock()

	if !ok {
		http.Error(w, "Action not found", http.StatusNotFound)
		return
	}
	respondJSON(w, a)
}

func (b *Backend) createAction(w http.ResponseWriter, r *http.Request) {
	var a model.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if a.URL == "" {
		http.Error(w, "URL is required", http.StatusBadRequest)
		return
	}
	if a.Method == "" {
		a.Method = "POST"
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.nameTaken(a.Name, "") {
		http.Error(w, "Action name must be unique", http.StatusBadRequest)
		return
	}
	a.ID = b.allocID()
	b.actions[a.ID] = a

	respondJSON(w, a)
}

func (b *Backend) updateAction(w http.ResponseWriter, r *http.Request) {
	id := param(r, "id")

	var a model.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		http.Error(w, "Invalid JSON request body", http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.actions[id]; !ok {
		http.Error(w, "Action not found", http.StatusNotFound)
		return
	}
	if b.nameTaken(a.Name, id) {
		http.Error(w, "Action name must be unique", http.StatusBadRequest)
		return
	}
	a.ID = id
	b.actions[id] = a

	respondJSON(w, a)
}

func (b *Backend) deleteAction(w http.ResponseWriter, r *http.Request) {
	id := param(r, "id")

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.actions[id]; !ok {
		http.Error(w, "Action not found", http.StatusNotFound)
		return
	}
	delete(b.actions, id)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listLogs(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	logs := append([]model.LogEntry{}, b.logs...)
	b.mu.Unlock()

	respondJSON(w, logs)
}

func (b *Backend) trigger(w http.ResponseWriter, r *http.Request) {
	name := param(r, "name")

	b.mu.Lock()
	var action model.Action
	for _, a := range b.actions {
		if a.Name == name {
			action = a
			break
		}
	}
	b.mu.Unlock()

	if action.ID == "" {
		http.Error(w, "Action not found", http.StatusNotFound)
		return
	}

	execute := b.Execute
	if execute == nil {
		execute = func(model.Action) (bool, string) { return true, "Status: 200 OK" }
	}
	success, msg := execute(action)

	b.mu.Lock()
	b.logs = append(b.logs, model.LogEntry{
		Timestamp: b.now(),
		ActionID:  action.ID,
		Success:   success,
		Response:  msg,
	})
	b.mu.Unlock()

	fmt.Fprintf(w, "Action triggered: %s (Success: %v)", msg, success)
}

// nameTaken must be called with b.mu held
func (b *Backend) nameTaken(name, exceptID string) bool {
	for id, a := range b.actions {
		if id != exceptID && a.Name == name {
			return true
		}
	}
	return false
}

func param(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func respondJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
