// Package editor holds the action form session: create/edit state, the
// name-uniqueness snapshot, header rows, and the two-step delete confirmation.
package editor

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	httpclient "github.com/vedsharma/companionctl/internal/http"
	"github.com/vedsharma/companionctl/internal/model"
)

const (
	msgNameTaken    = "Action name must be unique."
	msgNameRequired = "Action name is required."

	defaultMethod = "POST"
)

// ErrClosed is returned when submitting while no form is open
var ErrClosed = errors.New("editor is not open")

// ActionStore is the backend surface the editor needs
type ActionStore interface {
	ListActions(ctx context.Context) ([]model.Action, error)
	GetAction(ctx context.Context, id string) (model.Action, error)
	CreateAction(ctx context.Context, draft model.Action) (model.Action, error)
	UpdateAction(ctx context.Context, id string, draft model.Action) (model.Action, error)
	DeleteAction(ctx context.Context, id string) error
}

// State is the form lifecycle state
type State int

const (
	StateClosed State = iota
	StateCreate
	StateEdit
)

func (s State) String() string {
	switch s {
	case StateCreate:
		return "open-create"
	case StateEdit:
		return "open-edit"
	default:
		return "closed"
	}
}

// HeaderRow is one editable header key/value pair
type HeaderRow struct {
	Key   string
	Value string
}

// Form holds the raw field values as entered
type Form struct {
	Name    string
	URL     string
	Method  string
	Body    string
	Headers []HeaderRow
}

// Editor is the session object owning the currently edited action id and
// the delete staging. The refresh scheduler reads it only through PollingEnabled.
type Editor struct {
	store     ActionStore
	log       *zap.Logger
	onChanged func(ctx context.Context)

	mu           sync.Mutex
	state        State
	actionID     string
	originalName string
	snapshot     map[string]struct{}
	form         Form
	nameErr      string
	lastErr      error

	confirmOpen   bool
	pendingDelete string
}

// New creates a closed editor. onChanged runs after every successful
// create, update or delete to force an actions refresh.
func New(store ActionStore, log *zap.Logger, onChanged func(ctx context.Context)) *Editor {
	if log == nil {
		log = zap.NewNop()
	}
	if onChanged == nil {
		onChanged = func(context.Context) {}
	}
	return &Editor{
		store:     store,
		log:       log,
		onChanged: onChanged,
		snapshot:  map[string]struct{}{},
	}
}

// OpenCreate opens an empty form for a new action
func (e *Editor) OpenCreate(ctx context.Context) {
	snapshot := e.fetchSnapshot(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateCreate
	e.actionID = ""
	e.originalName = ""
	e.snapshot = snapshot
	e.form = Form{}
	e.nameErr = ""
	e.lastErr = nil
}

// OpenEdit fetches the action and opens the form populated with it.
// On failure the editor stays closed.
func (e *Editor) OpenEdit(ctx context.Context, id string) error {
	action, err := e.store.GetAction(ctx, id)
	if err != nil {
		return err
	}
	snapshot := e.fetchSnapshot(ctx)

	rows := make([]HeaderRow, 0, len(action.Headers))
	for k, v := range action.Headers {
		rows = append(rows, HeaderRow{Key: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateEdit
	e.actionID = action.ID
	if e.actionID == "" {
		e.actionID = id
	}
	e.originalName = action.Name
	e.snapshot = snapshot
	e.form = Form{
		Name:    action.Name,
		URL:     action.URL,
		Method:  action.Method,
		Body:    action.Body,
		Headers: rows,
	}
	e.nameErr = ""
	e.lastErr = nil
	return nil
}

// fetchSnapshot lists current action names, lower-cased. A failed fetch
// leaves the snapshot empty and only the backend check applies.
func (e *Editor) fetchSnapshot(ctx context.Context) map[string]struct{} {
	snapshot := map[string]struct{}{}
	actions, err := e.store.ListActions(ctx)
	if err != nil {
		e.log.Warn("failed to fetch action names", zap.Error(err))
		return snapshot
	}
	for _, a := range actions {
		snapshot[strings.ToLower(a.Name)] = struct{}{}
	}
	return snapshot
}

// Cancel closes the form without saving
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeLocked()
}

func (e *Editor) closeLocked() {
	e.state = StateClosed
	e.actionID = ""
	e.originalName = ""
	e.form = Form{}
	e.nameErr = ""
	e.lastErr = nil
}

// State returns the form state and the bound action id in edit mode
func (e *Editor) State() (State, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.actionID
}

// PollingEnabled reports whether neither the form nor the delete confirmation is open
func (e *Editor) PollingEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateClosed && !e.confirmOpen
}

// SetName updates the name field and re-runs the uniqueness check.
// It returns the validation message, empty when the name is acceptable.
func (e *Editor) SetName(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Name = name
	e.nameErr = e.checkNameLocked(name)
	return e.nameErr
}

// CheckName runs the uniqueness check without changing the form
func (e *Editor) CheckName(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.checkNameLocked(name)
}

func (e *Editor) checkNameLocked(name string) string {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return msgNameRequired
	}
	if _, taken := e.snapshot[normalized]; taken && normalized != strings.ToLower(e.originalName) {
		return msgNameTaken
	}
	return ""
}

// NameError returns the current name validation message
func (e *Editor) NameError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nameErr
}

// CanSubmit reports whether the form is open and the name passes validation
func (e *Editor) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != StateClosed && e.checkNameLocked(e.form.Name) == ""
}

func (e *Editor) SetURL(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.URL = url
}

func (e *Editor) SetMethod(method string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Method = method
}

func (e *Editor) SetBody(body string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Body = body
}

// AddHeader appends a header row and returns its index
func (e *Editor) AddHeader(key, value string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Headers = append(e.form.Headers, HeaderRow{Key: key, Value: value})
	return len(e.form.Headers) - 1
}

// SetHeader replaces the header row at i; out of range indexes are ignored
func (e *Editor) SetHeader(i int, key, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.form.Headers) {
		return
	}
	e.form.Headers[i] = HeaderRow{Key: key, Value: value}
}

// RemoveHeader deletes the header row at i; out of range indexes are ignored
func (e *Editor) RemoveHeader(i int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.form.Headers) {
		return
	}
	e.form.Headers = append(e.form.Headers[:i], e.form.Headers[i+1:]...)
}

// Form returns a copy of the current field values
func (e *Editor) Form() Form {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := e.form
	f.Headers = append([]HeaderRow(nil), e.form.Headers...)
	return f
}

// LastError returns the error of the last failed submit, shown inline in the form
func (e *Editor) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

// Draft assembles the action that Submit would send
func (e *Editor) Draft() model.Action {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draftLocked()
}

func (e *Editor) draftLocked() model.Action {
	headers := make(map[string]string)
	for _, h := range e.form.Headers {
		if h.Key == "" || h.Value == "" {
			continue
		}
		headers[h.Key] = h.Value
	}

	method := strings.TrimSpace(e.form.Method)
	if method == "" {
		method = defaultMethod
	}

	return model.Action{
		ID:      e.actionID,
		Name:    strings.TrimSpace(e.form.Name),
		URL:     strings.TrimSpace(e.form.URL),
		Method:  method,
		Headers: headers,
		Body:    strings.TrimSpace(e.form.Body),
	}
}

// Submit creates or updates the action. On success the form closes and an
// actions refresh is forced; on failure the form stays open with its values.
func (e *Editor) Submit(ctx context.Context) (model.Action, error) {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return model.Action{}, ErrClosed
	}
	if msg := e.checkNameLocked(e.form.Name); msg != "" {
		e.nameErr = msg
		err := &httpclient.ValidationError{Op: "save action", Message: msg}
		e.lastErr = err
		e.mu.Unlock()
		return model.Action{}, err
	}
	draft := e.draftLocked()
	state, id := e.state, e.actionID
	e.mu.Unlock()

	var saved model.Action
	var err error
	if state == StateEdit {
		saved, err = e.store.UpdateAction(ctx, id, draft)
	} else {
		saved, err = e.store.CreateAction(ctx, draft)
	}

	if err != nil {
		e.mu.Lock()
		e.lastErr = err
		e.mu.Unlock()
		e.log.Info("action save failed", zap.String("name", draft.Name), zap.Error(err))
		return model.Action{}, err
	}

	e.mu.Lock()
	e.closeLocked()
	e.mu.Unlock()

	e.log.Info("action saved", zap.String("id", saved.ID), zap.String("name", saved.Name))
	e.onChanged(ctx)
	return saved, nil
}

// StageDelete records id for deletion and opens the confirmation
func (e *Editor) StageDelete(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingDelete = id
	e.confirmOpen = true
}

// PendingDelete returns the staged id, empty when nothing is staged
func (e *Editor) PendingDelete() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pendingDelete
}

// CancelDelete closes the confirmation and clears the staged id
func (e *Editor) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pendingDelete = ""
	e.confirmOpen = false
}

// ConfirmDelete deletes the staged action. Without a staged id it does nothing.
// On failure the confirmation stays open with the id still staged.
func (e *Editor) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	id := e.pendingDelete
	e.mu.Unlock()

	if id == "" {
		return nil
	}

	if err := e.store.DeleteAction(ctx, id); err != nil {
		e.log.Warn("action delete failed", zap.String("id", id), zap.Error(err))
		return err
	}

	e.CancelDelete()
	e.log.Info("action deleted", zap.String("id", id))
	e.onChanged(ctx)
	return nil
}
