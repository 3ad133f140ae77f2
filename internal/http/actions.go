package http

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vedsharma/companionctl/internal/model"
)

// ListActions fetches every action stored by the backend
func (c *Client) ListActions(ctx context.Context) ([]model.Action, error) {
	const op = "list actions"

	resp, err := c.do(ctx, "GET", "/actions", nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if !resp.OK() {
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	var actions []model.Action
	if err := decode(resp, &actions); err != nil {
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if actions == nil {
		actions = []model.Action{}
	}
	return actions, nil
}

// GetAction fetches a single action for editing
func (c *Client) GetAction(ctx context.Context, id string) (model.Action, error) {
	resp, err := c.do(ctx, "GET", "/actions/"+segment(id), nil)
	if err != nil {
		return model.Action{}, &NetworkError{Op: "get action", Err: err}
	}
	if !resp.OK() {
		return model.Action{}, &NotFoundError{ID: id}
	}

	var action model.Action
	if err := decode(resp, &action); err != nil {
		return model.Action{}, &NetworkError{Op: "get action", StatusCode: resp.StatusCode, Err: err}
	}
	return action, nil
}

// CreateAction submits a new action; the backend assigns its id
func (c *Client) CreateAction(ctx context.Context, draft model.Action) (model.Action, error) {
	draft.ID = ""
	return c.save(ctx, "create action", "POST", "/actions", draft)
}

// UpdateAction replaces the action identified by id with draft
func (c *Client) UpdateAction(ctx context.Context, id string, draft model.Action) (model.Action, error) {
	draft.ID = id
	return c.save(ctx, "update action", "PUT", "/actions/"+segment(id), draft)
}

func (c *Client) save(ctx context.Context, op, method, path string, draft model.Action) (model.Action, error) {
	if draft.Headers == nil {
		draft.Headers = map[string]string{}
	}

	resp, err := c.do(ctx, method, path, draft)
	if err != nil {
		return model.Action{}, &NetworkError{Op: op, Err: err}
	}
	if !resp.OK() {
		msg := strings.TrimSpace(resp.Body)
		if msg == "" {
			msg = resp.Status
		}
		c.log.Info("backend rejected action",
			zap.String("op", op),
			zap.String("name", draft.Name),
			zap.Int("status", resp.StatusCode))
		return model.Action{}, &ValidationError{Op: op, Message: msg}
	}

	var saved model.Action
	if err := decode(resp, &saved); err != nil {
		return model.Action{}, &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	return saved, nil
}

// DeleteAction removes the action identified by id
func (c *Client) DeleteAction(ctx context.Context, id string) error {
	const op = "delete action"

	resp, err := c.do(ctx, "DELETE", "/actions/"+segment(id), nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	if !resp.OK() {
		return &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}
	return nil
}

// ListLogs fetches the trigger log in backend order (oldest first)
func (c *Client) ListLogs(ctx context.Context) ([]model.LogEntry, error) {
	const op = "list logs"

	resp, err := c.do(ctx, "GET", "/logs", nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if !resp.OK() {
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode}
	}

	var logs []model.LogEntry
	if err := decode(resp, &logs); err != nil {
		return nil, &NetworkError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if logs == nil {
		logs = []model.LogEntry{}
	}
	return logs, nil
}

// Trigger asks the backend to execute the named action.
// The execution outcome is recorded as a log entry; only transport failures are returned.
func (c *Client) Trigger(ctx context.Context, name string) error {
	resp, err := c.do(ctx, "GET", "/trigger/"+segment(name), nil)
	if err != nil {
		return &NetworkError{Op: "trigger action", Err: err}
	}
	c.log.Debug("trigger sent", zap.String("name", name), zap.Int("status", resp.StatusCode))
	return nil
}

// ErrTruncated marks a response body cut at the size limit
var ErrTruncated = fmt.Errorf("response body truncated (exceeded %d MB limit)", MaxResponseSize/(1024*1024))

func decode(resp *model.Response, v any) error {
	if resp.Truncated {
		return ErrTruncated
	}
	if err := json.Unmarshal([]byte(resp.Body), v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
