package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"

	"github.com/vedsharma/companionctl/internal/editor"
	"github.com/vedsharma/companionctl/internal/format"
	httpclient "github.com/vedsharma/companionctl/internal/http"
	"github.com/vedsharma/companionctl/internal/model"
)

var methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// errCancelled is returned when the user backs out of a prompt
var errCancelled = errors.New("cancelled")

// parseHeader splits "Key: Value"
func parseHeader(h string) (string, string, bool) {
	key, value, ok := strings.Cut(h, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// promptErr maps promptui aborts to errCancelled
func promptErr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return errCancelled
	}
	return err
}

// promptForm walks the open editor form field by field. The name prompt
// refuses names taken by another action.
func promptForm(ed *editor.Editor) error {
	f := ed.Form()

	name, err := (&promptui.Prompt{
		Label:     "Name",
		Default:   f.Name,
		AllowEdit: true,
		Validate: func(s string) error {
			if msg := ed.CheckName(s); msg != "" {
				return errors.New(msg)
			}
			return nil
		},
	}).Run()
	if err != nil {
		return promptErr(err)
	}
	ed.SetName(name)

	url, err := (&promptui.Prompt{
		Label:     "URL",
		Default:   f.URL,
		AllowEdit: true,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("URL is required")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return promptErr(err)
	}
	ed.SetURL(url)

	cursor := 1 // POST
	for i, m := range methods {
		if strings.EqualFold(m, f.Method) {
			cursor = i
		}
	}
	_, method, err := (&promptui.Select{
		Label:     "Method",
		Items:     methods,
		CursorPos: cursor,
	}).Run()
	if err != nil {
		return promptErr(err)
	}
	ed.SetMethod(method)

	validHeader := func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		if _, _, ok := parseHeader(s); !ok {
			return errors.New("expected 'Key: Value'")
		}
		return nil
	}

	// Existing rows: clearing the line removes the header.
	for i, h := range f.Headers {
		line, err := (&promptui.Prompt{
			Label:     fmt.Sprintf("Header %d (clear to remove)", i+1),
			Default:   h.Key + ": " + h.Value,
			AllowEdit: true,
			Validate:  validHeader,
		}).Run()
		if err != nil {
			return promptErr(err)
		}
		key, value, _ := parseHeader(line)
		ed.SetHeader(i, key, value)
	}

	for {
		line, err := (&promptui.Prompt{
			Label:    "Add header 'Key: Value' (empty to finish)",
			Validate: validHeader,
		}).Run()
		if err != nil {
			return promptErr(err)
		}
		if strings.TrimSpace(line) == "" {
			break
		}
		key, value, _ := parseHeader(line)
		ed.AddHeader(key, value)
	}

	body, err := (&promptui.Prompt{
		Label:     "Body",
		Default:   f.Body,
		AllowEdit: true,
	}).Run()
	if err != nil {
		return promptErr(err)
	}
	ed.SetBody(body)

	return nil
}

// runForm prompts and submits until the save succeeds or the user gives up.
// The editor is always closed on return.
func runForm(ctx context.Context, ed *editor.Editor) (model.Action, error) {
	for {
		if err := promptForm(ed); err != nil {
			ed.Cancel()
			return model.Action{}, err
		}

		saved, err := ed.Submit(ctx)
		if err == nil {
			return saved, nil
		}

		format.PrintError(fmt.Sprintf("Failed to save action: %v", err))
		if !confirm("Edit and retry") {
			ed.Cancel()
			return model.Action{}, err
		}
	}
}

// confirm asks a yes/no question, defaulting to no
func confirm(label string) bool {
	_, err := (&promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}).Run()
	return err == nil
}

// resolveAction finds an action by id or by case-insensitive name
func resolveAction(ctx context.Context, client *httpclient.Client, ref string) (model.Action, error) {
	actions, err := client.ListActions(ctx)
	if err != nil {
		return model.Action{}, err
	}
	return findAction(actions, ref)
}

func findAction(actions []model.Action, ref string) (model.Action, error) {
	for _, a := range actions {
		if a.ID == ref {
			return a, nil
		}
	}
	for _, a := range actions {
		if strings.EqualFold(a.Name, ref) {
			return a, nil
		}
	}
	return model.Action{}, &httpclient.NotFoundError{ID: ref}
}
