package model

import (
	"time"
)

// Action represents a named, reusable HTTP request template stored by the backend
type Action struct {
	ID      string            `json:"id,omitempty"`
	Name    string            `json:"name"`
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// LogEntry represents the outcome of one trigger, recorded by the backend
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	ActionID  string    `json:"action_id"`
	Success   bool      `json:"success"`
	Response  string    `json:"response"`
}

// Response represents a raw HTTP response from the backend
type Response struct {
	StatusCode int               `json:"status_code"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	DurationMs int64             `json:"duration_ms"`
	Truncated  bool              `json:"truncated,omitempty"`
}

// OK reports whether the response carries a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Theme is the terminal color scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme returns the theme for s, falling back to light for unknown values
func ParseTheme(s string) Theme {
	if Theme(s) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// Toggle returns the opposite theme
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Settings represents client-local key/value preferences storage
type Settings struct {
	Values map[string]string `json:"settings"`
}

// Servers represents all named backend endpoints storage
type Servers struct {
	Servers map[string]string `json:"servers"` // name -> base URL
}
