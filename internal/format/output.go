package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/fatih/color"

	"github.com/vedsharma/companionctl/internal/model"
)

// sanitizeOutput removes or escapes potentially dangerous control characters
// that could manipulate terminal display or execute commands
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			// Allow common whitespace characters
			result.WriteRune(r)
		case r == '\x1b':
			// Escape ANSI escape sequences - replace ESC with visible representation
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

// cell sanitizes s for a single-line table cell
func cell(s string) string {
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ").Replace(s)
	return sanitizeOutput(s)
}

// sensitiveHeaders lists header names whose values are masked unless revealed
var sensitiveHeaders = map[string]bool{
	// Standard authentication headers
	"authorization":       true,
	"proxy-authorization": true,

	// Session and token headers
	"cookie":       true,
	"x-api-key":    true,
	"api-key":      true,
	"x-auth-token": true,
	"x-csrf-token": true,

	// Cloud credentials
	"x-amz-security-token":     true,
	"x-goog-iap-jwt-assertion": true,

	// Other common auth headers
	"x-access-token":  true,
	"x-refresh-token": true,
	"x-session-token": true,
	"x-secret-key":    true,
}

// maskHeader hides the value of a sensitive header
func maskHeader(key, value string) string {
	if !sensitiveHeaders[strings.ToLower(key)] || value == "" {
		return value
	}
	return "[REDACTED]"
}

func prettyJSON(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		// Not valid JSON, return as-is
		return s
	}
	return out.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// palette groups the colors used for one theme
type palette struct {
	success *color.Color
	failure *color.Color
	heading *color.Color
	name    *color.Color
	method  *color.Color
	url     *color.Color
	dim     *color.Color
}

var palettes = map[model.Theme]palette{
	model.ThemeLight: {
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
		heading: color.New(color.FgBlack, color.Bold, color.Underline),
		name:    color.New(color.FgCyan),
		method:  color.New(color.FgMagenta, color.Bold),
		url:     color.New(color.FgBlue),
		dim:     color.New(color.Faint),
	},
	model.ThemeDark: {
		success: color.New(color.FgHiGreen, color.Bold),
		failure: color.New(color.FgHiRed, color.Bold),
		heading: color.New(color.FgHiWhite, color.Bold, color.Underline),
		name:    color.New(color.FgHiCyan),
		method:  color.New(color.FgHiMagenta, color.Bold),
		url:     color.New(color.FgHiBlue),
		dim:     color.New(color.FgWhite),
	},
}

var (
	themeMu sync.RWMutex
	current = palettes[model.ThemeLight]
)

// SetTheme switches the palette used by every printer
func SetTheme(t model.Theme) {
	p, ok := palettes[t]
	if !ok {
		p = palettes[model.ThemeLight]
	}
	themeMu.Lock()
	current = p
	themeMu.Unlock()
}

func colors() palette {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return current
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	colors().success.Printf("✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	colors().failure.Printf("✗ %s\n", msg)
}

// PrintAlert prints a blocking, user-visible failure to stderr
func PrintAlert(w io.Writer, msg string) {
	if w == nil {
		w = os.Stderr
	}
	colors().failure.Fprintf(w, "! %s\n", sanitizeOutput(msg))
}

// PrintServerList prints the named backend servers
func PrintServerList(servers *model.Servers) {
	if len(servers.Servers) == 0 {
		colors().dim.Println("No servers found")
		return
	}

	p := colors()
	fmt.Println("Servers:")
	for _, name := range sortedKeys(servers.Servers) {
		p.name.Printf("  %s ", sanitizeOutput(name))
		p.dim.Print("→ ")
		p.url.Println(sanitizeOutput(servers.Servers[name]))
	}
}

// PrintAction prints the full definition of one action. Credential headers
// are masked unless reveal is set.
func PrintAction(w io.Writer, a model.Action, reveal bool) {
	p := colors()
	p.name.Fprintf(w, "%s\n", sanitizeOutput(a.Name))
	fmt.Fprintln(w, strings.Repeat("-", 40))
	p.method.Fprintf(w, "%s ", a.Method)
	p.url.Fprintln(w, sanitizeOutput(a.URL))
	p.dim.Fprintf(w, "ID: %s\n", sanitizeOutput(a.ID))

	if len(a.Headers) > 0 {
		fmt.Fprintln(w, "\nHeaders:")
		for _, key := range sortedKeys(a.Headers) {
			p.name.Fprintf(w, "  %s: ", sanitizeOutput(key))
			value := a.Headers[key]
			if !reveal {
				value = maskHeader(key, value)
			}
			fmt.Fprintln(w, sanitizeOutput(value))
		}
	}

	if a.Body != "" {
		fmt.Fprintln(w, "\nBody:")
		fmt.Fprintln(w, sanitizeOutput(prettyJSON(a.Body)))
	} else {
		p.dim.Fprintln(w, "\n(empty body)")
	}
}
