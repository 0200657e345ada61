// Package format renders response bodies for terminal display.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// Modes accepted by Body.
const (
	ModeAuto     = "auto"
	ModeRaw      = "raw"
	ModeJSON     = "json"
	ModeMarkdown = "markdown"
)

// maxRenderSize is the largest body that is rendered; larger bodies are
// printed raw.
const maxRenderSize = 5 * 1024 * 1024

// ansiEscapeRegex matches ANSI escape sequences.
var ansiEscapeRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// SanitizeANSI removes ANSI escape sequences, so a remote body cannot
// drive the terminal.
func SanitizeANSI(s string) string {
	return ansiEscapeRegex.ReplaceAllString(s, "")
}

// ValidMode reports whether mode is accepted by Body.
func ValidMode(mode string) bool {
	switch strings.ToLower(mode) {
	case "", ModeAuto, ModeRaw, ModeJSON, ModeMarkdown:
		return true
	}
	return false
}

// Body renders content according to mode. Auto pretty-prints valid JSON and
// leaves anything else as-is. Colors are only added when isTTY is true.
func Body(content, mode string, isTTY bool) (string, error) {
	content = SanitizeANSI(content)

	mode = strings.ToLower(mode)
	if mode == "" {
		mode = ModeAuto
	}

	if mode != ModeRaw && len(content) > maxRenderSize {
		return content, nil
	}

	switch mode {
	case ModeRaw:
		return content, nil
	case ModeAuto:
		if !json.Valid([]byte(content)) {
			return content, nil
		}
		return JSON(content, isTTY)
	case ModeJSON:
		return JSON(content, isTTY)
	case ModeMarkdown:
		return Markdown(content, isTTY)
	default:
		return "", fmt.Errorf("unknown format: %s", mode)
	}
}

// JSON pretty-prints JSON with 2-space indentation, highlighted on a TTY.
func JSON(content string, isTTY bool) (string, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(content), "", "  "); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	formatted := buf.String()

	if !isTTY {
		return formatted, nil
	}

	var highlighted bytes.Buffer
	if err := quick.Highlight(&highlighted, formatted, "json", "terminal256", "monokai"); err != nil {
		return formatted, nil
	}
	return highlighted.String(), nil
}

// Markdown renders markdown with glamour on a TTY and returns it as-is
// otherwise or when rendering fails.
func Markdown(content string, isTTY bool) (string, error) {
	if !isTTY {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content, nil
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content, nil
	}
	return rendered, nil
}
