package format

import (
	"strings"
	"testing"
)

func TestBody(t *testing.T) {
	tests := []struct {
		name    string
		content string
		mode    string
		want    string
		wantErr bool
	}{
		{"auto pretty-prints JSON", `{"a":1}`, ModeAuto, "{\n  \"a\": 1\n}", false},
		{"empty mode is auto", `[1,2]`, "", "[\n  1,\n  2\n]", false},
		{"auto leaves text alone", "plain text", ModeAuto, "plain text", false},
		{"raw keeps JSON compact", `{"a":1}`, ModeRaw, `{"a":1}`, false},
		{"json mode rejects text", "nope", ModeJSON, "", true},
		{"markdown off a TTY is unchanged", "# Title", ModeMarkdown, "# Title", false},
		{"unknown mode", "x", "yaml", "", true},
		{"escapes are stripped", "\x1b[31mred\x1b[0m", ModeRaw, "red", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Body(tt.content, tt.mode, false)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Body() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Body() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSON_TTYHighlights(t *testing.T) {
	got, err := JSON(`{"key":"value"}`, true)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected ANSI highlighting, got %q", got)
	}
	if !strings.Contains(SanitizeANSI(got), `"key": "value"`) {
		t.Errorf("expected indented JSON, got %q", SanitizeANSI(got))
	}
}

func TestMarkdown_TTY(t *testing.T) {
	got, err := Markdown("# Heading\n\nSome *text*.", true)
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if !strings.Contains(SanitizeANSI(got), "Heading") {
		t.Errorf("expected heading in output, got %q", got)
	}
}

func TestValidMode(t *testing.T) {
	for _, mode := range []string{"", "auto", "RAW", "json", "markdown"} {
		if !ValidMode(mode) {
			t.Errorf("expected %q to be valid", mode)
		}
	}
	if ValidMode("html") {
		t.Error("expected html to be invalid")
	}
}
