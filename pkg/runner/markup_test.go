package runner

import (
	"strings"
	"testing"
)

func TestMarkup_Strip(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"[!G]task completed[!]", "task completed"},
		{"[!b][build][!] [!R]task failed[!] (0.100s)", "[build] task failed (0.100s)"},
		{"[y]", "[y]"},
		{"[!]", ""},
	}
	for _, tt := range tests {
		if got := StripMarkup(tt.in); got != tt.want {
			t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkup_Color(t *testing.T) {
	got := Markup("before [!R]red[!] after", true)

	if !strings.HasPrefix(got, "before ") || !strings.HasSuffix(got, " after") {
		t.Errorf("unstyled text must be preserved, got %q", got)
	}
	if !strings.Contains(got, "\x1b[") || !strings.Contains(got, "red") {
		t.Errorf("expected ANSI styling, got %q", got)
	}
	if strings.Contains(got, "[!") {
		t.Errorf("tokens must not leak, got %q", got)
	}
}

func TestMarkup_UnknownStyleIsPlain(t *testing.T) {
	if got := Markup("[!Q]text[!]", true); got != "text" {
		t.Errorf("expected unknown style to render plain, got %q", got)
	}
}
