package runner

import (
	"regexp"
	"strings"

	"github.com/muesli/termenv"
)

// markupToken matches inline style tokens such as [!R] or the reset token [!].
var markupToken = regexp.MustCompile(`\[!([A-Za-z]?)\]`)

// styles maps a token letter to an ANSI color index. Lowercase b is bold.
var styles = map[string]string{
	"R": "1",
	"G": "2",
	"Y": "3",
	"B": "4",
	"M": "5",
	"C": "6",
	"W": "7",
}

// Markup renders console markup. Text following a [!X] token is styled until
// the next token; [!] resets. With color disabled the tokens are stripped.
func Markup(msg string, color bool) string {
	if !strings.Contains(msg, "[!") {
		return msg
	}
	if !color {
		return markupToken.ReplaceAllString(msg, "")
	}

	var b strings.Builder
	style := ""
	last := 0
	for _, loc := range markupToken.FindAllStringSubmatchIndex(msg, -1) {
		b.WriteString(styled(msg[last:loc[0]], style))
		style = msg[loc[2]:loc[3]]
		last = loc[1]
	}
	b.WriteString(styled(msg[last:], style))
	return b.String()
}

// StripMarkup removes all markup tokens.
func StripMarkup(msg string) string {
	return Markup(msg, false)
}

func styled(text, style string) string {
	if text == "" || style == "" {
		return text
	}
	s := termenv.String(text)
	if style == "b" {
		return s.Bold().String()
	}
	code, ok := styles[strings.ToUpper(style)]
	if !ok {
		return text
	}
	s = s.Foreground(termenv.ANSI.Color(code))
	if style != strings.ToUpper(style) {
		s = s.Faint()
	}
	return s.String()
}
