package runner

import (
	"time"
)

// ContentRenderer transforms free-form text (e.g. Markdown notes) for display.
type ContentRenderer func(string) (string, error)

// ColorMode selects whether console markup is rendered as ANSI color.
type ColorMode int

const (
	// ColorAuto colors output when writing to a terminal and NO_COLOR is unset.
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// DefaultTimestampLayout is used when timestamps are enabled.
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// ConsoleOption configures a TextConsole or JSONConsole.
type ConsoleOption func(*settings)

type settings struct {
	color      ColorMode
	quiet      bool
	verbose    bool
	debug      bool
	timestamps bool
	policy     Policy
	renderer   ContentRenderer
	now        func() time.Time
}

func newSettings(opts []ConsoleOption) settings {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithColor sets the color mode.
func WithColor(mode ColorMode) ConsoleOption {
	return func(s *settings) { s.color = mode }
}

// WithQuiet suppresses everything but errors and prompts.
func WithQuiet(quiet bool) ConsoleOption {
	return func(s *settings) { s.quiet = quiet }
}

// WithVerbose enables informational messages.
func WithVerbose(verbose bool) ConsoleOption {
	return func(s *settings) { s.verbose = verbose }
}

// WithDebug enables informational messages and error details.
func WithDebug(debug bool) ConsoleOption {
	return func(s *settings) { s.debug = debug }
}

// WithTimestamps prefixes every message with the current time.
func WithTimestamps(on bool) ConsoleOption {
	return func(s *settings) { s.timestamps = on }
}

// WithPolicy answers prompts before the user is asked.
func WithPolicy(p Policy) ConsoleOption {
	return func(s *settings) { s.policy = p }
}

// WithRenderer configures the renderer used by Document.
func WithRenderer(r ContentRenderer) ConsoleOption {
	return func(s *settings) { s.renderer = r }
}

// WithConsoleClock overrides the time source for timestamps.
func WithConsoleClock(now func() time.Time) ConsoleOption {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}
