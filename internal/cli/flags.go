package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/bake/internal/logging"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/google/shlex"
)

// OptsEnv names the environment variable holding default arguments. They
// are placed before the command line, so explicit arguments win.
const OptsEnv = "BAKEOPTS"

// DefaultBakefile is loaded from the working directory when --file is unset.
const DefaultBakefile = "bakefile.yaml"

// Flags holds the options shared by every command that builds an engine.
type Flags struct {
	DryRun      bool
	Interactive bool
	Debug       bool
	Verbose     bool
	Quiet       bool
	Timing      bool
	Timestamps  bool
	Yes         bool
	JSON        bool
	Color       string
	Prefix      string

	File     string
	EnvFiles []string
	Set      []string
	DotEnv   []string
	History  string
	Redact   []string
}

// ExpandArgs prepends the shell-split contents of BAKEOPTS to args.
func ExpandArgs(args []string) ([]string, error) {
	raw := os.Getenv(OptsEnv)
	if raw == "" {
		return args, nil
	}
	extra, err := shlex.Split(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", OptsEnv, err)
	}
	return append(extra, args...), nil
}

// Mode returns the state machine flags.
func (f Flags) Mode() domain.Mode {
	return domain.Mode{
		DryRun:      f.DryRun,
		Interactive: f.Interactive,
		Timing:      f.Timing,
		Verbose:     f.Verbose,
		Debug:       f.Debug,
	}
}

// ColorMode parses the --color value.
func (f Flags) ColorMode() (runner.ColorMode, error) {
	switch f.Color {
	case "", "auto":
		return runner.ColorAuto, nil
	case "always":
		return runner.ColorAlways, nil
	case "never":
		return runner.ColorNever, nil
	}
	return runner.ColorAuto, fmt.Errorf("invalid color mode %q: expected auto, always or never", f.Color)
}

// ConsoleOptions translates the flags into console options. --yes answers
// every prompt, which also makes interactive runs unattended.
func (f Flags) ConsoleOptions() ([]runner.ConsoleOption, error) {
	color, err := f.ColorMode()
	if err != nil {
		return nil, err
	}
	opts := []runner.ConsoleOption{
		runner.WithColor(color),
		runner.WithQuiet(f.Quiet),
		runner.WithVerbose(f.Verbose),
		runner.WithDebug(f.Debug),
		runner.WithTimestamps(f.Timestamps),
	}
	if f.Yes {
		opts = append(opts, runner.WithPolicy(runner.AutoApprove()))
	}
	return opts, nil
}

// Logger returns the diagnostic logger for the flags: debug level with
// --debug, info with --verbose, and nothing otherwise.
func (f Flags) Logger() *slog.Logger {
	switch {
	case f.Debug:
		return logging.New(slog.LevelDebug)
	case f.Verbose:
		return logging.New(slog.LevelInfo)
	}
	return logging.NewNop()
}
