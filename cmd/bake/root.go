package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/bake/internal/cli"
	"github.com/aretw0/bake/internal/presentation/tui"
	"github.com/aretw0/bake/pkg/domain"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/spf13/cobra"
)

var flags cli.Flags

var rootCmd = &cobra.Command{
	Use:   "bake [flags] [task [name=value]...]...",
	Short: "bake runs tasks in dependency order",
	Long: `bake runs tasks declared in a bakefile, one at a time, after the tasks they require.

Parameters follow the task they belong to: bake deploy target=prod replicas=3 test
Default arguments can be given in the BAKEOPTS environment variable.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTasks,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	args, err := cli.ExpandArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cli.ErrRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.File, "file", "f", "", "Bakefile to load (default "+cli.DefaultBakefile+" when present)")
	pf.StringArrayVarP(&flags.EnvFiles, "env", "e", nil, "YAML or JSON file merged into the configuration (repeatable)")
	pf.StringArrayVarP(&flags.Set, "set", "s", nil, "Configuration assignment path=value (repeatable)")
	pf.StringArrayVar(&flags.DotEnv, "dotenv", nil, "KEY=VALUE file exported to shell commands (repeatable)")
	pf.StringVar(&flags.Prefix, "prefix", "", "Prefix tried first when resolving task names")
	pf.StringVar(&flags.History, "history", "", "Run history backend: memory, file[:DIR] or a redis:// URL")
	pf.StringArrayVar(&flags.Redact, "redact", nil, "Mask matches of `PATTERN` in stored task errors (repeatable)")

	pf.BoolVarP(&flags.DryRun, "dry-run", "d", false, "Report what would be done without doing it")
	pf.BoolVarP(&flags.Interactive, "interactive", "i", false, "Ask before running each task")
	pf.BoolVarP(&flags.Yes, "yes", "y", false, "Answer yes to every question")
	pf.BoolVarP(&flags.Debug, "debug", "D", false, "Show debug messages and diagnostic logs")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Show informational messages")
	pf.BoolVarP(&flags.Quiet, "quiet", "q", false, "Only show errors and questions")
	pf.BoolVarP(&flags.Timing, "timing", "t", false, "Report how long each task took")
	pf.BoolVarP(&flags.Timestamps, "timestamps", "T", false, "Prefix messages with the time")
	pf.StringVar(&flags.Color, "color", "auto", "Colorize output: auto, always or never")
	pf.Bool("no-color", false, "Same as --color=never")
	pf.BoolVar(&flags.JSON, "json", false, "Write console messages and results as JSON lines")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if off, _ := cmd.Flags().GetBool("no-color"); off {
			flags.Color = "never"
		}
		_, err := flags.ColorMode()
		return err
	}
}

// newConsole builds the user-facing console writing to w.
func newConsole(w io.Writer) (domain.Console, error) {
	opts, err := flags.ConsoleOptions()
	if err != nil {
		return nil, err
	}
	if flags.JSON {
		return runner.NewJSONConsole(os.Stdin, w, opts...), nil
	}
	if runner.IsTerminal(w) {
		opts = append(opts, runner.WithRenderer(tui.NewRenderer(0)))
	}
	return runner.NewTextConsole(os.Stdin, w, opts...), nil
}
