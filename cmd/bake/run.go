package main

import (
	"context"
	"os"

	"github.com/aretw0/bake/internal/cli"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [task [name=value]...]...",
	Short: "Run tasks and their requirements",
	Long: `Runs the named tasks in order, each after the tasks it requires.
Without arguments the available tasks are listed.
Use "bake run" when a task shares its name with a bake command.`,
	Args: cobra.ArbitraryArgs,
	RunE: runTasks,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTasks(cmd *cobra.Command, args []string) error {
	console, err := newConsole(os.Stdout)
	if err != nil {
		return err
	}
	streams := cli.Streams{Out: os.Stdout, Err: os.Stderr}
	engine, history, err := cli.NewEngine(flags, console, streams)
	if err != nil {
		return err
	}
	defer history.Close()

	if len(args) == 0 {
		cli.WriteHelp(os.Stdout, engine.Registry())
		return nil
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	signals := runner.NewSignalManager(parent)
	defer signals.Stop()

	_, err = cli.Run(signals.Context(), engine, console, flags, args, streams)
	if signals.Interrupted() {
		console.Error("interrupted", "")
	}
	return err
}
