package main

import (
	"encoding/json"
	"os"

	"github.com/aretw0/bake/internal/cli"
	"github.com/aretw0/bake/internal/dto"
	"github.com/aretw0/bake/internal/presentation/tui"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/spf13/cobra"
)

var describeCmd = &cobra.Command{
	Use:   "describe TASK",
	Short: "Show a task's requirements, parameters and notes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, history, err := cli.NewEngine(flags, nil, cli.Streams{Out: os.Stdout, Err: os.Stderr})
		if err != nil {
			return err
		}
		defer history.Close()

		def, err := engine.Resolve(args[0])
		if err != nil {
			return err
		}
		if flags.JSON {
			return json.NewEncoder(os.Stdout).Encode(dto.NewTaskInfo(def))
		}

		var render runner.ContentRenderer
		if runner.IsTerminal(os.Stdout) && flags.Color != "never" {
			render = tui.NewRenderer(80)
		}
		cli.WriteTaskHelp(os.Stdout, def, render)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
}
