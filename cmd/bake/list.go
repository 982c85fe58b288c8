package main

import (
	"encoding/json"
	"os"

	"github.com/aretw0/bake/internal/cli"
	"github.com/aretw0/bake/internal/dto"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tasks grouped by source",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, history, err := cli.NewEngine(flags, nil, cli.Streams{Out: os.Stdout, Err: os.Stderr})
		if err != nil {
			return err
		}
		defer history.Close()

		if flags.JSON {
			return json.NewEncoder(os.Stdout).Encode(dto.TaskInfos(engine.Tasks()))
		}
		cli.WriteHelp(os.Stdout, engine.Registry())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
