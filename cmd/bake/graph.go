package main

import (
	"fmt"
	"os"

	"github.com/aretw0/bake/internal/cli"
	"github.com/aretw0/bake/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph task [name=value]...",
	Short: "Export the execution plan as a Mermaid diagram",
	Long:  `Builds the schedule for the requested tasks without running anything and prints it as a Mermaid flowchart (graph TD).`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, history, err := cli.NewEngine(flags, nil, cli.Streams{Out: os.Stdout, Err: os.Stderr})
		if err != nil {
			return err
		}
		defer history.Close()

		reqs, err := cli.ParseRequests(args)
		if err != nil {
			return err
		}
		seq, err := engine.Plan(reqs)
		if err != nil {
			return err
		}
		fmt.Print(graph.GenerateMermaid(seq, false))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
