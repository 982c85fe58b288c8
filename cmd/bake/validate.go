package main

import (
	"fmt"
	"os"

	"github.com/aretw0/bake/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the task requirements for consistency",
	Long:  `Checks that every required task name resolves to exactly one task and that requirements never loop back.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, history, err := cli.NewEngine(flags, nil, cli.Streams{Out: os.Stdout, Err: os.Stderr})
		if err != nil {
			return err
		}
		defer history.Close()

		if err := engine.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Printf("%d tasks are valid! ✅\n", len(engine.Tasks()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
