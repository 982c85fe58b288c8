package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/bake"
	"github.com/aretw0/bake/internal/presentation/tui"
	"github.com/aretw0/bake/pkg/runner"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bake",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		version := strings.TrimSpace(bake.Version)
		if runner.IsTerminal(os.Stdout) && !flags.Quiet {
			tui.PrintBanner(os.Stdout, version)
			return
		}
		fmt.Printf("bake version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
