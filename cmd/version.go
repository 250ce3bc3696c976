package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spigell/hh-interviewer/internal/questionbank"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s)\n", app, version, runtime.Version())
		if b, err := questionbank.Default(questionbank.Options{Seed: 1}); err == nil {
			fmt.Printf("built-in question bank: %d questions in %d tracks\n", b.Len(), len(b.Tracks()))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
