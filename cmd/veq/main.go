package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"veq/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "veq",
	Short: "Equality semantics analyzer for unboxed value types",
	Long:  `veq analyzes equality declarations of value types in a unit manifest, synthesizes the missing operators and resolves every equality call site`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(specCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
