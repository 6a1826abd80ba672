package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"veq/internal/diag"
	"veq/internal/diagfmt"
	"veq/internal/driver"
	"veq/internal/observ"
	"veq/internal/unit"
	"veq/internal/version"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <unit.toml|unit.yaml>",
	Short: "Analyze equality semantics of a unit",
	Long:  `Analyze scans the value types of a unit manifest, synthesizes missing equality operators, checks consistency, and resolves every equality call site`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

// init registers CLI flags for the analyze command used by runAnalyze.
func init() {
	analyzeCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel workers per dependency wave (0=auto)")
	analyzeCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
	analyzeCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	analyzeCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	analyzeCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	analyzeCmd.Flags().Bool("disk-cache", false, "replay unchanged units from the persistent disk cache")
	analyzeCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// runAnalyze executes the "analyze" command: it runs the pipeline for
// the given manifest, formats the diagnostics in the chosen output
// format, and exits with a non-zero status when any diagnostics contain
// errors.
func runAnalyze(cmd *cobra.Command, args []string) error {
	manifestPath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}

	noWarnings, err := cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return fmt.Errorf("failed to get no-warnings flag: %w", err)
	}

	warningsAsErrors, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}

	if noWarnings && warningsAsErrors {
		return fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}

	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}

	enableDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}

	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}

	opts := driver.Options{
		Jobs:             jobs,
		MaxDiagnostics:   maxDiagnostics,
		IgnoreWarnings:   noWarnings,
		WarningsAsErrors: warningsAsErrors,
	}
	if enableDiskCache {
		cache, cacheErr := driver.OpenDiskCache("veq")
		if cacheErr != nil {
			return fmt.Errorf("failed to open disk cache: %w", cacheErr)
		}
		opts.Cache = cache
	}
	if showTimings {
		opts.Timer = observ.NewTimer()
	}

	useTUI := shouldUseTUI(mode) && format == "pretty"

	var result *driver.RunResult
	if useTUI {
		bag := diag.NewBag(maxDiagnostics)
		u, loadErr := unit.Load(manifestPath, &diag.BagReporter{Bag: bag})
		if loadErr != nil {
			return fmt.Errorf("failed to load unit: %w", loadErr)
		}
		result, err = runAnalysisWithUI(cmd.Context(), "veq "+u.Name, u, opts, bag)
	} else {
		result, err = driver.AnalyzeManifest(cmd.Context(), manifestPath, opts)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if opts.Timer != nil {
		driver.AppendTimingDiagnostic(result.Bag, result.Unit.Name, opts.Timer)
	}

	exit := 0
	if result.Bag.HasErrors() {
		exit = 1
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return err
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	switch format {
	case "pretty":
		diagfmt.Pretty(os.Stdout, result.Bag, result.Unit.Files, diagfmt.PrettyOpts{
			Color:     useColor,
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		if !quiet {
			printRunFooter(os.Stdout, result)
		}
	case "short":
		output := diag.FormatShortDiagnostics(result.Bag.Items(), result.Unit.Files, withNotes)
		if output != "" {
			fmt.Fprintln(os.Stdout, output)
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     withNotes,
		}
		if err := diagfmt.JSON(os.Stdout, result.Bag, result.Unit.Files, jsonOpts); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:       "veq",
			ToolVersion:    version.Plain(),
			InvocationArgs: os.Args,
		}
		if err := diagfmt.Sarif(os.Stdout, result.Bag, result.Unit.Files, meta); err != nil {
			return fmt.Errorf("failed to format diagnostics: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if opts.Timer != nil && !quiet && format == "pretty" {
		fmt.Fprint(os.Stdout, opts.Timer.Summary())
	}

	if exit != 0 {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

func printRunFooter(out *os.File, result *driver.RunResult) {
	broken := 0
	for _, spec := range result.Specs {
		if spec.State == "resolved-error" {
			broken++
		}
	}
	suffix := ""
	if result.CacheHit {
		suffix = " (cache)"
	}
	if broken > 0 {
		fmt.Fprintf(out, "unit %s: %d types, %d broken, %d calls resolved%s\n",
			result.Unit.Name, len(result.Specs), broken, len(result.Resolutions), suffix)
		return
	}
	fmt.Fprintf(out, "unit %s: %d types, %d calls resolved%s\n",
		result.Unit.Name, len(result.Specs), len(result.Resolutions), suffix)
}
