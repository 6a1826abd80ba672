package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"veq/internal/driver"
	"veq/internal/observ"
)

var specCmd = &cobra.Command{
	Use:   "spec [flags] <unit.toml|unit.yaml>",
	Short: "Show the equality spec of every value type in a unit",
	Long:  `Spec runs the full analysis and prints the frozen equality spec per type: its final state and how each equality member is implemented`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSpec,
}

func init() {
	specCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	specCmd.Flags().Int("jobs", 0, "max parallel workers per dependency wave (0=auto)")
	specCmd.Flags().Bool("disk-cache", false, "replay unchanged units from the persistent disk cache")
}

func runSpec(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	enableDiskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
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

	opts := driver.Options{Jobs: jobs, MaxDiagnostics: maxDiagnostics}
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

	result, err := driver.AnalyzeManifest(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	switch format {
	case "pretty":
		colorFlag, colorErr := cmd.Root().PersistentFlags().GetString("color")
		if colorErr != nil {
			return colorErr
		}
		useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
		renderSpecTable(os.Stdout, result, useColor)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(specOutput(result)); err != nil {
			return fmt.Errorf("failed to encode specs: %w", err)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if opts.Timer != nil && !quiet && format == "pretty" {
		fmt.Fprint(os.Stdout, opts.Timer.Summary())
	}

	if result.Bag.HasErrors() {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - states already show what broke
	}
	return nil
}

func renderSpecTable(out io.Writer, result *driver.RunResult, useColor bool) {
	stateOK := color.New(color.FgGreen)
	stateBad := color.New(color.FgRed, color.Bold)
	if !useColor {
		stateOK.DisableColor()
		stateBad.DisableColor()
	} else {
		stateOK.EnableColor()
		stateBad.EnableColor()
	}

	fmt.Fprintf(out, "unit %s\n", result.Unit.Name)
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tSTATE\tTYPED ==\tUNTYPED equals")
	for _, spec := range result.Specs {
		state := stateOK
		if spec.State == "resolved-error" {
			state = stateBad
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			spec.Name,
			state.Sprint(spec.State),
			memberCell(spec.TypedBody, spec.TypedSynthesized),
			memberCell(spec.UntypedBody, spec.UntypedSynthesized),
		)
	}
	w.Flush()
}

func memberCell(body string, synthesized bool) string {
	if body == "" {
		return "-"
	}
	if synthesized {
		return body + " (synthesized)"
	}
	return body
}

type specPayload struct {
	Unit     string               `json:"unit"`
	CacheHit bool                 `json:"cache_hit,omitempty"`
	Specs    []driver.SpecSummary `json:"specs"`
}

func specOutput(result *driver.RunResult) specPayload {
	return specPayload{
		Unit:     result.Unit.Name,
		CacheHit: result.CacheHit,
		Specs:    result.Specs,
	}
}
