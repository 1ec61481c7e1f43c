package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/diagfmt"
	"lumen/internal/driver"
	"lumen/internal/testkit"
)

var elaborateCmd = &cobra.Command{
	Use:   "elaborate [flags] [declaration ...]",
	Short: "Resolve lifetimes and lower signatures",
	Long: `Elaborate takes declarations like 'fn f<'a>(x: &'a str) -> &'a str',
resolves every lifetime and lowers each signature, printing the results
together with any diagnostics`,
	RunE: runElaborate,
}

func init() {
	elaborateCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	elaborateCmd.Flags().String("fixture", "", "load declarations from a TOML fixture file")
	elaborateCmd.Flags().Int("jobs", 0, "parallel elaboration jobs (0 = all CPUs)")
	elaborateCmd.Flags().Bool("cache", false, "reuse elaboration results across runs")
}

func runElaborate(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	fixturePath, err := cmd.Flags().GetString("fixture")
	if err != nil {
		return fmt.Errorf("failed to get fixture flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return fmt.Errorf("failed to get cache flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	// Собираем объявления: из фикстуры, из аргументов, либо и то и другое.
	decls := make([]string, 0, len(args)+1)
	if fixturePath != "" {
		fx, err := testkit.LoadFixture(fixturePath)
		if err != nil {
			return err
		}
		decls = append(decls, fx.Declarations())
	}
	decls = append(decls, args...)
	if len(decls) == 0 {
		return fmt.Errorf("nothing to elaborate: pass declarations or --fixture")
	}

	w := testkit.NewWorld()
	if err := w.Declare(strings.Join(decls, "\n")); err != nil {
		return fmt.Errorf("parse declarations: %w", err)
	}

	tracer, cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := driver.Options{
		Jobs:           jobs,
		MaxDiagnostics: maxDiagnostics,
		Tracer:         tracer,
	}
	if useCache {
		cache, err := driver.OpenDiskCache("lumen")
		if err != nil {
			return err
		}
		opts.Cache = cache
	}

	res, err := driver.ElaborateModule(cmd.Context(), driver.Module{
		FS:    w.FS,
		Strs:  w.Strs,
		B:     w.B,
		Table: w.Table,
		Items: w.Order,
	}, opts)
	if err != nil {
		return err
	}

	// Диагностики идут в stderr, результат в stdout.
	if res.Bag.Len() > 0 {
		res.Bag.Sort()
		colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
		useColor := colorFlag == "on" || (colorFlag == "auto" && diagfmt.DetectColor(os.Stderr))
		diagfmt.Pretty(os.Stderr, res.Bag, w.FS, diagfmt.PrettyOpts{
			Color:     useColor,
			ShowNotes: true,
			ShowFixes: true,
		})
	}

	switch format {
	case "pretty":
		printResultsPretty(cmd, res)
	case "json":
		if err := printResultsJSON(cmd, res, w); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	if timings, _ := cmd.Root().PersistentFlags().GetBool("timings"); timings {
		fmt.Fprint(os.Stderr, res.Timings.Summary())
	}
	if res.Bag.HasErrors() {
		return fmt.Errorf("elaboration finished with errors")
	}
	return nil
}

type itemJSON struct {
	Name      string `json:"name"`
	Signature string `json:"signature"`
	Tainted   bool   `json:"tainted,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
}

type elaborateJSON struct {
	Items       []itemJSON                `json:"items"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

func printResultsJSON(cmd *cobra.Command, res *driver.ModuleResult, w *testkit.World) error {
	payload := elaborateJSON{
		Items: make([]itemJSON, 0, len(res.Items)),
		Diagnostics: diagfmt.BuildDiagnosticsOutput(res.Bag, w.FS, diagfmt.JSONOpts{
			IncludePositions: true,
			IncludeNotes:     true,
			IncludeFixes:     true,
		}),
	}
	for _, item := range res.Items {
		if item.Signature == "" {
			continue
		}
		payload.Items = append(payload.Items, itemJSON{
			Name:      item.Name,
			Signature: item.Signature,
			Tainted:   item.Tainted,
			Cached:    item.Cached,
		})
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printResultsPretty(cmd *cobra.Command, res *driver.ModuleResult) {
	out := cmd.OutOrStdout()
	for _, item := range res.Items {
		if item.Signature == "" {
			continue
		}
		suffix := ""
		if item.Cached {
			suffix = "  (cached)"
		}
		if item.Tainted {
			suffix = "  (has errors)"
		}
		fmt.Fprintf(out, "%s%s\n", item.Signature, suffix)
	}
}
