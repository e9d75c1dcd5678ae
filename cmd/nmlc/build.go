package main

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/termfx/nml/internal/cache"
	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/config"
	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/elements"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [targets...]",
		Short: "Compile nml documents to their output format.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Flags(), args, true)
		},
	}
	config.RegisterBuildFlags(cmd.Flags())
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [targets...]",
		Short: "Parse and resolve nml documents without writing output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd.Flags(), args, false)
		},
	}
	config.RegisterBuildFlags(cmd.Flags())
	return cmd
}

// runBuild drives a whole invocation: discover targets, parse every
// unit, resolve cross-unit references against the cache, compile, and
// (if write is true) write each unit's output alongside the others.
func runBuild(fs *pflag.FlagSet, args []string, write bool) error {
	opts, err := config.ResolveBuildOptions(fs, args)
	if err != nil {
		return err
	}

	paths, err := discoverUnits(opts.Targets)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .nml files found in %v", opts.Targets)
	}

	registry := ruleset.NewRegistry()
	elements.Register(registry)
	kernel.Reparse = func(u *unit.Unit) {
		registry.Parser().Parse(u, ruleset.ParseMode{})
	}

	c, err := cache.Connect(opts.DBPath, opts.Debug)
	if err != nil {
		return fmt.Errorf("connecting to cache: %w", err)
	}
	defer c.Close()

	colorsEnabled := config.IsTerminal(os.Stderr)
	errorCount, warningCount := 0, 0

	units := make([]*unit.Unit, 0, len(paths))
	for _, path := range paths {
		file, err := source.NewFile(path, nil)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		u := unit.New(path, file, colorsEnabled)
		reports := u.Consume(outputPathFor(opts.OutputPath, path), func(u *unit.Unit) {
			registry.Parser().Parse(u, ruleset.ParseMode{})
		})
		u.UpdateSettings(opts.Settings.HTML.Language, opts.Settings.HTML.Icon, opts.Settings.HTML.CSS)
		e, w := tally(reports, u.Colors())
		errorCount += e
		warningCount += w
		units = append(units, u)
	}

	resolver, err := cache.NewResolver(c, units)
	if err != nil {
		return fmt.Errorf("building resolver: %w", err)
	}
	if err := resolver.PersistUnits(); err != nil {
		return fmt.Errorf("persisting units: %w", err)
	}

	results := compiler.CompileAll(units, compiler.HTML, resolver, 0)
	for _, result := range results {
		e, w := tally(result.Reports, result.Unit.Colors())
		errorCount += e
		warningCount += w

		if write && result.Err == nil {
			if err := writeOutput(result); err != nil {
				return err
			}
		}
	}

	config.PrintBuildSummary(len(units), errorCount, warningCount)
	if errorCount > 0 {
		return fmt.Errorf("%d error(s) across %d unit(s)", errorCount, len(units))
	}
	return nil
}

// tally prints reports and returns how many were errors vs. warnings.
func tally(reports []diagnostic.Report, colors diagnostic.Colors) (errors, warnings int) {
	config.PrintDiagnostics(reports, colors)
	for _, r := range reports {
		if r.Severity == diagnostic.Error {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

func outputPathFor(outputDir, inputPath string) string {
	base := filepath.Base(inputPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".html"
	return filepath.Join(outputDir, name)
}

func writeOutput(result compiler.Result) error {
	outputFile := result.Unit.Output().OutputFile
	if dir := filepath.Dir(outputFile); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory for %s: %w", outputFile, err)
		}
	}
	if err := os.WriteFile(outputFile, []byte(renderDocument(result)), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	return nil
}

// renderDocument wraps a compiled fragment in the minimal HTML5 shell
// every build output gets: a `<html lang>` set from the document's
// resolved language, an optional favicon link, and an optional extra
// stylesheet link, both resolved by unit.Unit.UpdateSettings from
// either the project's nml.toml defaults or a `html.icon`/`html.css`
// variable the document set itself.
func renderDocument(result compiler.Result) string {
	out := result.Unit.Output()

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&b, "<html lang=\"%s\">\n", html.EscapeString(out.Language))
	b.WriteString("<head>\n<meta charset=\"utf-8\">\n")
	if out.Icon != "" {
		fmt.Fprintf(&b, "<link rel=\"icon\" href=\"%s\">\n", html.EscapeString(out.Icon))
	}
	if out.CSS != "" {
		fmt.Fprintf(&b, "<link rel=\"stylesheet\" href=\"%s\">\n", html.EscapeString(out.CSS))
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(result.Output.String())
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}
