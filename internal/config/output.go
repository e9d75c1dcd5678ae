package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/termfx/nml/internal/diagnostic"
)

// PrintDiagnostics renders every report to stderr with colors, and
// returns true if any report was an Error, which callers use to
// decide the process exit code.
func PrintDiagnostics(reports []diagnostic.Report, colors diagnostic.Colors) bool {
	hadError := false
	for _, r := range reports {
		if r.Severity == diagnostic.Error {
			hadError = true
		}
		fmt.Fprint(os.Stderr, r.Render(colors))
	}
	return hadError
}

// IsTerminal reports whether f looks like an interactive terminal.
// Callers pass this straight to unit.New's withColors argument so a
// built Unit's own Colors() matches what the CLI renders diagnostics
// with.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// PrintFatal writes a one-line error message to stderr and exits with
// status 1.
func PrintFatal(err error) {
	fmt.Fprintf(os.Stderr, "nmlc: %v\n", err)
	os.Exit(1)
}

// PrintBuildSummary writes a one-line summary of a completed build.
func PrintBuildSummary(unitCount, errorCount, warningCount int) {
	if errorCount > 0 {
		fmt.Fprintf(os.Stderr, "built %d unit(s): %d error(s), %d warning(s)\n", unitCount, errorCount, warningCount)
		return
	}
	fmt.Fprintf(os.Stderr, "built %d unit(s): %d warning(s)\n", unitCount, warningCount)
}

// PrintUsage writes fs's flag usage to stderr, grouped under name.
func PrintUsage(name string, fs *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, "Usage: %s [flags] [targets...]\n\n", name)
	fmt.Fprint(os.Stderr, fs.FlagUsages())
}
