package config

import (
	"testing"

	"github.com/termfx/nml/internal/diagnostic"
	"github.com/termfx/nml/internal/source"
)

func TestPrintDiagnostics_ReportsErrorPresence(t *testing.T) {
	src := source.NewFileWithContent("doc.nml", "hello", nil)

	colors := diagnostic.WithoutColors()

	warningsOnly := []diagnostic.Report{*diagnostic.NewWarning(src, "minor issue")}
	if PrintDiagnostics(warningsOnly, colors) {
		t.Errorf("expected no error from a warnings-only report set")
	}

	withError := []diagnostic.Report{
		*diagnostic.NewWarning(src, "minor issue"),
		*diagnostic.NewError(src, "bad syntax"),
	}
	if !PrintDiagnostics(withError, colors) {
		t.Errorf("expected an error to be reported")
	}
}
