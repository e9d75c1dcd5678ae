package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/termfx/nml/internal/compiler"
	"github.com/termfx/nml/internal/config"
	"github.com/termfx/nml/internal/elements"
	"github.com/termfx/nml/internal/kernel"
	"github.com/termfx/nml/internal/langserver"
	"github.com/termfx/nml/internal/ruleset"
	"github.com/termfx/nml/internal/source"
	"github.com/termfx/nml/internal/unit"
)

// lspRequest is one line of the stdio protocol this command speaks: a
// document path and one of the three namespaced methods spec.md
// documents (textDocument/conceal, textDocument/style,
// textDocument/codeRange). Framing these requests as JSON-RPC proper
// is an external collaborator's concern; this command only answers
// the three queries themselves.
type lspRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func newLSPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Answer textDocument/conceal, /style and /codeRange queries over stdio.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLSP(cmd.Flags())
		},
	}
	fs := cmd.Flags()
	fs.String("config", "nml.toml", "Path to the project settings file")
	return cmd
}

func runLSP(fs *pflag.FlagSet) error {
	configPath, err := fs.GetString("config")
	if err != nil {
		return err
	}
	if _, err := config.Load(configPath); err != nil {
		return err
	}

	registry := ruleset.NewRegistry()
	elements.Register(registry)
	kernel.Reparse = func(u *unit.Unit) {
		registry.Parser().Parse(u, ruleset.ParseMode{})
	}

	scanner := bufio.NewScanner(os.Stdin)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		var req lspRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			encoder.Encode(map[string]string{"error": err.Error()})
			continue
		}

		resp, err := answerLSPRequest(registry, req)
		if err != nil {
			encoder.Encode(map[string]string{"error": err.Error()})
			continue
		}
		encoder.Encode(resp)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func answerLSPRequest(registry *ruleset.Registry, req lspRequest) (any, error) {
	file, err := source.NewFile(req.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", req.Path, err)
	}

	data := langserver.NewData()
	u := unit.New(req.Path, file, false)
	u.SetLSP(data)

	u.Consume(req.Path, func(u *unit.Unit) {
		registry.Parser().Parse(u, ruleset.ParseMode{})
	})

	ctx := compiler.NewContext(compiler.HTML, nil)
	reports := compiler.ResolveLinks(u, ctx)
	_, compileReports := compiler.CompileUnit(u, ctx)
	reports = append(reports, compileReports...)

	var reportMessages []string
	for _, r := range reports {
		reportMessages = append(reportMessages, r.Message)
	}

	switch req.Method {
	case "textDocument/conceal":
		return map[string]any{"conceals": data.Conceals(file), "diagnostics": reportMessages}, nil
	case "textDocument/style":
		return map[string]any{"styles": data.Styles(file), "diagnostics": reportMessages}, nil
	case "textDocument/codeRange":
		return map[string]any{"codeRanges": data.CodeRanges(file), "diagnostics": reportMessages}, nil
	default:
		return nil, fmt.Errorf("unknown method %q", req.Method)
	}
}
