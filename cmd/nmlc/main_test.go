package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()

	if root.Use != "nmlc" {
		t.Errorf("expected Use 'nmlc', got %q", root.Use)
	}

	names := make(map[string]bool)
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"build", "check", "lsp", "cache"} {
		if !names[want] {
			t.Errorf("expected a %q subcommand to be registered", want)
		}
	}
}

func TestRunBuildWritesHTMLOutput(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "doc.nml")
	if err := os.WriteFile(srcPath, []byte("# Hello\n"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	outDir := filepath.Join(dir, "out")
	dbPath := filepath.Join(dir, "cache.db")

	cmd := &cobra.Command{Use: "build"}
	fs := cmd.Flags()
	fs.String("output", "", "")
	fs.String("db", "", "")
	fs.String("config", "", "")
	fs.Bool("debug", false, "")
	fs.Bool("watch", false, "")
	if err := fs.Parse([]string{"--output", outDir, "--db", dbPath, srcPath}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	if err := runBuild(fs, fs.Args(), true); err != nil {
		t.Fatalf("runBuild returned error: %v", err)
	}

	htmlPath := filepath.Join(outDir, "doc.html")
	contents, err := os.ReadFile(htmlPath)
	if err != nil {
		t.Fatalf("reading compiled output: %v", err)
	}
	if len(contents) == 0 {
		t.Errorf("expected non-empty compiled output")
	}
}

func TestDiscoverUnitsFindsNestedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatalf("creating nested dir: %v", err)
	}
	topFile := filepath.Join(dir, "a.nml")
	nestedFile := filepath.Join(dir, "nested", "b.nml")
	otherFile := filepath.Join(dir, "notes.txt")
	for _, p := range []string{topFile, nestedFile, otherFile} {
		if err := os.WriteFile(p, []byte("# x\n"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}

	found, err := discoverUnits([]string{dir})
	if err != nil {
		t.Fatalf("discoverUnits returned error: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 .nml files, got %d: %v", len(found), found)
	}
}
