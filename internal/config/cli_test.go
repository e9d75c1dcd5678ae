package config

import (
	"testing"

	"github.com/spf13/pflag"
)

func newBuildFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterBuildFlags(fs)
	return fs
}

func TestResolveBuildOptions_DefaultsFromSettings(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	fs := newBuildFlagSet()
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	opts, err := ResolveBuildOptions(fs, nil)
	if err != nil {
		t.Fatalf("ResolveBuildOptions returned error: %v", err)
	}
	if opts.OutputPath != "build" {
		t.Errorf("expected OutputPath 'build', got %q", opts.OutputPath)
	}
	if len(opts.Targets) != 1 {
		t.Errorf("expected exactly one default target, got %v", opts.Targets)
	}
}

func TestResolveBuildOptions_FlagsOverrideSettings(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	fs := newBuildFlagSet()
	if err := fs.Parse([]string{"--output", "public", "--db", "remote.db", "--debug", "doc.nml"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	opts, err := ResolveBuildOptions(fs, fs.Args())
	if err != nil {
		t.Fatalf("ResolveBuildOptions returned error: %v", err)
	}
	if opts.OutputPath != "public" {
		t.Errorf("expected OutputPath 'public', got %q", opts.OutputPath)
	}
	if opts.DBPath != "remote.db" {
		t.Errorf("expected DBPath 'remote.db', got %q", opts.DBPath)
	}
	if !opts.Debug {
		t.Errorf("expected Debug true")
	}
	if len(opts.Targets) != 1 || opts.Targets[0] != "doc.nml" {
		t.Errorf("expected Targets [doc.nml], got %v", opts.Targets)
	}
}
