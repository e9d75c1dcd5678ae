package config

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

// BuildOptions is the resolved configuration for a single `nmlc build`
// or `nmlc check` invocation: nml.toml settings with any explicitly
// passed flag overriding the matching setting.
type BuildOptions struct {
	Settings   *ProjectSettings
	Targets    []string
	OutputPath string
	DBPath     string
	Debug      bool
	Watch      bool
}

// RegisterBuildFlags adds the flags shared by `nmlc build` and `nmlc
// check` to fs.
func RegisterBuildFlags(fs *pflag.FlagSet) {
	fs.StringP("output", "o", "", "Output directory (overrides nml.toml's output_path)")
	fs.String("db", "", "Cache database path or libsql URL (overrides nml.toml's db_path)")
	fs.String("config", "nml.toml", "Path to the project settings file")
	fs.Bool("debug", false, "Enable verbose cache and compiler logging")
	fs.Bool("watch", false, "Accepted but has no effect: the build runs once")
}

// ResolveBuildOptions loads the settings file named by fs's --config
// flag, then layers any explicitly-set flag on top of it. args are the
// positional file/directory targets; the current directory is used
// when none are given.
func ResolveBuildOptions(fs *pflag.FlagSet, args []string) (*BuildOptions, error) {
	configPath, err := fs.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	settings, err := Load(configPath)
	if err != nil {
		return nil, err
	}

	opts := &BuildOptions{
		Settings:   settings,
		Targets:    args,
		OutputPath: settings.OutputPath,
		DBPath:     settings.DBPath,
		Debug:      settings.Debug,
	}

	if fs.Changed("output") {
		opts.OutputPath, _ = fs.GetString("output")
	}
	if fs.Changed("db") {
		opts.DBPath, _ = fs.GetString("db")
	}
	if fs.Changed("debug") {
		opts.Debug, _ = fs.GetBool("debug")
	}
	if fs.Changed("watch") {
		opts.Watch, _ = fs.GetBool("watch")
	}

	if len(opts.Targets) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.Targets = []string{cwd}
	}

	return opts, nil
}
