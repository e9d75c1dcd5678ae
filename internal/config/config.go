// Package config loads project settings from nml.toml, with
// environment variables filling in anything the file leaves unset.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// HTMLSettings is carried through nml.toml verbatim for whatever HTML
// post-processing step consumes a build's output. This package never
// interprets these fields itself; it only parses and defaults them.
type HTMLSettings struct {
	MinifyOutput bool           `toml:"minify_output"`
	InlineCSS    bool           `toml:"inline_css"`
	Extra        map[string]any `toml:"extra"`

	// Language, Icon, and CSS are the project-wide defaults for a
	// document's `<html lang>` attribute, favicon link, and extra
	// stylesheet link; any document may override them with its own
	// `html.language`/`html.icon`/`html.css` variable.
	Language string `toml:"language"`
	Icon     string `toml:"icon"`
	CSS      string `toml:"css"`
}

// ProjectSettings is the parsed contents of nml.toml, with every field
// left unset in the file falling back to its NML_* environment
// variable and then a hardcoded default.
type ProjectSettings struct {
	OutputPath string `toml:"output_path"`
	DBPath     string `toml:"db_path"`

	// DefaultKernel is loaded and defaulted like the other fields, but
	// the script rule does not read it: a @<...>@ block whose header
	// line omits a kernel name always runs under "main".
	DefaultKernel string `toml:"default_kernel"`

	// LanguageAllowlist is loaded like the other fields, but
	// internal/elements' code-block highlighter does not consult it:
	// every grammar the binary was built with stays available.
	LanguageAllowlist []string `toml:"language_allowlist"`

	Debug bool `toml:"debug"`

	HTML HTMLSettings `toml:"html"`
}

// Load reads nml.toml from path, or returns defaults if path does not
// exist. Any field the file leaves at its zero value is then filled
// from the matching NML_* environment variable, and finally a
// hardcoded default.
func Load(path string) (*ProjectSettings, error) {
	settings := &ProjectSettings{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnvDefaults(settings)
	return settings, nil
}

func applyEnvDefaults(s *ProjectSettings) {
	if s.OutputPath == "" {
		s.OutputPath = getEnvOr("NML_OUTPUT_PATH", "build")
	}
	if s.DBPath == "" {
		s.DBPath = getEnvOr("NML_DB_PATH", ".nml-cache.db")
	}
	if s.DefaultKernel == "" {
		s.DefaultKernel = getEnvOr("NML_DEFAULT_KERNEL", "main")
	}
	if len(s.LanguageAllowlist) == 0 {
		if raw := os.Getenv("NML_LANGUAGE_ALLOWLIST"); raw != "" {
			s.LanguageAllowlist = splitAndTrim(raw)
		}
	}
	if !s.Debug {
		if debugStr := os.Getenv("NML_DEBUG"); debugStr != "" {
			if debug, err := strconv.ParseBool(debugStr); err == nil {
				s.Debug = debug
			}
		}
	}
	if s.HTML.Language == "" {
		s.HTML.Language = getEnvOr("NML_HTML_LANGUAGE", "en")
	}
	if s.HTML.Icon == "" {
		s.HTML.Icon = os.Getenv("NML_HTML_ICON")
	}
	if s.HTML.CSS == "" {
		s.HTML.CSS = os.Getenv("NML_HTML_CSS")
	}
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
