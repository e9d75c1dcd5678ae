package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnvVars() {
	os.Unsetenv("NML_OUTPUT_PATH")
	os.Unsetenv("NML_DB_PATH")
	os.Unsetenv("NML_DEFAULT_KERNEL")
	os.Unsetenv("NML_LANGUAGE_ALLOWLIST")
	os.Unsetenv("NML_DEBUG")
	os.Unsetenv("NML_HTML_LANGUAGE")
	os.Unsetenv("NML_HTML_ICON")
	os.Unsetenv("NML_HTML_CSS")
}

func TestLoad_DefaultValues(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.OutputPath != "build" {
		t.Errorf("expected OutputPath 'build', got %q", settings.OutputPath)
	}
	if settings.DBPath != ".nml-cache.db" {
		t.Errorf("expected DBPath '.nml-cache.db', got %q", settings.DBPath)
	}
	if settings.DefaultKernel != "main" {
		t.Errorf("expected DefaultKernel 'main', got %q", settings.DefaultKernel)
	}
	if settings.Debug {
		t.Errorf("expected Debug false by default")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	os.Setenv("NML_OUTPUT_PATH", "dist")
	os.Setenv("NML_DB_PATH", "/tmp/nml.db")
	os.Setenv("NML_DEFAULT_KERNEL", "lua")
	os.Setenv("NML_LANGUAGE_ALLOWLIST", "go, python")
	os.Setenv("NML_DEBUG", "true")

	settings, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.OutputPath != "dist" {
		t.Errorf("expected OutputPath 'dist', got %q", settings.OutputPath)
	}
	if settings.DBPath != "/tmp/nml.db" {
		t.Errorf("expected DBPath '/tmp/nml.db', got %q", settings.DBPath)
	}
	if settings.DefaultKernel != "lua" {
		t.Errorf("expected DefaultKernel 'lua', got %q", settings.DefaultKernel)
	}
	if len(settings.LanguageAllowlist) != 2 || settings.LanguageAllowlist[0] != "go" || settings.LanguageAllowlist[1] != "python" {
		t.Errorf("expected LanguageAllowlist [go python], got %v", settings.LanguageAllowlist)
	}
	if !settings.Debug {
		t.Errorf("expected Debug true")
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	dir := t.TempDir()
	path := filepath.Join(dir, "nml.toml")
	contents := "output_path = \"site\"\ndb_path = \"cache.db\"\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing nml.toml: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if settings.OutputPath != "site" {
		t.Errorf("expected OutputPath 'site', got %q", settings.OutputPath)
	}
	if settings.DBPath != "cache.db" {
		t.Errorf("expected DBPath 'cache.db', got %q", settings.DBPath)
	}
	if settings.DefaultKernel != "main" {
		t.Errorf("expected DefaultKernel fallback to 'main', got %q", settings.DefaultKernel)
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	settings, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error for a missing file: %v", err)
	}
	if settings.OutputPath != "build" {
		t.Errorf("expected default OutputPath, got %q", settings.OutputPath)
	}
}

func TestLoad_HTMLSettingsPassThrough(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	dir := t.TempDir()
	path := filepath.Join(dir, "nml.toml")
	contents := "[html]\nminify_output = true\ninline_css = false\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing nml.toml: %v", err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !settings.HTML.MinifyOutput {
		t.Errorf("expected HTML.MinifyOutput true")
	}
	if settings.HTML.InlineCSS {
		t.Errorf("expected HTML.InlineCSS false")
	}
}
