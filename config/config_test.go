package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
allow-unregistered-dialects = true
codecs = ["cbor"]

[dialects.test]
schema = "test.cue"
`
	if err := os.WriteFile(filepath.Join(dir, "bytecode.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !cfg.AllowUnregisteredDialects {
		t.Error("AllowUnregisteredDialects = false, want true")
	}
	if len(cfg.Codecs) != 1 || cfg.Codecs[0] != "cbor" {
		t.Errorf("Codecs = %v, want [cbor]", cfg.Codecs)
	}
	if got := cfg.SchemaPath("test"); got != filepath.Join(cfg.Dir, "test.cue") {
		t.Errorf("SchemaPath(test) = %q, want %q", got, filepath.Join(cfg.Dir, "test.cue"))
	}
	if cfg.SchemaPath("other") != "" {
		t.Error("SchemaPath(other) should be empty for an unconfigured dialect")
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bytecode.toml"), []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.AllowUnregisteredDialects {
		t.Error("AllowUnregisteredDialects should default to false")
	}
	if len(cfg.Codecs) != 0 {
		t.Errorf("Codecs should stay empty when the file omits the key, got %v", cfg.Codecs)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for missing bytecode.toml")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.AllowUnregisteredDialects {
		t.Error("Default().AllowUnregisteredDialects should be false")
	}
	if cfg.CodecAllowed("cbor") {
		t.Error("Default() should enable no codecs, matching spec's no-custom-codecs behavior")
	}
	if cfg.CodecAllowed("bogus") {
		t.Error("Default() should not allow an unlisted codec")
	}
}

func TestCodecAllowed(t *testing.T) {
	cfg := &ParserConfig{Codecs: []string{"cbor", "raw"}}
	if !cfg.CodecAllowed("raw") {
		t.Error("expected raw to be allowed")
	}
	if cfg.CodecAllowed("json") {
		t.Error("expected json to be disallowed")
	}
}

func TestCodecAllowedForDialectFallsBackToParserWide(t *testing.T) {
	cfg := &ParserConfig{Codecs: []string{"cbor"}, Dialects: map[string]DialectConfig{}}
	if !cfg.CodecAllowedForDialect("widget", "cbor") {
		t.Error("expected a dialect with no codec override to fall back to the parser-wide allowlist")
	}
}

func TestCodecAllowedForDialectOverridesParserWide(t *testing.T) {
	cfg := &ParserConfig{
		Codecs:   []string{"cbor"},
		Dialects: map[string]DialectConfig{"widget": {Codecs: []string{}}},
	}
	if !cfg.CodecAllowedForDialect("widget", "cbor") {
		t.Error("an empty per-dialect Codecs slice should still fall back to the parser-wide allowlist")
	}

	cfg.Dialects["widget"] = DialectConfig{Codecs: []string{"raw"}}
	if cfg.CodecAllowedForDialect("widget", "cbor") {
		t.Error("a non-empty per-dialect Codecs list should replace, not extend, the parser-wide allowlist")
	}
	if !cfg.CodecAllowedForDialect("widget", "raw") {
		t.Error("expected the per-dialect codec to be allowed")
	}
}
