// Package config handles bytecode.toml parser configuration: whether
// unregistered dialects are tolerated, per-dialect operation-schema files,
// and the allowlist of custom attribute/type codecs a parse may use.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DialectConfig configures how a single dialect is treated when the
// bytecode reader lazily loads it.
type DialectConfig struct {
	// SchemaFile optionally names a CUE file (relative to the config's
	// directory) constraining this dialect's operation names. A dialect
	// with no schema file loads unconditionally.
	SchemaFile string `toml:"schema"`

	// Codecs is this dialect's own allowlist of custom attribute/type
	// codec names, consulted before the parser-wide Codecs list. A
	// dialect with no Codecs configured falls back to the parser-wide
	// allowlist.
	Codecs []string `toml:"codecs"`
}

// ParserConfig is the parser configuration reader state (spec.md §3)
// holds a reference to for the duration of a parse.
type ParserConfig struct {
	// AllowUnregisteredDialects controls the Dialect Table's lazy-load
	// failure path (spec.md §4.4): if false, an unregistered dialect name
	// is a Schema-kind error.
	AllowUnregisteredDialects bool `toml:"allow-unregistered-dialects"`

	// Codecs is the allowlist of custom attribute/type codec names a
	// dialect may request via per-entry hasCustomEncoding (spec.md §4.5).
	Codecs []string `toml:"codecs"`

	// Dialects maps a dialect name to its DialectConfig.
	Dialects map[string]DialectConfig `toml:"dialects"`

	// Dir is the directory containing the loaded bytecode.toml (set at
	// load time), used to resolve SchemaFile paths.
	Dir string `toml:"-"`
}

// Default returns the configuration used when no bytecode.toml is present:
// unregistered dialects disallowed, no codecs enabled, no per-dialect
// schemas. spec.md §4.5 defines no custom codecs of its own, so a
// custom-encoded Attribute or Type entry fails with "unexpected encoding"
// unless a bytecode.toml explicitly opts a codec in.
func Default() *ParserConfig {
	return &ParserConfig{
		AllowUnregisteredDialects: false,
		Dialects:                  map[string]DialectConfig{},
	}
}

// Load parses a bytecode.toml file from the given directory, filling in
// defaults for anything left unset. A key genuinely absent from the file
// keeps Default()'s value (e.g. Codecs stays empty); Load never re-fills a
// field the file deliberately left empty.
func Load(dir string) (*ParserConfig, error) {
	path := filepath.Join(dir, "bytecode.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	cfg.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if cfg.Dialects == nil {
		cfg.Dialects = map[string]DialectConfig{}
	}

	return cfg, nil
}

// SchemaPath returns the absolute path to the named dialect's schema
// file, or "" if it has none configured.
func (c *ParserConfig) SchemaPath(dialect string) string {
	dc, ok := c.Dialects[dialect]
	if !ok || dc.SchemaFile == "" {
		return ""
	}
	return filepath.Join(c.Dir, dc.SchemaFile)
}

// CodecAllowed reports whether the named codec is in the parser-wide
// allowlist.
func (c *ParserConfig) CodecAllowed(name string) bool {
	return codecListed(c.Codecs, name)
}

// CodecAllowedForDialect reports whether the named codec may be used to
// decode a custom-encoded Attribute or Type entry owned by the given
// dialect: the dialect's own Codecs allowlist is consulted first, falling
// back to the parser-wide allowlist if the dialect has none configured.
func (c *ParserConfig) CodecAllowedForDialect(dialect, name string) bool {
	if dc, ok := c.Dialects[dialect]; ok && len(dc.Codecs) > 0 {
		return codecListed(dc.Codecs, name)
	}
	return c.CodecAllowed(name)
}

func codecListed(codecs []string, name string) bool {
	for _, n := range codecs {
		if n == name {
			return true
		}
	}
	return false
}
