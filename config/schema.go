package config

import (
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ValidateDialectOps checks opNames against the dialect's configured CUE
// schema file, if any. A dialect with no SchemaFile configured (schemaPath
// == "") always passes — schema validation is opt-in, resolving spec.md
// §4.4's open "dialect loading policy" question.
//
// A schema file is expected to define a single field, "operations",
// constraining the list of local operation names a dialect may declare,
// e.g.:
//
//	operations: [...=~"^[a-z][a-z0-9_]*$"]
func ValidateDialectOps(schemaPath string, opNames []string) error {
	if schemaPath == "" {
		return nil
	}
	data, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("cannot read dialect schema %s: %w", schemaPath, err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(data)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("invalid dialect schema %s: %w", schemaPath, err)
	}

	candidate, err := json.Marshal(map[string]any{"operations": opNames})
	if err != nil {
		return fmt.Errorf("cannot encode operation names for schema check: %w", err)
	}
	val := ctx.CompileBytes(candidate)

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("dialect operations rejected by schema %s: %w", schemaPath, err)
	}
	return nil
}
