package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSchema(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestValidateDialectOpsNoSchema(t *testing.T) {
	if err := ValidateDialectOps("", []string{"anything"}); err != nil {
		t.Fatalf("no schema configured should always pass, got %v", err)
	}
}

func TestValidateDialectOpsAccepts(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "test.cue", `operations: [...=~"^[a-z][a-z0-9_]*$"]`)
	if err := ValidateDialectOps(path, []string{"add", "sub_const"}); err != nil {
		t.Fatalf("expected valid op names to pass, got %v", err)
	}
}

func TestValidateDialectOpsRejects(t *testing.T) {
	dir := t.TempDir()
	path := writeSchema(t, dir, "test.cue", `operations: [...=~"^[a-z][a-z0-9_]*$"]`)
	if err := ValidateDialectOps(path, []string{"Bad-Name"}); err == nil {
		t.Fatal("expected schema violation to be rejected")
	}
}

func TestValidateDialectOpsMissingFile(t *testing.T) {
	if err := ValidateDialectOps("/nonexistent/schema.cue", []string{"x"}); err == nil {
		t.Fatal("expected error for missing schema file")
	}
}
