package forms

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeForm(t *testing.T, dir, name, id string) {
	t.Helper()
	payload := "id: " + id + "\nsections:\n  - id: s\n    elements:\n      - field: a\n        type: input-text\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDiscoverForms(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, dir, "update.yaml", "sample-update")
	writeForm(t, dir, "create.yaml", "sample-create")

	catalog, err := DiscoverForms(dir)
	if err != nil {
		t.Fatalf("DiscoverForms: %v", err)
	}
	if catalog.Len() != 2 {
		t.Fatalf("got %d forms, want 2", catalog.Len())
	}
	def, ok := catalog.Get("sample-update")
	if !ok || def.ID != "sample-update" {
		t.Fatalf("got %+v/%v, want the update form", def, ok)
	}
	path, ok := catalog.Path("sample-update")
	if !ok || filepath.Base(path) != "update.yaml" {
		t.Fatalf("got %q, want the source file", path)
	}
	if _, ok := catalog.Get("missing"); ok {
		t.Fatal("unknown id must miss")
	}
}

func TestDiscoverFormsRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeForm(t, dir, "one.yaml", "sample-update")
	writeForm(t, dir, "two.yaml", "sample-update")

	_, err := DiscoverForms(dir)
	if err == nil {
		t.Fatal("duplicate form ids must be rejected")
	}
	if !strings.Contains(err.Error(), "one.yaml") || !strings.Contains(err.Error(), "two.yaml") {
		t.Fatalf("error %q should name both source files", err)
	}
}

func TestDiscoverFormsEmptyDir(t *testing.T) {
	catalog, err := DiscoverForms(t.TempDir())
	if err != nil {
		t.Fatalf("DiscoverForms: %v", err)
	}
	if catalog.Len() != 0 {
		t.Fatalf("got %d forms, want 0", catalog.Len())
	}
	if ids := catalog.IDs(); len(ids) != 0 {
		t.Fatalf("got %v, want no ids", ids)
	}

	var nilCatalog *Catalog
	if nilCatalog.Len() != 0 {
		t.Fatal("nil catalog must be safe")
	}
}
