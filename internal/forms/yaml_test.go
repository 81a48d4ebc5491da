package forms

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDefinitionYAML = `
id: sample-update
type: tabs
title: Sample Update
sections:
  - id: general
    title: General
    elements:
      - field: id
        type: input-text
        title: Sample ID
        required: true
      - field: somatic
        type: checkbox
  - id: clinical
    title: Clinical
    elements:
      - field: phenotypes
        type: object-list
        title: Phenotypes
        display:
          maxNumItems: 3
        elements:
          - field: id
            type: input-text
            required: true
          - field: name
            type: input-text
`

func TestParseDefinitionYAML(t *testing.T) {
	cfg, err := ParseDefinitionYAML([]byte(sampleDefinitionYAML))
	if err != nil {
		t.Fatalf("ParseDefinitionYAML: %v", err)
	}
	if cfg.ID != "sample-update" || cfg.Type != TypeTabs {
		t.Fatalf("got %s/%s, want sample-update/tabs", cfg.ID, cfg.Type)
	}
	if len(cfg.Sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(cfg.Sections))
	}
	list := cfg.Sections[1].Elements[0]
	if list.Type != KindObjectList || list.Display.MaxNumItems != 3 {
		t.Fatalf("got %+v, want the object-list with its display settings", list)
	}
	if list.Elements[0].Path().IsZero() {
		t.Fatal("sub-element paths must be parsed during validation")
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	if _, err := ParseDefinitionYAML(nil); err == nil {
		t.Fatal("empty payload must fail")
	}
	if _, err := ParseDefinitionYAML([]byte("  \n\t")); err == nil {
		t.Fatal("blank payload must fail")
	}
	if _, err := ParseDefinitionYAML([]byte("id: [broken")); err == nil {
		t.Fatal("invalid YAML must fail")
	}
	broken := `
id: x
sections:
  - id: s
    elements:
      - field: a
        type: carousel
`
	if _, err := ParseDefinitionYAML([]byte(broken)); err == nil {
		t.Fatal("unknown element kind must fail at load time")
	}
}

func TestLoadDefinitionFileDefaultsID(t *testing.T) {
	dir := t.TempDir()
	payload := `
sections:
  - id: s
    elements:
      - field: a
        type: input-text
`
	path := filepath.Join(dir, "anonymous-form.yaml")
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	def, err := LoadDefinitionFile(path)
	if err != nil {
		t.Fatalf("LoadDefinitionFile: %v", err)
	}
	if def.Definition.ID != "anonymous-form" {
		t.Fatalf("got %q, want the filename stem as ID", def.Definition.ID)
	}
	if def.Path != path {
		t.Fatalf("got %q, want the source path recorded", def.Path)
	}
}

func TestLoadDefinitionFileErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadDefinitionFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatal("missing file must fail")
	}
	if _, err := LoadDefinitionFile(dir); err == nil {
		t.Fatal("directory path must fail")
	}
}

func TestLoadDefinitionDir(t *testing.T) {
	dir := t.TempDir()
	for name, id := range map[string]string{
		"b.yaml": "beta",
		"a.yml":  "alpha",
	} {
		payload := "id: " + id + "\nsections:\n  - id: s\n    elements:\n      - field: a\n        type: input-text\n"
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// Non-YAML files are skipped.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	defs, err := LoadDefinitionDir(dir)
	if err != nil {
		t.Fatalf("LoadDefinitionDir: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("got %d definitions, want 2", len(defs))
	}
	if defs[0].Definition.ID != "alpha" || defs[1].Definition.ID != "beta" {
		t.Fatalf("got %s,%s, want path-sorted order", defs[0].Definition.ID, defs[1].Definition.ID)
	}
}

func TestLoadDefinitionDirMissingIsEmpty(t *testing.T) {
	defs, err := LoadDefinitionDir(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadDefinitionDir: %v", err)
	}
	if defs != nil {
		t.Fatalf("got %v, want nil for a missing directory", defs)
	}
	if defs, err := LoadDefinitionDir(""); err != nil || defs != nil {
		t.Fatalf("got %v/%v, want nil/nil for a blank dir", defs, err)
	}
}
