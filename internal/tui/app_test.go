package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/genovista/catview/internal/config"
	"github.com/genovista/catview/internal/forms"
)

const testFormYAML = `
id: sample-update
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
        title: Somatic
      - field: phenotypes
        type: object-list
        title: Phenotypes
        elements:
          - field: id
            type: input-text
            required: true
          - field: name
            type: input-text
`

func newTestApp(t *testing.T, projectDir string) *App {
	t.Helper()
	if err := config.InitCatviewDir(projectDir); err != nil {
		t.Fatalf("init catview dir: %v", err)
	}
	formPath := filepath.Join(projectDir, ".catview", "forms", "sample-update.yaml")
	if err := os.WriteFile(formPath, []byte(testFormYAML), 0o644); err != nil {
		t.Fatalf("write form: %v", err)
	}
	app, err := NewApp(projectDir)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	app.width = 100
	app.height = 40
	return app
}

func press(t *testing.T, app *App, keys ...string) *App {
	t.Helper()
	for _, key := range keys {
		var msg tea.KeyMsg
		switch key {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		model, _ := app.Update(msg)
		next, ok := model.(*App)
		if !ok {
			t.Fatalf("Update returned %T, want *App", model)
		}
		app = next
	}
	return app
}

func TestAppDiscoversFormsIntoMenu(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	if app.catalog.Len() != 1 {
		t.Fatalf("got %d forms, want 1 discovered", app.catalog.Len())
	}
	view := app.View()
	if !strings.Contains(view, "CATVIEW") {
		t.Fatal("main view should carry the header")
	}
	if !strings.Contains(view, "Open Form") {
		t.Fatal("main menu should offer the form picker")
	}
}

func TestOpenFormTransitionsToFormView(t *testing.T) {
	app := newTestApp(t, t.TempDir())

	app = press(t, app, "enter") // Open Form
	if app.state != stateFormSelect {
		t.Fatalf("got state %d, want form select", app.state)
	}
	app = press(t, app, "enter") // first (only) form
	if app.state != stateFormView || app.formView == nil {
		t.Fatalf("got state %d, want an open form view", app.state)
	}
	view := app.View()
	if !strings.Contains(view, "Sample ID") {
		t.Fatal("form view should render the form's elements")
	}

	app = press(t, app, "esc")
	if app.state != stateMainMenu || app.formView != nil {
		t.Fatal("escape returns to the main menu and drops the view")
	}
}

func TestFormViewEditRoundTrip(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	app = press(t, app, "enter", "enter")
	fv := app.formView
	if fv == nil {
		t.Fatal("form view missing")
	}

	// Edit the first field: enter opens the input, runes type, enter commits.
	app = press(t, app, "enter")
	if !fv.editing {
		t.Fatal("enter on an input must open the editor")
	}
	app = press(t, app, "NA12877", "enter")
	if fv.editing {
		t.Fatal("commit must close the editor")
	}
	if got := forms.MustParsePath("id").Resolve(fv.data); got != "NA12877" {
		t.Fatalf("got %v, want the committed value in the data object", got)
	}

	// Escape cancels without committing.
	app = press(t, app, "enter", "zzz", "esc")
	if got := forms.MustParsePath("id").Resolve(fv.data); got != "NA12877" {
		t.Fatalf("got %v, cancel must not write", got)
	}
	_ = app
}

func TestFormViewToggleAndSubmitGate(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	app = press(t, app, "enter", "enter")
	fv := app.formView

	// Move to the checkbox and toggle it.
	app = press(t, app, "j", "space")
	if got := forms.MustParsePath("somatic").Resolve(fv.data); got != true {
		t.Fatalf("got %v, want the toggle applied", got)
	}

	// Submit is blocked while the required id is empty.
	fv.handleSubmit()
	if fv.submitted {
		t.Fatal("submit must be gated on the validation report")
	}
	if fv.status == "" {
		t.Fatal("a blocked submit should say so")
	}
	if !strings.Contains(app.View(), "✗") {
		t.Fatal("errors become visible after the failed submit")
	}

	// Fill the required field and submit again.
	app = press(t, app, "k", "enter", "NA12877", "enter")
	fv.handleSubmit()
	if !fv.submitted {
		t.Fatal("valid form must submit")
	}
	_ = app
}

func TestFormViewObjectListKeys(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	app = press(t, app, "enter", "enter")
	fv := app.formView

	// Focus the phenotypes list header (input, toggle, then header).
	app = press(t, app, "j", "j", "a")
	arr, _ := forms.MustParsePath("phenotypes").Resolve(fv.data).([]any)
	if len(arr) != 1 {
		t.Fatalf("got %d items, want 1 added", len(arr))
	}
	if !strings.Contains(app.View(), "(editing)") {
		t.Fatal("the added item opens for edit")
	}
	_ = app
}

func TestBrowseWithoutServerIsGraceful(t *testing.T) {
	app := newTestApp(t, t.TempDir())
	if cmd := app.searchCategory("individuals"); cmd != nil {
		t.Fatal("no configured server must short-circuit instead of dialing")
	}
	if !strings.Contains(app.statusMsg, "No catalog server") {
		t.Fatalf("got status %q, want the hint", app.statusMsg)
	}
}
