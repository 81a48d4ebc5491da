package forms

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func phenotypesConfig() FormConfig {
	return FormConfig{
		ID: "sample-update",
		Sections: []Section{{
			ID: "clinical",
			Elements: []Element{{
				Field: "phenotypes",
				Type:  KindObjectList,
				Title: "Phenotypes",
				Elements: []Element{
					{Field: "id", Type: KindInputText, Required: true},
					{Field: "name", Type: KindInputText},
					{Field: "status.name", Type: KindSelect, AllowedValues: []string{"OBSERVED", "NOT_OBSERVED"}},
				},
			}},
		}},
	}
}

// listEngine wires an engine whose change handler applies mutations back
// into the shared data object, the way an embedding UI does.
func listEngine(t *testing.T, data, original Data) (*Engine, *[]FieldChange) {
	t.Helper()
	var changes []FieldChange
	engine, err := NewEngine(phenotypesConfig(),
		WithData(data),
		WithOriginalData(original),
		WithChangeHandler(func(c FieldChange) {
			changes = append(changes, c)
			if err := Apply(data, c); err != nil {
				t.Fatalf("apply %+v: %v", c, err)
			}
		}),
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, &changes
}

func renderList(t *testing.T, engine *Engine) RenderedElement {
	t.Helper()
	tree, err := engine.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	return tree.Sections[0].Elements[0]
}

func TestAddItemAppendsAndOpensEditor(t *testing.T) {
	data := Data{"phenotypes": []any{map[string]any{"id": "HP:01"}}}
	engine, changes := listEngine(t, data, nil)

	if err := engine.AddItem("phenotypes"); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	arr, _ := asSlice(data["phenotypes"])
	if len(arr) != 2 {
		t.Fatalf("got %d items, want 2", len(arr))
	}
	if len(*changes) != 1 || (*changes)[0].Action != ActionAdd || (*changes)[0].Index != 1 {
		t.Fatalf("got %+v, want one ADD at index 1", *changes)
	}

	rendered := renderList(t, engine)
	if len(rendered.Items) != 2 {
		t.Fatalf("got %d rendered items, want 2", len(rendered.Items))
	}
	if rendered.Items[0].Editing || !rendered.Items[1].Editing {
		t.Fatal("exactly the added item must be open for edit")
	}
}

func TestAddItemOnUnknownFieldFails(t *testing.T) {
	engine, _ := listEngine(t, Data{}, nil)
	if err := engine.AddItem("disorders"); err == nil {
		t.Fatal("AddItem on an undeclared list must fail")
	}
}

func TestAddBatchMapsTokensPositionally(t *testing.T) {
	data := Data{}
	engine, changes := listEngine(t, data, nil)

	added, err := engine.AddBatch("phenotypes", "HP:01,Short stature,OBSERVED\n\nHP:02,Scoliosis\nHP:03,Tall stature,OBSERVED,extra")
	if err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if added != 3 {
		t.Fatalf("got %d added, want 3 (blank lines skipped)", added)
	}
	if len(*changes) != 3 {
		t.Fatalf("got %d events, want one ADD per line", len(*changes))
	}

	arr, _ := asSlice(data["phenotypes"])
	want := []any{
		Data{"id": "HP:01", "name": "Short stature", "status": Data{"name": "OBSERVED"}},
		Data{"id": "HP:02", "name": "Scoliosis"},
		Data{"id": "HP:03", "name": "Tall stature", "status": Data{"name": "OBSERVED"}},
	}
	if diff := cmp.Diff(want, arr); diff != "" {
		t.Fatalf("positional mapping mismatch (-want +got):\n%s", diff)
	}

	rendered := renderList(t, engine)
	if !rendered.Items[2].Editing || rendered.Items[0].Editing {
		t.Fatal("only the last added item is open for edit")
	}
}

func TestAddBatchAppendsAfterExistingItems(t *testing.T) {
	data := Data{"phenotypes": []any{map[string]any{"id": "HP:00"}}}
	engine, changes := listEngine(t, data, nil)

	if _, err := engine.AddBatch("phenotypes", "HP:01"); err != nil {
		t.Fatalf("AddBatch: %v", err)
	}
	if (*changes)[0].Index != 1 {
		t.Fatalf("got index %d, want 1 (after the existing item)", (*changes)[0].Index)
	}
	if got := MustParsePath("phenotypes[].1.id").Resolve(data); got != "HP:01" {
		t.Fatalf("got %v, want HP:01 appended", got)
	}
}

func TestRemoveItemShiftsEditorState(t *testing.T) {
	data := Data{"phenotypes": []any{
		map[string]any{"id": "HP:01"},
		map[string]any{"id": "HP:02"},
		map[string]any{"id": "HP:03"},
	}}
	engine, changes := listEngine(t, data, nil)
	engine.ToggleItemEdit("phenotypes", 2)

	if err := engine.RemoveItem("phenotypes", 0); err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	arr, _ := asSlice(data["phenotypes"])
	if len(arr) != 2 {
		t.Fatalf("got %d items, want 2", len(arr))
	}
	last := (*changes)[len(*changes)-1]
	removed, _ := last.Value.(map[string]any)
	if last.Action != ActionRemove || removed["id"] != "HP:01" {
		t.Fatalf("got %+v, want REMOVE carrying the removed value", last)
	}

	rendered := renderList(t, engine)
	if !rendered.Items[1].Editing {
		t.Fatal("editor state must follow the item down after a removal above it")
	}

	if err := engine.RemoveItem("phenotypes", 9); err == nil {
		t.Fatal("out-of-range removal must fail")
	}
}

func TestResetListRestoresDeepCopiedBaseline(t *testing.T) {
	original := Data{"phenotypes": []any{map[string]any{"id": "HP:01"}}}
	data := Data{"phenotypes": []any{
		map[string]any{"id": "HP:09"},
		map[string]any{"id": "HP:10"},
	}}
	engine, changes := listEngine(t, data, original)

	if err := engine.ResetList("phenotypes"); err != nil {
		t.Fatalf("ResetList: %v", err)
	}
	last := (*changes)[len(*changes)-1]
	if last.Action != ActionReset {
		t.Fatalf("got %+v, want a RESET change", last)
	}
	arr, _ := asSlice(data["phenotypes"])
	if len(arr) != 1 {
		t.Fatalf("got %d items, want the baseline length", len(arr))
	}
	if got := MustParsePath("phenotypes[].0.id").Resolve(data); got != "HP:01" {
		t.Fatalf("got %v, want the baseline value", got)
	}

	// The restored array must not share structure with the baseline.
	if err := Apply(data, FieldChange{Param: "phenotypes[].0.id", Value: "HP:77"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := MustParsePath("phenotypes[].0.id").Resolve(original); got != "HP:01" {
		t.Fatalf("got %v, reset must deep-copy the baseline", got)
	}
}

func TestResetListWithoutBaselineFails(t *testing.T) {
	engine, _ := listEngine(t, Data{}, nil)
	if err := engine.ResetList("phenotypes"); err == nil {
		t.Fatal("reset without original data must fail")
	}
}

func TestCollapsedListHidesItemsBeyondMax(t *testing.T) {
	cfg := phenotypesConfig()
	cfg.Sections[0].Elements[0].Display.MaxNumItems = 2
	items := make([]any, 0, 4)
	for _, id := range []string{"HP:01", "HP:02", "HP:03", "HP:04"} {
		items = append(items, map[string]any{"id": id})
	}
	data := Data{"phenotypes": items}
	engine, err := NewEngine(cfg, WithData(data))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	rendered := renderList(t, engine)
	if rendered.Expanded {
		t.Fatal("lists start collapsed")
	}
	if rendered.HiddenLen != 2 {
		t.Fatalf("got %d hidden, want 2", rendered.HiddenLen)
	}
	if rendered.Items[1].Hidden || !rendered.Items[2].Hidden {
		t.Fatal("items beyond maxNumItems are the hidden ones")
	}

	engine.ExpandList("phenotypes")
	rendered = renderList(t, engine)
	if !rendered.Expanded || rendered.HiddenLen != 0 {
		t.Fatalf("got %+v, want everything visible after expand", rendered)
	}

	engine.CollapseList("phenotypes")
	rendered = renderList(t, engine)
	if rendered.HiddenLen != 2 {
		t.Fatal("collapse hides the tail again")
	}
}

func TestObjectListItemContentUsesItemPaths(t *testing.T) {
	data := Data{"phenotypes": []any{
		map[string]any{"id": "HP:01", "name": "Short stature"},
		map[string]any{"id": "HP:02"},
	}}
	engine, _ := listEngine(t, data, nil)

	rendered := renderList(t, engine)
	if len(rendered.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(rendered.Items))
	}
	first := rendered.Items[1].Content[0]
	if first.Element.Field != "phenotypes[].1.id" {
		t.Fatalf("got field %q, want the rewritten item path", first.Element.Field)
	}
	if first.Content.Text != "HP:02" {
		t.Fatalf("got %q, want the item's own value", first.Content.Text)
	}
}
