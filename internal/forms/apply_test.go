package forms

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplySetRoundTrip(t *testing.T) {
	data := Data{}
	change := FieldChange{Param: "status.name", Value: "READY"}
	if err := Apply(data, change); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := MustParsePath("status.name").Resolve(data); got != "READY" {
		t.Fatalf("got %v, want the applied value back", got)
	}
}

func TestApplySetArrayItem(t *testing.T) {
	data := sampleData()
	change := FieldChange{Param: "phenotypes[].1.id", Value: "HP:99"}
	if err := Apply(data, change); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := MustParsePath("phenotypes[].1.id").Resolve(data); got != "HP:99" {
		t.Fatalf("got %v, want HP:99", got)
	}
	// Sibling fields of the item survive the write.
	if got := MustParsePath("phenotypes[].1.name").Resolve(data); got != "Scoliosis" {
		t.Fatalf("got %v, want untouched sibling", got)
	}
}

func TestApplyEditRequiresArrayItemPath(t *testing.T) {
	data := sampleData()
	err := Apply(data, FieldChange{Param: "status.name", Value: "X", Action: ActionEdit})
	if err == nil {
		t.Fatal("EDIT on a plain path should fail")
	}
	if err := Apply(data, FieldChange{Param: "phenotypes[].0.id", Value: "HP:44", Action: ActionEdit}); err != nil {
		t.Fatalf("Apply EDIT: %v", err)
	}
	if got := MustParsePath("phenotypes[].0.id").Resolve(data); got != "HP:44" {
		t.Fatalf("got %v, want HP:44", got)
	}
}

func TestApplyAddAppends(t *testing.T) {
	data := sampleData()
	item := Data{"id": "HP:03"}
	if err := Apply(data, FieldChange{Param: "phenotypes", Value: item, Action: ActionAdd, Index: 2}); err != nil {
		t.Fatalf("Apply ADD: %v", err)
	}
	arr, _ := asSlice(data["phenotypes"])
	if len(arr) != 3 {
		t.Fatalf("got %d items, want 3", len(arr))
	}
	if got := MustParsePath("phenotypes[].2.id").Resolve(data); got != "HP:03" {
		t.Fatalf("got %v, want the appended item", got)
	}
	// ADD on a missing field starts a new array.
	if err := Apply(data, FieldChange{Param: "disorders", Value: Data{}, Action: ActionAdd}); err != nil {
		t.Fatalf("Apply ADD on fresh field: %v", err)
	}
	if arr, _ := asSlice(data["disorders"]); len(arr) != 1 {
		t.Fatalf("got %d disorders, want 1", len(arr))
	}
}

func TestApplyRemoveSplices(t *testing.T) {
	data := sampleData()
	if err := Apply(data, FieldChange{Param: "phenotypes", Action: ActionRemove, Index: 0}); err != nil {
		t.Fatalf("Apply REMOVE: %v", err)
	}
	arr, _ := asSlice(data["phenotypes"])
	if len(arr) != 1 {
		t.Fatalf("got %d items, want 1", len(arr))
	}
	if got := MustParsePath("phenotypes[].0.id").Resolve(data); got != "HP:02" {
		t.Fatalf("got %v, want the survivor shifted down", got)
	}
	if err := Apply(data, FieldChange{Param: "phenotypes", Action: ActionRemove, Index: 5}); err == nil {
		t.Fatal("out-of-range REMOVE should fail")
	}
	if err := Apply(data, FieldChange{Param: "id", Action: ActionRemove, Index: 0}); err == nil {
		t.Fatal("REMOVE on a non-array should fail")
	}
}

func TestApplyResetRestoresBaseline(t *testing.T) {
	data := sampleData()
	baseline := []any{map[string]any{"id": "HP:01"}}
	if err := Apply(data, FieldChange{Param: "phenotypes", Action: ActionReset, Value: baseline}); err != nil {
		t.Fatalf("Apply RESET: %v", err)
	}
	if diff := cmp.Diff(baseline, data["phenotypes"]); diff != "" {
		t.Fatalf("baseline mismatch (-want +got):\n%s", diff)
	}
	// RESET with no value empties the list.
	if err := Apply(data, FieldChange{Param: "phenotypes", Action: ActionReset}); err != nil {
		t.Fatalf("Apply RESET nil: %v", err)
	}
	if arr, _ := asSlice(data["phenotypes"]); len(arr) != 0 {
		t.Fatalf("got %d items, want 0", len(arr))
	}
}

func TestApplyRejectsBadInput(t *testing.T) {
	if err := Apply(nil, FieldChange{Param: "x", Value: 1}); err == nil {
		t.Fatal("nil data should fail")
	}
	if err := Apply(Data{}, FieldChange{Param: "", Value: 1}); err == nil {
		t.Fatal("empty path should fail")
	}
	if err := Apply(Data{}, FieldChange{Param: "x", Action: Action("NOPE")}); err == nil {
		t.Fatal("unknown action should fail")
	}
}

func TestDeepCopyIsolation(t *testing.T) {
	original := sampleData()
	clone, ok := DeepCopy(original).(Data)
	if !ok {
		t.Fatal("DeepCopy of a Data should stay a Data")
	}
	if diff := cmp.Diff(original, clone); diff != "" {
		t.Fatalf("clone differs (-want +got):\n%s", diff)
	}
	if err := Apply(clone, FieldChange{Param: "phenotypes[].0.id", Value: "HP:77"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := MustParsePath("phenotypes[].0.id").Resolve(original); got != "HP:01" {
		t.Fatalf("got %v, original must not share structure with the clone", got)
	}
}
