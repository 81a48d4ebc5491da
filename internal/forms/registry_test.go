package forms

import "testing"

func TestRegistryRejectsDuplicatesAndBlanks(t *testing.T) {
	reg := NewRegistry()
	pass := func(data Data, item any) bool { return true }

	if err := reg.RegisterPredicate("visible", pass); err != nil {
		t.Fatalf("RegisterPredicate: %v", err)
	}
	if err := reg.RegisterPredicate("visible", pass); err == nil {
		t.Fatal("duplicate key must be rejected")
	}
	if err := reg.RegisterPredicate("", pass); err == nil {
		t.Fatal("blank key must be rejected")
	}
	if err := reg.RegisterPredicate("nil", nil); err == nil {
		t.Fatal("nil predicate must be rejected")
	}
}

func TestRegistryLookupMiss(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Predicate("missing"); ok {
		t.Fatal("lookup of an unregistered key must miss")
	}
	if _, ok := reg.Validator("missing"); ok {
		t.Fatal("lookup of an unregistered key must miss")
	}
	if _, ok := reg.FormValidator("missing"); ok {
		t.Fatal("lookup of an unregistered key must miss")
	}
}

func TestNilRegistryIsSafe(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Predicate("x"); ok {
		t.Fatal("nil registry must miss, not panic")
	}
	if _, ok := reg.Options("x"); ok {
		t.Fatal("nil registry must miss, not panic")
	}
	if keys := reg.Keys(); keys != nil {
		t.Fatalf("got %v, want nil keys", keys)
	}
}

func TestRegistryKeysAreGroupedAndSorted(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegisterValidator("b", func(value any, data Data, item any) bool { return true })
	reg.MustRegisterPredicate("a", func(data Data, item any) bool { return true })
	keys := reg.Keys()
	if len(keys) != 2 || keys[0] != "predicate:a" || keys[1] != "validator:b" {
		t.Fatalf("got %v, want grouped sorted keys", keys)
	}
}
