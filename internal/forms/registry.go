package forms

import (
	"fmt"
	"sort"
	"sync"
)

// Registry resolves the behavior a data-only form definition can reference
// by stable string keys: visibility/disabled predicates, validators,
// options providers, and custom renderers. Keeping behavior out of the
// definition keeps definitions serializable and testable as plain YAML.
type Registry struct {
	mu             sync.RWMutex
	predicates     map[string]Predicate
	validators     map[string]Validator
	formValidators map[string]FormValidator
	options        map[string]OptionsProvider
	renderers      map[string]Renderer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		predicates:     map[string]Predicate{},
		validators:     map[string]Validator{},
		formValidators: map[string]FormValidator{},
		options:        map[string]OptionsProvider{},
		renderers:      map[string]Renderer{},
	}
}

// RegisterPredicate installs a visibility/disabled predicate. Duplicate
// keys are an error.
func (r *Registry) RegisterPredicate(key string, p Predicate) error {
	if key == "" {
		return fmt.Errorf("forms: predicate key is required")
	}
	if p == nil {
		return fmt.Errorf("forms: predicate is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.predicates[key]; exists {
		return fmt.Errorf("forms: predicate %s already registered", key)
	}
	r.predicates[key] = p
	return nil
}

// RegisterValidator installs a value validator.
func (r *Registry) RegisterValidator(key string, v Validator) error {
	if key == "" {
		return fmt.Errorf("forms: validator key is required")
	}
	if v == nil {
		return fmt.Errorf("forms: validator is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.validators[key]; exists {
		return fmt.Errorf("forms: validator %s already registered", key)
	}
	r.validators[key] = v
	return nil
}

// RegisterFormValidator installs a whole-form validator.
func (r *Registry) RegisterFormValidator(key string, v FormValidator) error {
	if key == "" {
		return fmt.Errorf("forms: form validator key is required")
	}
	if v == nil {
		return fmt.Errorf("forms: form validator is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.formValidators[key]; exists {
		return fmt.Errorf("forms: form validator %s already registered", key)
	}
	r.formValidators[key] = v
	return nil
}

// RegisterOptions installs a dynamic allowed-values provider.
func (r *Registry) RegisterOptions(key string, p OptionsProvider) error {
	if key == "" {
		return fmt.Errorf("forms: options key is required")
	}
	if p == nil {
		return fmt.Errorf("forms: options provider is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.options[key]; exists {
		return fmt.Errorf("forms: options provider %s already registered", key)
	}
	r.options[key] = p
	return nil
}

// RegisterRenderer installs a custom element renderer.
func (r *Registry) RegisterRenderer(key string, renderer Renderer) error {
	if key == "" {
		return fmt.Errorf("forms: renderer key is required")
	}
	if renderer == nil {
		return fmt.Errorf("forms: renderer is required for %s", key)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.renderers[key]; exists {
		return fmt.Errorf("forms: renderer %s already registered", key)
	}
	r.renderers[key] = renderer
	return nil
}

// MustRegisterPredicate panics if registration fails.
func (r *Registry) MustRegisterPredicate(key string, p Predicate) {
	if err := r.RegisterPredicate(key, p); err != nil {
		panic(err)
	}
}

// MustRegisterValidator panics if registration fails.
func (r *Registry) MustRegisterValidator(key string, v Validator) {
	if err := r.RegisterValidator(key, v); err != nil {
		panic(err)
	}
}

// Predicate looks up a registered predicate.
func (r *Registry) Predicate(key string) (Predicate, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.predicates[key]
	return p, ok
}

// Validator looks up a registered validator.
func (r *Registry) Validator(key string) (Validator, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.validators[key]
	return v, ok
}

// FormValidator looks up a registered whole-form validator.
func (r *Registry) FormValidator(key string) (FormValidator, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.formValidators[key]
	return v, ok
}

// Options looks up a registered options provider.
func (r *Registry) Options(key string) (OptionsProvider, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.options[key]
	return p, ok
}

// Renderer looks up a registered custom renderer.
func (r *Registry) Renderer(key string) (Renderer, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	renderer, ok := r.renderers[key]
	return renderer, ok
}

// Keys returns all registered keys grouped and sorted, for diagnostics.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.predicates)+len(r.validators)+len(r.options)+len(r.renderers))
	for k := range r.predicates {
		keys = append(keys, "predicate:"+k)
	}
	for k := range r.validators {
		keys = append(keys, "validator:"+k)
	}
	for k := range r.options {
		keys = append(keys, "options:"+k)
	}
	for k := range r.renderers {
		keys = append(keys, "renderer:"+k)
	}
	sort.Strings(keys)
	return keys
}
