package forms

import (
	"fmt"
	"strings"
)

// FormType selects the root layout of a form.
type FormType string

const (
	TypeForm  FormType = "form"
	TypeTabs  FormType = "tabs"
	TypePills FormType = "pills"
	TypeModal FormType = "modal"
	TypeCard  FormType = "card"
)

var validFormTypes = map[FormType]struct{}{
	TypeForm:  {},
	TypeTabs:  {},
	TypePills: {},
	TypeModal: {},
	TypeCard:  {},
}

// ElementKind identifies the rendering contract of one element. The set is
// closed: definitions carrying any other kind are rejected when they enter
// the system, and the engine's kind switch rejects them again at render
// time as a broken-configuration guard.
type ElementKind string

const (
	KindBasic        ElementKind = "basic"
	KindText         ElementKind = "text"
	KindTitle        ElementKind = "title"
	KindNotification ElementKind = "notification"
	KindInputText    ElementKind = "input-text"
	KindInputNum     ElementKind = "input-num"
	KindInputNumber  ElementKind = "input-number"
	KindInputPass    ElementKind = "input-password"
	KindInputDate    ElementKind = "input-date"
	KindCheckbox     ElementKind = "checkbox"
	KindToggleSwitch ElementKind = "toggle-switch"
	KindToggleButton ElementKind = "toggle-buttons"
	KindSelect       ElementKind = "select"
	KindComplex      ElementKind = "complex"
	KindList         ElementKind = "list"
	KindTable        ElementKind = "table"
	KindChart        ElementKind = "chart"
	KindJSON         ElementKind = "json"
	KindJSONEditor   ElementKind = "json-editor"
	KindTree         ElementKind = "tree"
	KindCustom       ElementKind = "custom"
	KindDownload     ElementKind = "download"
	KindObject       ElementKind = "object"
	KindObjectList   ElementKind = "object-list"
	KindSeparator    ElementKind = "separator"
)

// KindInputNum and KindInputNumber are aliases kept for definition
// compatibility; both render a numeric input.
var validKinds = map[ElementKind]struct{}{
	KindBasic: {}, KindText: {}, KindTitle: {}, KindNotification: {},
	KindInputText: {}, KindInputNum: {}, KindInputNumber: {}, KindInputPass: {},
	KindInputDate: {}, KindCheckbox: {}, KindToggleSwitch: {}, KindToggleButton: {},
	KindSelect: {}, KindComplex: {}, KindList: {}, KindTable: {}, KindChart: {},
	KindJSON: {}, KindJSONEditor: {}, KindTree: {}, KindCustom: {}, KindDownload: {},
	KindObject: {}, KindObjectList: {}, KindSeparator: {},
}

// IsNumeric reports whether the kind renders a numeric input.
func (k ElementKind) IsNumeric() bool {
	return k == KindInputNum || k == KindInputNumber
}

// Layout selects how a label relates to its content. It only changes
// container structure, never value resolution or validation.
type Layout string

const (
	LayoutHorizontal Layout = "horizontal"
	LayoutVertical   Layout = "vertical"
)

// Predicate decides visibility/disabled state. For elements addressed by
// an array-item path the second argument is the resolved array item; for
// every other field it is nil. Both halves of that contract matter:
// array-item predicates commonly need their own item, not the whole array.
type Predicate func(data Data, item any) bool

// Validator checks one element value. data is the whole form data object
// and item is the enclosing array item for array-item fields, nil
// otherwise.
type Validator func(value any, data Data, item any) bool

// FormValidator checks the whole form at submit time.
type FormValidator func(data Data) bool

// OptionsProvider supplies dynamic allowed values for select-like kinds.
type OptionsProvider func(data Data) []string

// DisplaySettings carries presentation hints. The engine interprets only
// the handful of keys below; everything else rides through to the
// rendering strategy untouched via Extra.
type DisplaySettings struct {
	Visible    *bool  `json:"visible,omitempty" yaml:"visible,omitempty"`
	VisibleIf  string `json:"visibleIf,omitempty" yaml:"visibleIf,omitempty"`
	Disabled   *bool  `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	DisabledIf string `json:"disabledIf,omitempty" yaml:"disabledIf,omitempty"`

	DefaultValue  any     `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	DefaultLayout Layout  `json:"defaultLayout,omitempty" yaml:"defaultLayout,omitempty"`
	Width         int     `json:"width,omitempty" yaml:"width,omitempty"`
	Collapsed     bool    `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	MaxNumItems   int     `json:"maxNumItems,omitempty" yaml:"maxNumItems,omitempty"`
	HelpText      string  `json:"helpText,omitempty" yaml:"helpText,omitempty"`
	Format        *Format `json:"format,omitempty" yaml:"format,omitempty"`

	// Render names a registered custom renderer for kind "custom".
	Render string `json:"render,omitempty" yaml:"render,omitempty"`

	// AllowedValuesFrom names a registered options provider, overriding a
	// static Element.AllowedValues list.
	AllowedValuesFrom string `json:"allowedValuesFrom,omitempty" yaml:"allowedValuesFrom,omitempty"`

	// Template drives the "complex" kind: ${field.path} tokens are
	// substituted with resolved values.
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// Columns lists the result fields shown by table elements.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Extra holds hints the engine does not interpret.
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`

	// Programmatic hooks for embedding applications; definitions loaded
	// from YAML use the *If / Render / AllowedValuesFrom registry keys
	// instead so configuration stays pure data.
	VisibleFunc  Predicate `json:"-" yaml:"-"`
	DisabledFunc Predicate `json:"-" yaml:"-"`
	RenderFunc   Renderer  `json:"-" yaml:"-"`
}

// Validation attaches a value validator to an element (or, at the form
// level, a whole-form validator).
type Validation struct {
	// ValidateIf names a registered validator.
	ValidateIf string `json:"validateIf,omitempty" yaml:"validateIf,omitempty"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`

	Func     Validator     `json:"-" yaml:"-"`
	FormFunc FormValidator `json:"-" yaml:"-"`
}

// Element is one leaf of the configuration tree: a single displayed or
// editable value and its rendering kind.
type Element struct {
	Field         string          `json:"field,omitempty" yaml:"field,omitempty"`
	Type          ElementKind     `json:"type" yaml:"type"`
	Title         string          `json:"title,omitempty" yaml:"title,omitempty"`
	Text          string          `json:"text,omitempty" yaml:"text,omitempty"`
	Required      bool            `json:"required,omitempty" yaml:"required,omitempty"`
	AllowedValues []string        `json:"allowedValues,omitempty" yaml:"allowedValues,omitempty"`
	Display       DisplaySettings `json:"display,omitempty" yaml:"display,omitempty"`
	Validation    *Validation     `json:"validation,omitempty" yaml:"validation,omitempty"`

	// Elements declares the sub-elements of object and object-list kinds.
	// For object-list, each sub-element Field is relative to one item;
	// batch add maps comma-separated tokens positionally onto these
	// declarations in order, so reordering them changes parsing.
	Elements []Element `json:"elements,omitempty" yaml:"elements,omitempty"`

	path Path
}

// Path returns the parsed field path. Valid after the owning FormConfig
// passed Validate.
func (e *Element) Path() Path { return e.path }

// Section groups elements; it is the unit of tab/pill/card navigation.
type Section struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string          `json:"title,omitempty" yaml:"title,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Display     DisplaySettings `json:"display,omitempty" yaml:"display,omitempty"`
	Elements    []Element       `json:"elements" yaml:"elements"`
}

// structurallyEmpty reports whether the section holds nothing but a single
// notification. Such sections render their notice but stay out of tab and
// pill navigation.
func (s Section) structurallyEmpty() bool {
	return len(s.Elements) == 1 && s.Elements[0].Type == KindNotification
}

// FormConfig is the root of a declarative form definition.
type FormConfig struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty"`
	Type        FormType        `json:"type" yaml:"type"`
	Title       string          `json:"title,omitempty" yaml:"title,omitempty"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Display     DisplaySettings `json:"display,omitempty" yaml:"display,omitempty"`
	Sections    []Section       `json:"sections" yaml:"sections"`
	Validation  *Validation     `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// Normalized returns a trimmed copy of the configuration.
func (c FormConfig) Normalized() FormConfig {
	clone := c
	clone.ID = strings.TrimSpace(c.ID)
	clone.Title = strings.TrimSpace(c.Title)
	clone.Description = strings.TrimSpace(c.Description)
	if c.Type == "" {
		clone.Type = TypeForm
	}
	if len(c.Sections) > 0 {
		clone.Sections = make([]Section, len(c.Sections))
		for i, section := range c.Sections {
			clone.Sections[i] = section.normalized()
		}
	}
	return clone
}

func (s Section) normalized() Section {
	clone := s
	clone.ID = strings.TrimSpace(s.ID)
	clone.Title = strings.TrimSpace(s.Title)
	clone.Description = strings.TrimSpace(s.Description)
	if len(s.Elements) > 0 {
		clone.Elements = make([]Element, len(s.Elements))
		for i, el := range s.Elements {
			clone.Elements[i] = el.normalized()
		}
	}
	return clone
}

func (e Element) normalized() Element {
	clone := e
	clone.Field = strings.TrimSpace(e.Field)
	clone.Title = strings.TrimSpace(e.Title)
	if len(e.Elements) > 0 {
		clone.Elements = make([]Element, len(e.Elements))
		for i, child := range e.Elements {
			clone.Elements[i] = child.normalized()
		}
	}
	return clone
}

// Validate checks the whole configuration tree and parses every field
// path in place. An unrecognized element kind is an error here: a broken
// configuration contract must be reported to its author immediately, not
// skipped.
func (c *FormConfig) Validate() error {
	if c.Type == "" {
		c.Type = TypeForm
	}
	if _, ok := validFormTypes[c.Type]; !ok {
		return fmt.Errorf("forms: unknown form type %q", c.Type)
	}
	if len(c.Sections) == 0 {
		return fmt.Errorf("forms: form %q has no sections", c.ID)
	}
	seen := make(map[string]struct{})
	for i := range c.Sections {
		section := &c.Sections[i]
		if section.ID != "" {
			if _, dup := seen[section.ID]; dup {
				return fmt.Errorf("forms: duplicate section id %q", section.ID)
			}
			seen[section.ID] = struct{}{}
		}
		for j := range section.Elements {
			if err := section.Elements[j].validate(); err != nil {
				return fmt.Errorf("forms: section %s: %w", section.label(i), err)
			}
		}
	}
	return nil
}

func (s Section) label(index int) string {
	if s.ID != "" {
		return s.ID
	}
	if s.Title != "" {
		return s.Title
	}
	return fmt.Sprintf("#%d", index)
}

func (e *Element) validate() error {
	if _, ok := validKinds[e.Type]; !ok {
		return fmt.Errorf("unrecognized element kind %q", e.Type)
	}
	if e.Field != "" {
		path, err := ParsePath(e.Field)
		if err != nil {
			return err
		}
		e.path = path
	}
	switch e.Type {
	case KindObject, KindObjectList:
		if len(e.Elements) == 0 {
			return fmt.Errorf("element %q: kind %s requires sub-elements", e.Field, e.Type)
		}
		if e.Type == KindObjectList {
			if strings.Contains(e.Field, ".") || e.Field == "" {
				return fmt.Errorf("element %q: object-list requires a top-level array field", e.Field)
			}
			for _, child := range e.Elements {
				if strings.Count(child.Field, ".") > 1 {
					return fmt.Errorf("element %q: sub-element %q: %w", e.Field, child.Field, ErrPathTooDeep)
				}
			}
		}
	case KindComplex:
		if strings.TrimSpace(e.Display.Template) == "" {
			return fmt.Errorf("element %q: kind complex requires display.template", e.Field)
		}
	}
	for i := range e.Elements {
		if err := e.Elements[i].validate(); err != nil {
			return err
		}
	}
	return nil
}
