// Package forms implements a declarative, configuration-driven form
// engine. A caller owns a data object and a FormConfig tree; the engine
// turns the pair into a RenderTree of opaque content nodes and turns user
// edits into FieldChange events. The engine never mutates the data object
// itself: the caller applies each event (see Apply) and re-renders, which
// keeps every pass a pure function of (config, data, ui state).
package forms

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Action tags a FieldChange so the caller can apply it atomically.
type Action string

const (
	// ActionSet is a plain field edit (the zero value).
	ActionSet Action = ""
	// ActionAdd appends one item to an object-list array.
	ActionAdd Action = "ADD"
	// ActionRemove deletes one item by index; Value carries the removed
	// item for undo/audit.
	ActionRemove Action = "REMOVE"
	// ActionReset replaces an object-list array with a deep copy of the
	// original baseline.
	ActionReset Action = "RESET"
	// ActionEdit is a field-level edit inside one object-list item,
	// addressed by the arr[].idx.field grammar.
	ActionEdit Action = "EDIT"
)

// FieldChange is a proposed mutation of the caller's data object.
type FieldChange struct {
	Param  string
	Value  any
	Action Action
	Index  int // item index for ADD/REMOVE
}

// SubmitEvent is emitted once per successful submit.
type SubmitEvent struct {
	// Section identifies the section whose submit affordance fired, for
	// per-section submit buttons in tabbed layouts. Empty for the whole
	// form.
	Section string
}

// UpdateRecord marks one field as diverging from an original baseline.
type UpdateRecord struct {
	Before any
	After  any
}

// UpdateParams maps field paths (or, for object-list items, the array
// field name) to before/after records. Purely advisory: the engine uses
// it only to flag fields as updated, never to decide validity.
type UpdateParams map[string]UpdateRecord

// Engine drives render passes and event emission for one form.
type Engine struct {
	cfg      *FormConfig
	reg      *Registry
	data     Data
	original Data
	updates  UpdateParams

	lists     map[string]*listState
	active    int
	submitted bool
	globalErr bool
	report    Report

	onChange func(FieldChange)
	onSubmit func(SubmitEvent)
	onClear  func()
}

// Option customizes engine construction.
type Option func(*Engine)

// WithRegistry supplies the capability registry referenced by the
// definition's string keys.
func WithRegistry(reg *Registry) Option {
	return func(e *Engine) {
		if reg != nil {
			e.reg = reg
		}
	}
}

// WithData sets the caller-owned data object.
func WithData(data Data) Option {
	return func(e *Engine) { e.data = data }
}

// WithOriginalData sets the baseline used by object-list RESET.
func WithOriginalData(original Data) Option {
	return func(e *Engine) { e.original = original }
}

// WithUpdateParams supplies the advisory updated-field map.
func WithUpdateParams(updates UpdateParams) Option {
	return func(e *Engine) { e.updates = updates }
}

// WithChangeHandler installs the FieldChange sink.
func WithChangeHandler(fn func(FieldChange)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// WithSubmitHandler installs the submit sink.
func WithSubmitHandler(fn func(SubmitEvent)) Option {
	return func(e *Engine) { e.onSubmit = fn }
}

// WithClearHandler installs the clear sink.
func WithClearHandler(fn func()) Option {
	return func(e *Engine) { e.onClear = fn }
}

// NewEngine validates the configuration and wires an engine. An
// unrecognized element kind anywhere in the tree fails construction; a
// broken configuration contract is fatal, not skippable.
func NewEngine(cfg FormConfig, opts ...Option) (*Engine, error) {
	normalized := cfg.Normalized()
	if err := normalized.Validate(); err != nil {
		return nil, err
	}
	engine := &Engine{
		cfg:    &normalized,
		reg:    NewRegistry(),
		lists:  map[string]*listState{},
		report: NewReport(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(engine)
		}
	}
	return engine, nil
}

// Config returns the validated configuration tree.
func (e *Engine) Config() *FormConfig { return e.cfg }

// SetData replaces the data object the engine reads from.
func (e *Engine) SetData(data Data) { e.data = data }

// SetOriginalData replaces the RESET baseline.
func (e *Engine) SetOriginalData(original Data) { e.original = original }

// SetUpdateParams replaces the advisory updated-field map.
func (e *Engine) SetUpdateParams(updates UpdateParams) { e.updates = updates }

// Report returns the validation report of the latest render pass.
func (e *Engine) Report() Report { return e.report }

// Render performs one pass: rebuild the validation report from scratch,
// filter visible sections, and evaluate every visible element.
func (e *Engine) Render() (*RenderTree, error) {
	e.report = Check(e.cfg, e.data, e.reg)

	tree := &RenderTree{
		Type:        e.cfg.Type,
		Title:       e.cfg.Title,
		Description: e.cfg.Description,
		Report:      e.report,
		GlobalError: e.globalErr,
	}
	if e.globalErr && e.cfg.Validation != nil {
		tree.GlobalErrorMessage = e.cfg.Validation.Message
	}

	for i := range e.cfg.Sections {
		section := &e.cfg.Sections[i]
		if !evalVisible(section.Display, Path{}, e.data, e.reg) {
			continue
		}
		rendered := RenderedSection{
			ID:          section.ID,
			Title:       section.Title,
			Description: section.Description,
			Navigable:   !section.structurallyEmpty(),
		}
		for j := range section.Elements {
			el, ok, err := e.evaluateElement(&section.Elements[j])
			if err != nil {
				return nil, err
			}
			if ok {
				rendered.Elements = append(rendered.Elements, el)
			}
		}
		tree.Sections = append(tree.Sections, rendered)
	}

	tree.Active = e.clampActive(tree.Sections)
	e.active = tree.Active
	return tree, nil
}

// SelectSection activates a tab/pill section by index into the rendered
// sections. A display concern only: no data is recomputed or reset.
func (e *Engine) SelectSection(index int) {
	if index >= 0 {
		e.active = index
	}
}

// ActiveSection returns the active tab/pill index.
func (e *Engine) ActiveSection() int { return e.active }

func (e *Engine) clampActive(sections []RenderedSection) int {
	if len(sections) == 0 {
		return 0
	}
	active := e.active
	if active < 0 || active >= len(sections) {
		active = 0
	}
	if sections[active].Navigable {
		return active
	}
	for i, s := range sections {
		if s.Navigable {
			return i
		}
	}
	return 0
}

// evaluateElement resolves, formats, validates and renders one element.
// The second return is false when the element is hidden.
func (e *Engine) evaluateElement(el *Element) (RenderedElement, bool, error) {
	if !evalVisible(el.Display, el.path, e.data, e.reg) {
		return RenderedElement{}, false, nil
	}

	rendered := RenderedElement{
		Element: el,
		Layout:  el.Display.DefaultLayout,
	}
	if rendered.Layout == "" {
		rendered.Layout = LayoutHorizontal
	}

	if el.Type == KindSeparator {
		rendered.Content = Content{Kind: ContentSeparator}
		return rendered, true, nil
	}

	value := el.path.Resolve(e.data)
	value = OrDefault(value, el.Display.DefaultValue)
	rendered.Value = value
	rendered.Disabled = evalDisabled(el.Display, el.path, e.data, e.reg)
	rendered.Updated = e.isUpdated(el.path)

	if !el.path.IsZero() {
		key := el.path.String()
		rendered.RequiredEmpty = e.report.RequiredEmpty(key)
		rendered.Invalid = e.report.IsInvalid(key)
		rendered.ShowError = e.submitted && (rendered.RequiredEmpty || rendered.Invalid)
		if rendered.ShowError {
			if msg, ok := e.report.Messages[key]; ok {
				rendered.ErrorMessage = msg
			} else if rendered.RequiredEmpty {
				rendered.ErrorMessage = "this field is required"
			} else if el.Validation != nil && el.Validation.Message != "" {
				rendered.ErrorMessage = el.Validation.Message
			} else {
				rendered.ErrorMessage = "invalid value"
			}
		}
	}

	content, err := e.renderContent(el, value)
	if err != nil {
		return RenderedElement{}, false, err
	}
	rendered.Content = content

	if el.Type == KindObjectList {
		e.buildObjectList(el, value, &rendered)
	}
	return rendered, true, nil
}

// renderContent dispatches on the element kind. The switch is exhaustive
// over the closed kind set; the default arm can only fire for a config
// that bypassed Validate, and that is a fatal error by contract.
func (e *Engine) renderContent(el *Element, value any) (Content, error) {
	switch el.Type {
	case KindBasic, KindText:
		return e.textContent(el, value), nil

	case KindTitle:
		return Content{Kind: ContentTitle, Text: firstNonEmpty(el.Title, el.Text)}, nil

	case KindNotification:
		return Content{Kind: ContentNotice, Text: firstNonEmpty(el.Text, el.Title)}, nil

	case KindSeparator:
		return Content{Kind: ContentSeparator}, nil

	case KindInputText:
		return Content{Kind: ContentInput, Mode: InputText, Text: Stringify(value)}, nil

	case KindInputNum, KindInputNumber:
		return Content{Kind: ContentInput, Mode: InputNumber, Text: Stringify(value)}, nil

	case KindInputPass:
		return Content{Kind: ContentInput, Mode: InputPassword, Text: Stringify(value)}, nil

	case KindInputDate:
		return Content{Kind: ContentInput, Mode: InputDate, Text: Stringify(value)}, nil

	case KindCheckbox, KindToggleSwitch:
		checked, _ := value.(bool)
		return Content{Kind: ContentToggle, Checked: checked}, nil

	case KindSelect, KindToggleButton:
		return Content{
			Kind:    ContentSelect,
			Text:    Stringify(value),
			Options: e.allowedValues(el),
		}, nil

	case KindComplex:
		return Content{Kind: ContentText, Text: e.expandTemplate(el.Display.Template)}, nil

	case KindList:
		items, ok := asSlice(value)
		if !ok {
			return inlineError(el, "list element expects an array value"), nil
		}
		rows := make([][]string, 0, len(items))
		for _, item := range items {
			rows = append(rows, []string{Stringify(item)})
		}
		return Content{Kind: ContentList, Rows: rows}, nil

	case KindTable:
		items, ok := asSlice(value)
		if !ok {
			return inlineError(el, "table element expects an array value"), nil
		}
		return e.tableContent(el, items), nil

	case KindTree:
		items, ok := asSlice(value)
		if !ok {
			return inlineError(el, "tree element expects an array value"), nil
		}
		var rows [][]string
		flattenTree(items, 0, &rows)
		return Content{Kind: ContentTree, Rows: rows}, nil

	case KindChart:
		return e.chartContent(el, value), nil

	case KindJSON:
		return Content{Kind: ContentJSON, Text: marshalJSON(value)}, nil

	case KindJSONEditor:
		return Content{Kind: ContentInput, Mode: InputJSON, Text: marshalJSON(value)}, nil

	case KindDownload:
		return Content{Kind: ContentDownload, Text: firstNonEmpty(el.Title, el.path.Leaf())}, nil

	case KindCustom:
		return e.customContent(el, value), nil

	case KindObject:
		var children []RenderedElement
		for i := range el.Elements {
			child, ok, err := e.evaluateElement(&el.Elements[i])
			if err != nil {
				return Content{}, err
			}
			if ok {
				children = append(children, child)
			}
		}
		return Content{Kind: ContentObject, Children: children}, nil

	case KindObjectList:
		// Item content is built by buildObjectList; the top-level content
		// node just anchors the kind.
		return Content{Kind: ContentObject}, nil

	default:
		return Content{}, fmt.Errorf("forms: unrecognized element kind %q for field %q", el.Type, el.Field)
	}
}

func (e *Engine) textContent(el *Element, value any) Content {
	content := Content{Kind: ContentText}
	if el.Display.Format != nil {
		formatted := el.Display.Format.Apply(value, el.path.Leaf())
		content.Text = formatted.Text
		content.Formatted = &formatted
	} else {
		content.Text = Stringify(value)
	}
	if content.Text == "" {
		content.Text = el.Text
	}
	return content
}

func (e *Engine) tableContent(el *Element, items []any) Content {
	columns := el.Display.Columns
	if len(columns) == 0 && len(items) > 0 {
		if first, ok := asMap(items[0]); ok {
			for key := range first {
				columns = append(columns, key)
			}
			sort.Strings(columns)
		}
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, len(columns))
		m, ok := asMap(item)
		if !ok {
			if len(columns) > 0 {
				row[0] = Stringify(item)
			}
			rows = append(rows, row)
			continue
		}
		for i, col := range columns {
			if path, err := ParsePath(col); err == nil {
				row[i] = Stringify(digMap(m, path.Segments()))
			}
		}
		rows = append(rows, row)
	}
	return Content{Kind: ContentTable, Columns: columns, Rows: rows}
}

func (e *Engine) chartContent(el *Element, value any) Content {
	m, ok := asMap(value)
	if !ok {
		return inlineError(el, "chart element expects an object of numeric series")
	}
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, Stringify(m[key])})
	}
	return Content{Kind: ContentChart, Rows: rows}
}

func (e *Engine) customContent(el *Element, value any) Content {
	renderer := el.Display.RenderFunc
	if renderer == nil && el.Display.Render != "" {
		if r, ok := e.reg.Renderer(el.Display.Render); ok {
			renderer = r
		}
	}
	if renderer == nil {
		return inlineError(el, "custom element has no registered renderer")
	}
	item, _ := el.path.ResolveItem(e.data)
	content, err := renderer.Render(value, RenderContext{Element: el, Data: e.data, Item: item})
	if err != nil {
		return inlineError(el, err.Error())
	}
	if content.Kind == "" {
		content.Kind = ContentCustom
	}
	return content
}

func (e *Engine) allowedValues(el *Element) []string {
	if key := el.Display.AllowedValuesFrom; key != "" {
		if provider, ok := e.reg.Options(key); ok {
			return provider(e.data)
		}
	}
	return el.AllowedValues
}

var templateToken = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandTemplate substitutes ${field.path} tokens with resolved values.
// Unresolvable tokens collapse to the empty string.
func (e *Engine) expandTemplate(template string) string {
	return templateToken.ReplaceAllStringFunc(template, func(token string) string {
		inner := templateToken.FindStringSubmatch(token)[1]
		path, err := ParsePath(inner)
		if err != nil {
			return ""
		}
		return Stringify(path.Resolve(e.data))
	})
}

// isUpdated consults the advisory update map: exact path match, or the
// array field name for array-item paths (one record flags the whole item
// group).
func (e *Engine) isUpdated(path Path) bool {
	if len(e.updates) == 0 || path.IsZero() {
		return false
	}
	if _, ok := e.updates[path.String()]; ok {
		return true
	}
	if path.IsArrayItem() {
		if _, ok := e.updates[path.Array()]; ok {
			return true
		}
	}
	return false
}

// NotifyChange proposes a plain field edit. Rendering strategies call
// this; the caller's change handler applies the mutation.
func (e *Engine) NotifyChange(field string, value any) error {
	path, err := ParsePath(field)
	if err != nil {
		return err
	}
	action := ActionSet
	if path.IsArrayItem() {
		action = ActionEdit
	}
	e.emit(FieldChange{Param: path.String(), Value: value, Action: action})
	return nil
}

func (e *Engine) emit(change FieldChange) {
	if e.onChange != nil {
		e.onChange(change)
	}
}

// Submit gates submission on the current validation report and the
// whole-form validator. On failure no event is emitted and errors become
// visible on the next render (lazy display). On success exactly one
// submit event fires and the error flags reset.
func (e *Engine) Submit(sectionID string) bool {
	e.submitted = true
	e.report = Check(e.cfg, e.data, e.reg)
	if !e.report.Clean() {
		e.globalErr = false
		return false
	}
	if validator := e.formValidator(); validator != nil && !validator(e.data) {
		e.globalErr = true
		return false
	}
	if e.onSubmit != nil {
		e.onSubmit(SubmitEvent{Section: sectionID})
	}
	e.submitted = false
	e.globalErr = false
	return true
}

func (e *Engine) formValidator() FormValidator {
	if e.cfg.Validation == nil {
		return nil
	}
	if e.cfg.Validation.FormFunc != nil {
		return e.cfg.Validation.FormFunc
	}
	if key := e.cfg.Validation.ValidateIf; key != "" {
		if v, ok := e.reg.FormValidator(key); ok {
			return v
		}
	}
	return nil
}

// Submitted reports whether a submit has been attempted since the last
// clear (controls error visibility).
func (e *Engine) Submitted() bool { return e.submitted }

// Clear resets submit/error/list state and emits the clear event. The
// caller decides what clearing means for its data object.
func (e *Engine) Clear() {
	e.submitted = false
	e.globalErr = false
	e.report = NewReport()
	e.lists = map[string]*listState{}
	if e.onClear != nil {
		e.onClear()
	}
}

func inlineError(el *Element, message string) Content {
	field := el.Field
	if field == "" {
		field = string(el.Type)
	}
	return Content{Kind: ContentError, Err: fmt.Sprintf("%s: %s", field, message)}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func flattenTree(items []any, depth int, rows *[][]string) {
	for _, item := range items {
		m, ok := asMap(item)
		if !ok {
			*rows = append(*rows, []string{fmt.Sprintf("%d", depth), Stringify(item)})
			continue
		}
		label := Stringify(m["id"])
		if label == "" {
			label = Stringify(m["name"])
		}
		*rows = append(*rows, []string{fmt.Sprintf("%d", depth), label})
		if children, ok := asSlice(m["children"]); ok {
			flattenTree(children, depth+1, rows)
		}
	}
}

func marshalJSON(value any) string {
	if value == nil {
		return "null"
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(data)
}
