package forms

// Report is the validation output of one render pass. It is rebuilt from
// scratch every pass so re-entrant renders can never observe stale
// entries; it is advisory until submit time, when a non-empty report
// blocks submission.
type Report struct {
	EmptyRequired map[string]struct{}
	Invalid       map[string]struct{}

	// Messages maps field paths to the configured validation message.
	Messages map[string]string
}

// NewReport returns an empty report.
func NewReport() Report {
	return Report{
		EmptyRequired: map[string]struct{}{},
		Invalid:       map[string]struct{}{},
		Messages:      map[string]string{},
	}
}

// Clean reports whether nothing blocks submission.
func (r Report) Clean() bool {
	return len(r.EmptyRequired) == 0 && len(r.Invalid) == 0
}

// RequiredEmpty reports whether path is tracked as required-but-empty.
func (r Report) RequiredEmpty(path string) bool {
	_, ok := r.EmptyRequired[path]
	return ok
}

// IsInvalid reports whether path failed its custom validator.
func (r Report) IsInvalid(path string) bool {
	_, ok := r.Invalid[path]
	return ok
}

// Check computes the validation report for one (config, data) pair. The
// function is pure: it never touches engine state, so two passes over the
// same inputs produce identical reports.
func Check(cfg *FormConfig, data Data, reg *Registry) Report {
	report := NewReport()
	for i := range cfg.Sections {
		section := &cfg.Sections[i]
		if !evalVisible(section.Display, Path{}, data, reg) {
			continue
		}
		for j := range section.Elements {
			checkElement(&section.Elements[j], data, reg, &report)
		}
	}
	return report
}

func checkElement(el *Element, data Data, reg *Registry, report *Report) {
	if !evalVisible(el.Display, el.path, data, reg) {
		return
	}
	if el.Type == KindSeparator {
		return
	}
	var value any
	if !el.path.IsZero() {
		value = el.path.Resolve(data)
		value = OrDefault(value, el.Display.DefaultValue)
		key := el.path.String()

		if el.Required && IsEmptyValue(value) {
			report.EmptyRequired[key] = struct{}{}
		}
		if validator, message, ok := resolveValidator(el, reg); ok {
			item, _ := el.path.ResolveItem(data)
			if !validator(value, data, item) {
				report.Invalid[key] = struct{}{}
				if message != "" {
					report.Messages[key] = message
				}
			}
		}
	}

	// Sub-elements of an object share the pass. Object-list sub-elements
	// are checked once per item, through their own array-item path, so a
	// required sub-field is tracked per index.
	switch el.Type {
	case KindObject:
		for i := range el.Elements {
			checkElement(&el.Elements[i], data, reg, report)
		}
	case KindObjectList:
		items, _ := asSlice(value)
		for i := range items {
			for j := range el.Elements {
				child := el.Elements[j]
				child.Field = itemField(el.Field, i, el.Elements[j].Field)
				path, err := ParsePath(child.Field)
				if err != nil {
					continue
				}
				child.path = path
				checkElement(&child, data, reg, report)
			}
		}
	}
}

func resolveValidator(el *Element, reg *Registry) (Validator, string, bool) {
	if el.Validation == nil {
		return nil, "", false
	}
	if el.Validation.Func != nil {
		return el.Validation.Func, el.Validation.Message, true
	}
	if el.Validation.ValidateIf != "" {
		if v, ok := reg.Validator(el.Validation.ValidateIf); ok {
			return v, el.Validation.Message, true
		}
	}
	return nil, "", false
}

// evalVisible applies the shared visibility contract: a literal boolean is
// used as-is; a predicate receives (data, item) where item is the resolved
// array item for array-item paths and nil otherwise.
func evalVisible(display DisplaySettings, path Path, data Data, reg *Registry) bool {
	if p := resolvePredicate(display.VisibleFunc, display.VisibleIf, reg); p != nil {
		item, _ := path.ResolveItem(data)
		return p(data, item)
	}
	if display.Visible != nil {
		return *display.Visible
	}
	return true
}

// evalDisabled mirrors evalVisible for the disabled key; the default is
// enabled.
func evalDisabled(display DisplaySettings, path Path, data Data, reg *Registry) bool {
	if p := resolvePredicate(display.DisabledFunc, display.DisabledIf, reg); p != nil {
		item, _ := path.ResolveItem(data)
		return p(data, item)
	}
	if display.Disabled != nil {
		return *display.Disabled
	}
	return false
}

func resolvePredicate(fn Predicate, key string, reg *Registry) Predicate {
	if fn != nil {
		return fn
	}
	if key == "" {
		return nil
	}
	if p, ok := reg.Predicate(key); ok {
		return p
	}
	return nil
}
