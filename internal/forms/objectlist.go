package forms

import (
	"fmt"
	"strings"
)

// DefaultMaxListItems is how many object-list items a collapsed list
// shows before the "show more" affordance.
const DefaultMaxListItems = 5

// listState tracks the UI state of one object-list element: whether the
// list is expanded past maxNumItems and which items are open for edit.
// This is display state; the backing array lives in the caller's data.
type listState struct {
	expanded bool
	editing  map[int]bool
}

func (e *Engine) listStateFor(field string) *listState {
	state, ok := e.lists[field]
	if !ok {
		state = &listState{editing: map[int]bool{}}
		e.lists[field] = state
	}
	return state
}

// ExpandList shows all items of an object-list.
func (e *Engine) ExpandList(field string) {
	e.listStateFor(field).expanded = true
}

// CollapseList returns an object-list to its first maxNumItems items.
func (e *Engine) CollapseList(field string) {
	e.listStateFor(field).expanded = false
}

// ToggleItemEdit flips one item between viewing and editing.
func (e *Engine) ToggleItemEdit(field string, index int) {
	state := e.listStateFor(field)
	state.editing[index] = !state.editing[index]
}

// buildObjectList fills the per-item render state of an object-list
// element. Each item is addressed independently through the array-item
// path grammar, so visibility predicates and validators see their own
// item.
func (e *Engine) buildObjectList(el *Element, value any, rendered *RenderedElement) {
	items, _ := asSlice(value)
	state := e.listStateFor(el.Field)
	maxItems := el.Display.MaxNumItems
	if maxItems <= 0 {
		maxItems = DefaultMaxListItems
	}
	rendered.Expanded = state.expanded

	for i := range items {
		item := ListItemState{
			Index:   i,
			Editing: state.editing[i],
			Hidden:  !state.expanded && i >= maxItems,
		}
		if item.Hidden {
			rendered.HiddenLen++
		}
		for j := range el.Elements {
			child := el.Elements[j]
			child.Field = itemField(el.Field, i, el.Elements[j].Field)
			if path, err := ParsePath(child.Field); err == nil {
				child.path = path
			} else {
				continue
			}
			renderedChild, ok, err := e.evaluateElement(&child)
			if err == nil && ok {
				item.Content = append(item.Content, renderedChild)
			}
		}
		rendered.Items = append(rendered.Items, item)
	}
}

func itemField(array string, index int, relative string) string {
	return fmt.Sprintf("%s[].%d.%s", array, index, relative)
}

// AddItem appends one empty item to an object-list and opens it for edit.
// Exactly one editor is open after an add.
func (e *Engine) AddItem(field string) error {
	el, err := e.objectListElement(field)
	if err != nil {
		return err
	}
	items, _ := asSlice(el.path.Resolve(e.data))
	index := len(items)
	state := e.listStateFor(field)
	state.editing = map[int]bool{index: true}
	e.emit(FieldChange{Param: field, Value: Data{}, Action: ActionAdd, Index: index})
	return nil
}

// AddBatch parses newline-delimited records, one item per line, each line
// comma-delimited. The Nth token maps positionally onto the Nth declared
// sub-element's field, so the declaration order is part of the parsing
// contract. Lines with too few or too many tokens are not rejected:
// unmatched sub-elements are simply absent from the item. Returns the
// number of items added; one ADD event fires per parsed line.
func (e *Engine) AddBatch(field, text string) (int, error) {
	el, err := e.objectListElement(field)
	if err != nil {
		return 0, err
	}
	items, _ := asSlice(el.path.Resolve(e.data))
	index := len(items)
	added := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		item := Data{}
		tokens := strings.Split(line, ",")
		for i, token := range tokens {
			if i >= len(el.Elements) {
				break
			}
			setRelative(item, el.Elements[i].Field, strings.TrimSpace(token))
		}
		e.emit(FieldChange{Param: field, Value: item, Action: ActionAdd, Index: index + added})
		added++
	}
	if added > 0 {
		state := e.listStateFor(field)
		state.editing = map[int]bool{index + added - 1: true}
	}
	return added, nil
}

// RemoveItem deletes one item by index. The event carries the removed
// value so the caller can offer undo or keep an audit trail.
func (e *Engine) RemoveItem(field string, index int) error {
	el, err := e.objectListElement(field)
	if err != nil {
		return err
	}
	items, _ := asSlice(el.path.Resolve(e.data))
	if index < 0 || index >= len(items) {
		return fmt.Errorf("forms: remove index %d out of range for %q (%d items)", index, field, len(items))
	}
	state := e.listStateFor(field)
	editing := map[int]bool{}
	for i, open := range state.editing {
		switch {
		case i < index:
			editing[i] = open
		case i > index:
			editing[i-1] = open
		}
	}
	state.editing = editing
	e.emit(FieldChange{Param: field, Value: items[index], Action: ActionRemove, Index: index})
	return nil
}

// ResetList replaces the whole array with a deep copy of the baseline
// found at the same path in the original data.
func (e *Engine) ResetList(field string) error {
	el, err := e.objectListElement(field)
	if err != nil {
		return err
	}
	if e.original == nil {
		return fmt.Errorf("forms: reset of %q requires original data", field)
	}
	baseline := el.path.Resolve(e.original)
	e.lists[field] = &listState{editing: map[int]bool{}}
	e.emit(FieldChange{Param: field, Value: DeepCopy(baseline), Action: ActionReset})
	return nil
}

// objectListElement locates the object-list element declared for field.
func (e *Engine) objectListElement(field string) (*Element, error) {
	for i := range e.cfg.Sections {
		section := &e.cfg.Sections[i]
		for j := range section.Elements {
			el := &section.Elements[j]
			if el.Type == KindObjectList && el.Field == field {
				return el, nil
			}
		}
	}
	return nil, fmt.Errorf("forms: no object-list element for field %q", field)
}

// setRelative writes value into item at a dotted relative path, creating
// intermediate maps as needed.
func setRelative(item Data, relative string, value any) {
	segments := strings.Split(strings.TrimSpace(relative), ".")
	current := item
	for i, seg := range segments {
		if seg == "" {
			return
		}
		if i == len(segments)-1 {
			current[seg] = value
			return
		}
		next, ok := asMap(current[seg])
		if !ok {
			next = Data{}
			current[seg] = next
		}
		current[seg] = next
		current = next
	}
}
