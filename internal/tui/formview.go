// internal/tui/formview.go
//
// formView drives one forms.Engine instance: it renders the engine's
// RenderTree to the terminal and translates key presses into engine
// notifications. All data mutations go through the change handler so
// the view owns the data object, never the engine.

package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/genovista/catview/internal/forms"
)

// focusKind classifies what the cursor is currently on.
type focusKind int

const (
	focusInput focusKind = iota
	focusToggle
	focusSelect
	focusListHeader
	focusListItem
)

// focusRef is one navigable target in the active section.
type focusRef struct {
	kind  focusKind
	field string // full field path for input/toggle/select

	listField string // object-list field for header/item targets
	listIndex int

	label   string
	options []string
}

var (
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	focusStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	noticeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	updatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	tabActive    = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(lipgloss.Color("#5B8DEF"))
	tabInactive  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
)

type formView struct {
	app    *App
	engine *forms.Engine

	data     forms.Data
	original forms.Data
	updates  forms.UpdateParams

	tree       *forms.RenderTree
	focusables []focusRef
	cursor     int

	input     textinput.Model
	editing   bool
	batchMode bool

	status    string
	submitted bool
}

func newFormView(app *App, cfg forms.FormConfig) (*formView, error) {
	fv := &formView{
		app:      app,
		data:     forms.Data{},
		original: forms.Data{},
		updates:  forms.UpdateParams{},
	}
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 512
	fv.input = input

	engine, err := forms.NewEngine(cfg,
		forms.WithRegistry(app.registry),
		forms.WithData(fv.data),
		forms.WithOriginalData(fv.original),
		forms.WithUpdateParams(fv.updates),
		forms.WithChangeHandler(fv.onChange),
		forms.WithSubmitHandler(fv.onSubmit),
		forms.WithClearHandler(fv.onClear),
	)
	if err != nil {
		return nil, err
	}
	fv.engine = engine
	if err := fv.refresh(); err != nil {
		return nil, err
	}
	return fv, nil
}

// onChange applies the engine's proposed mutation to our data object and
// records the divergence from the original baseline.
func (fv *formView) onChange(change forms.FieldChange) {
	param := change.Param
	if err := forms.Apply(fv.data, change); err != nil {
		fv.status = fmt.Sprintf("Change rejected: %v", err)
		fv.app.logError("Field %s change rejected: %v", param, err)
		return
	}
	key := param
	if p, err := forms.ParsePath(param); err == nil && p.IsArrayItem() {
		key = p.Array()
	}
	if _, tracked := fv.updates[key]; !tracked {
		before, _ := beforeValue(fv.original, key)
		fv.updates[key] = forms.UpdateRecord{Before: before}
	}
	record := fv.updates[key]
	record.After = change.Value
	fv.updates[key] = record
}

func beforeValue(original forms.Data, field string) (any, error) {
	p, err := forms.ParsePath(field)
	if err != nil {
		return nil, err
	}
	return p.Resolve(original), nil
}

func (fv *formView) onSubmit(event forms.SubmitEvent) {
	fv.submitted = true
	if event.Section != "" {
		fv.status = fmt.Sprintf("Submitted section %s", event.Section)
	} else {
		fv.status = "Submitted"
	}
	fv.app.logInfo("Form · submitted (%d field(s) changed)", len(fv.updates))
	fv.updates = forms.UpdateParams{}
	fv.engine.SetUpdateParams(fv.updates)
}

func (fv *formView) onClear() {
	fv.data = forms.Data{}
	fv.updates = forms.UpdateParams{}
	fv.engine.SetData(fv.data)
	fv.engine.SetUpdateParams(fv.updates)
	fv.status = "Cleared"
}

// refresh re-renders the tree and rebuilds the focus targets for the
// active section.
func (fv *formView) refresh() error {
	tree, err := fv.engine.Render()
	if err != nil {
		return err
	}
	fv.tree = tree
	fv.focusables = collectFocusables(tree)
	if fv.cursor >= len(fv.focusables) {
		fv.cursor = len(fv.focusables) - 1
	}
	if fv.cursor < 0 {
		fv.cursor = 0
	}
	return nil
}

func collectFocusables(tree *forms.RenderTree) []focusRef {
	var refs []focusRef
	if tree == nil || tree.Active >= len(tree.Sections) {
		return refs
	}
	for i := range tree.Sections[tree.Active].Elements {
		collectElement(&tree.Sections[tree.Active].Elements[i], &refs)
	}
	return refs
}

func collectElement(el *forms.RenderedElement, refs *[]focusRef) {
	switch el.Content.Kind {
	case forms.ContentInput:
		if !el.Disabled {
			*refs = append(*refs, focusRef{kind: focusInput, field: el.Element.Field, label: el.Element.Title})
		}
	case forms.ContentToggle:
		if !el.Disabled {
			*refs = append(*refs, focusRef{kind: focusToggle, field: el.Element.Field, label: el.Element.Title})
		}
	case forms.ContentSelect:
		if !el.Disabled {
			*refs = append(*refs, focusRef{
				kind:    focusSelect,
				field:   el.Element.Field,
				label:   el.Element.Title,
				options: el.Content.Options,
			})
		}
	case forms.ContentObject:
		for i := range el.Content.Children {
			collectElement(&el.Content.Children[i], refs)
		}
	}
	if el.Element.Type == forms.KindObjectList {
		*refs = append(*refs, focusRef{
			kind:      focusListHeader,
			listField: el.Element.Field,
			label:     el.Element.Title,
		})
		for _, item := range el.Items {
			if item.Hidden {
				continue
			}
			*refs = append(*refs, focusRef{
				kind:      focusListItem,
				listField: el.Element.Field,
				listIndex: item.Index,
				label:     el.Element.Title,
			})
			if item.Editing {
				for i := range item.Content {
					collectElement(&item.Content[i], refs)
				}
			}
		}
	}
}

// CapturesEscape reports whether the view wants the next escape key for
// itself, to cancel an in-progress edit instead of leaving the form.
func (fv *formView) CapturesEscape() bool {
	return fv.editing
}

func (fv *formView) current() (focusRef, bool) {
	if fv.cursor < 0 || fv.cursor >= len(fv.focusables) {
		return focusRef{}, false
	}
	return fv.focusables[fv.cursor], true
}

// Update handles a message. Unlike bubbletea models it mutates in place;
// the App owns the pointer.
func (fv *formView) Update(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if fv.editing {
		return fv.updateEditing(key)
	}

	switch key.String() {
	case "up", "k":
		if fv.cursor > 0 {
			fv.cursor--
		}
	case "down", "j":
		if fv.cursor < len(fv.focusables)-1 {
			fv.cursor++
		}
	case "tab":
		fv.switchSection(1)
	case "shift+tab":
		fv.switchSection(-1)
	case "enter":
		fv.beginEdit()
	case " ":
		fv.handleSpace()
	case "a":
		fv.handleAdd(false)
	case "A":
		fv.handleAdd(true)
	case "d":
		fv.handleRemove()
	case "r":
		fv.handleReset()
	case "ctrl+s":
		fv.handleSubmit()
	case "ctrl+x":
		fv.engine.Clear()
		fv.refreshOrStatus()
	}
	return nil
}

func (fv *formView) updateEditing(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "esc":
		fv.editing = false
		fv.batchMode = false
		fv.input.Blur()
		return nil
	case "enter":
		text := fv.input.Value()
		fv.editing = false
		fv.input.Blur()
		if fv.batchMode {
			fv.batchMode = false
			fv.commitBatch(text)
		} else {
			fv.commitEdit(text)
		}
		return nil
	}
	var cmd tea.Cmd
	fv.input, cmd = fv.input.Update(key)
	return cmd
}

func (fv *formView) switchSection(delta int) {
	if fv.tree == nil || len(fv.tree.Sections) == 0 {
		return
	}
	n := len(fv.tree.Sections)
	next := fv.tree.Active
	for i := 0; i < n; i++ {
		next = (next + delta + n) % n
		if fv.tree.Sections[next].Navigable {
			break
		}
	}
	fv.engine.SelectSection(next)
	fv.cursor = 0
	fv.refreshOrStatus()
}

func (fv *formView) beginEdit() {
	ref, ok := fv.current()
	if !ok {
		return
	}
	switch ref.kind {
	case focusInput:
		p, err := forms.ParsePath(ref.field)
		if err != nil {
			fv.status = err.Error()
			return
		}
		fv.input.SetValue(forms.Stringify(p.Resolve(fv.data)))
		fv.input.Placeholder = ""
		fv.input.Focus()
		fv.editing = true
	case focusSelect:
		fv.cycleSelect(ref)
	case focusToggle:
		fv.handleSpace()
	case focusListItem:
		fv.engine.ToggleItemEdit(ref.listField, ref.listIndex)
		fv.refreshOrStatus()
	case focusListHeader:
		fv.handleSpace()
	}
}

func (fv *formView) commitEdit(text string) {
	ref, ok := fv.current()
	if !ok || ref.field == "" {
		return
	}
	if err := fv.engine.NotifyChange(ref.field, coerceInput(text)); err != nil {
		fv.status = err.Error()
		return
	}
	fv.refreshOrStatus()
}

// commitBatch feeds the captured text to the engine's batch add. The
// widget is single-line, so ';' stands in for line breaks.
func (fv *formView) commitBatch(text string) {
	ref, ok := fv.current()
	if !ok || ref.listField == "" {
		return
	}
	lines := strings.ReplaceAll(text, ";", "\n")
	added, err := fv.engine.AddBatch(ref.listField, lines)
	if err != nil {
		fv.status = err.Error()
		return
	}
	fv.status = fmt.Sprintf("Added %d item(s) to %s", added, ref.listField)
	fv.refreshOrStatus()
}

func (fv *formView) cycleSelect(ref focusRef) {
	if len(ref.options) == 0 {
		return
	}
	p, err := forms.ParsePath(ref.field)
	if err != nil {
		fv.status = err.Error()
		return
	}
	current := forms.Stringify(p.Resolve(fv.data))
	next := ref.options[0]
	for i, opt := range ref.options {
		if opt == current && i+1 < len(ref.options) {
			next = ref.options[i+1]
			break
		}
	}
	if err := fv.engine.NotifyChange(ref.field, next); err != nil {
		fv.status = err.Error()
		return
	}
	fv.refreshOrStatus()
}

func (fv *formView) handleSpace() {
	ref, ok := fv.current()
	if !ok {
		return
	}
	switch ref.kind {
	case focusToggle:
		p, err := forms.ParsePath(ref.field)
		if err != nil {
			fv.status = err.Error()
			return
		}
		checked, _ := p.Resolve(fv.data).(bool)
		if err := fv.engine.NotifyChange(ref.field, !checked); err != nil {
			fv.status = err.Error()
			return
		}
	case focusListHeader:
		if fv.listExpanded(ref.listField) {
			fv.engine.CollapseList(ref.listField)
		} else {
			fv.engine.ExpandList(ref.listField)
		}
	case focusListItem:
		fv.engine.ToggleItemEdit(ref.listField, ref.listIndex)
	default:
		return
	}
	fv.refreshOrStatus()
}

func (fv *formView) listExpanded(field string) bool {
	if fv.tree == nil || fv.tree.Active >= len(fv.tree.Sections) {
		return false
	}
	for _, el := range fv.tree.Sections[fv.tree.Active].Elements {
		if el.Element.Field == field {
			return el.Expanded
		}
	}
	return false
}

func (fv *formView) handleAdd(batch bool) {
	ref, ok := fv.current()
	if !ok || ref.listField == "" {
		return
	}
	if batch {
		fv.input.SetValue("")
		fv.input.Placeholder = "a,b,c; d,e,f"
		fv.input.Focus()
		fv.editing = true
		fv.batchMode = true
		return
	}
	if err := fv.engine.AddItem(ref.listField); err != nil {
		fv.status = err.Error()
		return
	}
	fv.refreshOrStatus()
}

func (fv *formView) handleRemove() {
	ref, ok := fv.current()
	if !ok || ref.kind != focusListItem {
		return
	}
	if err := fv.engine.RemoveItem(ref.listField, ref.listIndex); err != nil {
		fv.status = err.Error()
		return
	}
	fv.refreshOrStatus()
}

func (fv *formView) handleReset() {
	ref, ok := fv.current()
	if !ok || ref.listField == "" {
		return
	}
	if err := fv.engine.ResetList(ref.listField); err != nil {
		fv.status = err.Error()
		return
	}
	fv.refreshOrStatus()
}

func (fv *formView) handleSubmit() {
	sectionID := ""
	if fv.tree != nil && fv.tree.Active < len(fv.tree.Sections) {
		sectionID = fv.tree.Sections[fv.tree.Active].ID
	}
	if !fv.engine.Submit(sectionID) {
		fv.status = "Submit blocked: fix the highlighted fields"
	}
	fv.refreshOrStatus()
}

func (fv *formView) refreshOrStatus() {
	if err := fv.refresh(); err != nil {
		fv.status = err.Error()
	}
}

// View renders the form tree.
func (fv *formView) View() string {
	if fv.tree == nil {
		return "No form loaded"
	}
	var b strings.Builder
	if fv.tree.Title != "" {
		b.WriteString(titleStyle.Render(fv.tree.Title))
		b.WriteString("\n")
	}
	if tabs := fv.renderTabs(); tabs != "" {
		b.WriteString(tabs)
		b.WriteString("\n\n")
	}
	if fv.tree.GlobalError {
		b.WriteString(errorStyle.Render("✗ " + fv.tree.GlobalErrorMessage))
		b.WriteString("\n\n")
	}
	focusIdx := 0
	if fv.tree.Active < len(fv.tree.Sections) {
		section := fv.tree.Sections[fv.tree.Active]
		if section.Description != "" {
			b.WriteString(dimStyle.Render(section.Description))
			b.WriteString("\n")
		}
		for i := range section.Elements {
			fv.renderElement(&b, &section.Elements[i], &focusIdx, 0)
		}
	}
	b.WriteString("\n")
	if fv.editing {
		b.WriteString(fv.input.View())
		b.WriteString("\n")
	}
	if fv.status != "" {
		b.WriteString(noticeStyle.Render(fv.status))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("↑/↓ move · enter edit · space toggle · a add · A batch · d delete · r reset · ctrl+s submit · esc back"))
	return b.String()
}

func (fv *formView) renderTabs() string {
	var navigable []forms.RenderedSection
	for _, s := range fv.tree.Sections {
		if s.Navigable {
			navigable = append(navigable, s)
		}
	}
	if len(navigable) < 2 {
		return ""
	}
	parts := make([]string, 0, len(fv.tree.Sections))
	for i, s := range fv.tree.Sections {
		if !s.Navigable {
			continue
		}
		title := s.Title
		if title == "" {
			title = s.ID
		}
		if i == fv.tree.Active {
			parts = append(parts, tabActive.Render(title))
		} else {
			parts = append(parts, tabInactive.Render(title))
		}
	}
	return strings.Join(parts, "  │  ")
}

// renderElement writes one element (and its children) and advances the
// focus index in lockstep with collectFocusables.
func (fv *formView) renderElement(b *strings.Builder, el *forms.RenderedElement, focusIdx *int, indent int) {
	pad := strings.Repeat("  ", indent)
	focused := func() bool {
		hit := *focusIdx == fv.cursor
		*focusIdx++
		return hit
	}

	switch el.Content.Kind {
	case forms.ContentSeparator:
		b.WriteString(pad + dimStyle.Render(strings.Repeat("─", 40)) + "\n")
		return
	case forms.ContentTitle:
		b.WriteString(pad + titleStyle.Render(el.Content.Text) + "\n")
		return
	case forms.ContentNotice:
		b.WriteString(pad + noticeStyle.Render("ℹ "+el.Content.Text) + "\n")
		return
	case forms.ContentError:
		b.WriteString(pad + errorStyle.Render("✗ "+el.Content.Err) + "\n")
		return
	}

	label := el.Element.Title
	if label == "" {
		label = el.Element.Field
	}
	line := labelStyle.Render(label)
	marker := "  "
	interactive := el.Content.Kind == forms.ContentInput ||
		el.Content.Kind == forms.ContentToggle ||
		el.Content.Kind == forms.ContentSelect
	if interactive && !el.Disabled && focused() {
		marker = focusStyle.Render("▸ ")
		line = focusStyle.Render(label)
	}

	switch el.Content.Kind {
	case forms.ContentInput, forms.ContentSelect:
		value := el.Content.Text
		if value == "" {
			value = dimStyle.Render("(empty)")
		}
		b.WriteString(fmt.Sprintf("%s%s%s: %s%s\n", pad, marker, line, value, fv.elementMarkers(el)))
	case forms.ContentToggle:
		box := "[ ]"
		if el.Content.Checked {
			box = "[x]"
		}
		b.WriteString(fmt.Sprintf("%s%s%s %s%s\n", pad, marker, box, line, fv.elementMarkers(el)))
	case forms.ContentText, forms.ContentJSON, forms.ContentDownload:
		b.WriteString(fmt.Sprintf("%s  %s: %s\n", pad, line, el.Content.Text))
	case forms.ContentList:
		b.WriteString(fmt.Sprintf("%s  %s:\n", pad, line))
		for _, row := range el.Content.Rows {
			b.WriteString(fmt.Sprintf("%s    · %s\n", pad, strings.Join(row, " ")))
		}
	case forms.ContentTable, forms.ContentTree, forms.ContentChart:
		fv.renderTable(b, el, pad, line)
	case forms.ContentObject:
		if el.Element.Type != forms.KindObjectList {
			b.WriteString(fmt.Sprintf("%s  %s:\n", pad, line))
			for i := range el.Content.Children {
				fv.renderElement(b, &el.Content.Children[i], focusIdx, indent+1)
			}
		}
	case forms.ContentCustom:
		if el.Content.Err != "" {
			b.WriteString(pad + errorStyle.Render("✗ "+el.Content.Err) + "\n")
		} else {
			b.WriteString(fmt.Sprintf("%s  %s: %s\n", pad, line, el.Content.Text))
		}
	}

	if el.Element.Type == forms.KindObjectList {
		fv.renderObjectList(b, el, focusIdx, pad, line)
	}
	if el.ShowError && el.ErrorMessage != "" {
		b.WriteString(pad + "    " + errorStyle.Render("✗ "+el.ErrorMessage) + "\n")
	}
}

func (fv *formView) renderObjectList(b *strings.Builder, el *forms.RenderedElement, focusIdx *int, pad, label string) {
	headerFocused := *focusIdx == fv.cursor
	*focusIdx++
	marker := "  "
	head := labelStyle.Render(label)
	if headerFocused {
		marker = focusStyle.Render("▸ ")
		head = focusStyle.Render(label)
	}
	b.WriteString(fmt.Sprintf("%s%s%s (%d item(s))%s\n", pad, marker, head, len(el.Items), fv.elementMarkers(el)))

	for _, item := range el.Items {
		if item.Hidden {
			continue
		}
		itemFocused := *focusIdx == fv.cursor
		*focusIdx++
		prefix := "  "
		row := fmt.Sprintf("#%s", strconv.Itoa(item.Index+1))
		if itemFocused {
			prefix = focusStyle.Render("▸ ")
			row = focusStyle.Render(row)
		}
		state := ""
		if item.Editing {
			state = updatedStyle.Render(" (editing)")
		}
		b.WriteString(fmt.Sprintf("%s  %s%s%s\n", pad, prefix, row, state))
		if item.Editing {
			for i := range item.Content {
				fv.renderElement(b, &item.Content[i], focusIdx, 2)
			}
		} else {
			b.WriteString(fmt.Sprintf("%s      %s\n", pad, dimStyle.Render(summarizeItem(item.Content))))
		}
	}
	if el.HiddenLen > 0 {
		b.WriteString(fmt.Sprintf("%s    %s\n", pad, dimStyle.Render(fmt.Sprintf("… %d more (space to expand)", el.HiddenLen))))
	}
}

func summarizeItem(children []forms.RenderedElement) string {
	parts := make([]string, 0, len(children))
	for _, child := range children {
		if child.Content.Text != "" {
			parts = append(parts, child.Content.Text)
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " · ")
}

func (fv *formView) renderTable(b *strings.Builder, el *forms.RenderedElement, pad, label string) {
	b.WriteString(fmt.Sprintf("%s  %s:\n", pad, label))
	if len(el.Content.Columns) > 0 {
		b.WriteString(fmt.Sprintf("%s    %s\n", pad, titleStyle.Render(strings.Join(el.Content.Columns, " │ "))))
	}
	for _, row := range el.Content.Rows {
		b.WriteString(fmt.Sprintf("%s    %s\n", pad, strings.Join(row, " │ ")))
	}
}

func (fv *formView) elementMarkers(el *forms.RenderedElement) string {
	var marks []string
	if el.Updated {
		marks = append(marks, updatedStyle.Render("●"))
	}
	if el.ShowError {
		marks = append(marks, errorStyle.Render("✗"))
	}
	if el.Element.Required {
		marks = append(marks, dimStyle.Render("*"))
	}
	if len(marks) == 0 {
		return ""
	}
	return " " + strings.Join(marks, " ")
}

// coerceInput maps the text widget's string into a typed value: bools
// and numbers become native types, everything else stays a string.
func coerceInput(text string) any {
	trimmed := strings.TrimSpace(text)
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return int(n)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return text
}
