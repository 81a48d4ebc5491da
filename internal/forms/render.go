package forms

// ContentKind classifies an opaque content node for rendering strategies.
type ContentKind string

const (
	ContentText      ContentKind = "text"
	ContentTitle     ContentKind = "title"
	ContentNotice    ContentKind = "notice"
	ContentSeparator ContentKind = "separator"
	ContentInput     ContentKind = "input"
	ContentSelect    ContentKind = "select"
	ContentToggle    ContentKind = "toggle"
	ContentList      ContentKind = "list"
	ContentTable     ContentKind = "table"
	ContentTree      ContentKind = "tree"
	ContentJSON      ContentKind = "json"
	ContentChart     ContentKind = "chart"
	ContentDownload  ContentKind = "download"
	ContentObject    ContentKind = "object"
	ContentCustom    ContentKind = "custom"
	ContentError     ContentKind = "error"
)

// InputMode narrows ContentInput for the widget layer.
type InputMode string

const (
	InputText     InputMode = "text"
	InputNumber   InputMode = "number"
	InputPassword InputMode = "password"
	InputDate     InputMode = "date"
	InputJSON     InputMode = "json"
)

// Content is the structural description of one rendered element. It is
// deliberately widget-free: strategies translate it into whatever surface
// they draw on.
type Content struct {
	Kind ContentKind

	// Text is the display text for scalar content, the message for
	// notices and errors, or serialized JSON for ContentJSON.
	Text string

	// Formatted carries style/link/class hints when a Format applied.
	Formatted *FormattedValue

	// Input configuration for interactive kinds.
	Mode    InputMode
	Options []string
	Checked bool

	// Rows holds list items or table rows; Columns the table header.
	Rows    [][]string
	Columns []string

	// Children holds nested object content and object-list items.
	Children []RenderedElement

	// Err is an inline, element-scoped error message (non-fatal to the
	// rest of the form).
	Err string
}

// ListItemState describes one object-list item's UI state.
type ListItemState struct {
	Index   int
	Editing bool
	Hidden  bool // beyond maxNumItems while the list is collapsed
	Content []RenderedElement
}

// RenderedElement pairs an element with its resolved value and content.
type RenderedElement struct {
	Element  *Element
	Value    any
	Disabled bool
	Updated  bool

	// RequiredEmpty/Invalid reflect this pass's validation report entries
	// for the element. ShowError additionally requires a prior submit
	// attempt (lazy display, eager detection).
	RequiredEmpty bool
	Invalid       bool
	ShowError     bool
	ErrorMessage  string

	Layout  Layout
	Content Content

	// Items is populated for object-list elements.
	Items     []ListItemState
	Expanded  bool
	HiddenLen int
}

// RenderedSection is one visible section of the pass.
type RenderedSection struct {
	ID          string
	Title       string
	Description string
	Elements    []RenderedElement

	// Navigable is false for structurally empty sections (a single
	// notification), which render their notice but stay out of tab and
	// pill navigation.
	Navigable bool
}

// RenderTree is the full output of one render pass.
type RenderTree struct {
	Type        FormType
	Title       string
	Description string
	Sections    []RenderedSection

	// Active indexes Sections for tabs/pills layouts. Switching the
	// active section is a display concern only; it never recomputes or
	// resets data.
	Active int

	// GlobalError is set after a submit attempt failed the whole-form
	// validator.
	GlobalError        bool
	GlobalErrorMessage string

	// Report is this pass's validation report.
	Report Report
}

// RenderContext is handed to rendering strategies alongside the value.
type RenderContext struct {
	Element *Element
	Data    Data
	Item    any // enclosing array item for array-item fields
}

// Renderer is the strategy contract for custom element kinds. Strategies
// propose mutations by calling Engine.NotifyChange; they never mutate the
// data object themselves.
type Renderer interface {
	Render(value any, ctx RenderContext) (Content, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(value any, ctx RenderContext) (Content, error)

// Render implements Renderer.
func (f RendererFunc) Render(value any, ctx RenderContext) (Content, error) {
	return f(value, ctx)
}
