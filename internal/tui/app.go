// internal/tui/app.go
//
// The main TUI for catview. It uses bubbletea, which follows The Elm
// Architecture: the App model holds all state, Update reacts to
// messages, View renders state to a string.

package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/genovista/catview/internal/config"
	"github.com/genovista/catview/internal/forms"
	"github.com/genovista/catview/internal/logbook"
	"github.com/genovista/catview/internal/rest"
)

// appState represents which "screen" we're on.
type appState int

const (
	stateMainMenu   appState = iota // Main menu with categories and forms
	stateFormSelect                 // Form picker
	stateFormView                   // Editing a form
)

const searchTimeout = 15 * time.Second

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRegistry supplies the capability registry form definitions
// reference by key.
func WithRegistry(reg *forms.Registry) AppOption {
	return func(a *App) {
		if reg != nil {
			a.registry = reg
		}
	}
}

// WithCatalog overrides form discovery, primarily for tests.
func WithCatalog(catalog *forms.Catalog) AppOption {
	return func(a *App) {
		if catalog != nil {
			a.catalog = catalog
		}
	}
}

// WithClient overrides the catalog transport, primarily for tests.
func WithClient(client *rest.Client) AppOption {
	return func(a *App) {
		if client != nil {
			a.client = client
		}
	}
}

type searchResultMsg struct {
	category string
	matches  int64
	shown    int
	err      error
}

// App is the main application model.
type App struct {
	state    appState
	config   *config.Config
	logbook  *logbook.Logbook
	catalog  *forms.Catalog
	registry *forms.Registry
	client   *rest.Client

	mainMenu  list.Model
	formMenu  list.Model
	formView  *formView
	statusMsg string

	width  int
	height int
}

// menuItem implements list.Item for our menu entries.
type menuItem struct {
	title  string
	desc   string
	action string
	arg    string
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp creates the application model for a project directory.
func NewApp(projectDir string, opts ...AppOption) (*App, error) {
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	book, err := logbook.New(filepath.Join(cfg.LogsDir(), "journey.log"))
	if err == nil {
		book.Info("Session opened")
	}
	catalog, err := forms.DiscoverForms(cfg.FormsDir())
	if err != nil {
		return nil, err
	}

	app := &App{
		state:    stateMainMenu,
		config:   cfg,
		logbook:  book,
		catalog:  catalog,
		registry: forms.NewRegistry(),
	}
	if url := cfg.ServerURL(); url != "" {
		if client, cerr := rest.NewClient(url); cerr == nil {
			app.client = client
		} else {
			app.statusMsg = fmt.Sprintf("Server not configured: %v", cerr)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}

	mainMenu := list.New(buildMainMenu(cfg, app.catalog), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⊿ CATVIEW"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	formMenu := list.New(buildFormMenu(app.catalog), list.NewDefaultDelegate(), 0, 0)
	formMenu.Title = "Select Form"
	formMenu.SetShowStatusBar(false)
	formMenu.SetFilteringEnabled(false)
	app.mainMenu = mainMenu
	app.formMenu = formMenu
	return app, nil
}

// buildMainMenu creates the main menu items from the project config.
func buildMainMenu(cfg *config.Config, catalog *forms.Catalog) []list.Item {
	items := []list.Item{}
	if catalog.Len() > 0 {
		items = append(items, menuItem{
			title:  fmt.Sprintf("Open Form (%d available)", catalog.Len()),
			desc:   "Fill in a declarative catalog form",
			action: "forms",
		})
	}
	for _, category := range cfg.Categories() {
		items = append(items, menuItem{
			title:  fmt.Sprintf("Browse %s", category),
			desc:   fmt.Sprintf("Search the %s endpoint", category),
			action: "browse",
			arg:    category,
		})
	}
	items = append(items, menuItem{title: "Exit", desc: "Quit catview", action: "exit"})
	return items
}

func buildFormMenu(catalog *forms.Catalog) []list.Item {
	items := []list.Item{}
	for _, id := range catalog.IDs() {
		def, _ := catalog.Get(id)
		title := def.Title
		if title == "" {
			title = id
		}
		desc := def.Description
		if desc == "" {
			desc = fmt.Sprintf("Form ID: %s", id)
		}
		items = append(items, menuItem{title: title, desc: desc, action: "open-form", arg: id})
	}
	return items
}

func (a *App) logInfo(format string, args ...any) {
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(maxInt(0, msg.Width-6), maxInt(0, msg.Height-10))
		a.formMenu.SetSize(maxInt(0, msg.Width-6), maxInt(0, msg.Height-10))
		return a, nil

	case searchResultMsg:
		if msg.err != nil {
			a.statusMsg = fmt.Sprintf("Search %s failed: %v", msg.category, msg.err)
			a.logError("Search %s failed: %v", msg.category, msg.err)
		} else {
			a.statusMsg = fmt.Sprintf("%s: %d match(es), %d fetched", msg.category, msg.matches, msg.shown)
			a.logInfo("Search %s: %d match(es)", msg.category, msg.matches)
		}
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateMainMenu {
				return a, tea.Quit
			}
		case "esc":
			if a.state == stateFormView && a.formView != nil && a.formView.CapturesEscape() {
				break
			}
			if a.state != stateMainMenu {
				return a.returnToMainMenu()
			}
		case "enter":
			switch a.state {
			case stateMainMenu:
				return a.handleMainMenuSelection()
			case stateFormSelect:
				return a.handleFormSelection()
			}
		}
	}

	var cmds []tea.Cmd
	switch a.state {
	case stateMainMenu:
		var cmd tea.Cmd
		a.mainMenu, cmd = a.mainMenu.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	case stateFormSelect:
		var cmd tea.Cmd
		a.formMenu, cmd = a.formMenu.Update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
	case stateFormView:
		if a.formView != nil {
			if cmd := a.formView.Update(msg); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleMainMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	switch item.action {
	case "forms":
		a.logInfo("Menu · Open Form selected")
		a.state = stateFormSelect
		if a.width > 0 && a.height > 0 {
			a.formMenu.SetSize(maxInt(0, a.width-6), maxInt(0, a.height-10))
		}
		a.statusMsg = "Select a form"
		return a, nil
	case "browse":
		a.logInfo("Menu · Browse %s selected", item.arg)
		return a, a.searchCategory(item.arg)
	case "exit":
		a.logInfo("Menu · Exit selected")
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) handleFormSelection() (tea.Model, tea.Cmd) {
	item, ok := a.formMenu.SelectedItem().(menuItem)
	if !ok || item.action != "open-form" {
		return a, nil
	}
	def, ok := a.catalog.Get(item.arg)
	if !ok {
		a.statusMsg = fmt.Sprintf("Form %s not found", item.arg)
		return a, nil
	}
	view, err := newFormView(a, def)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Form %s failed to load: %v", item.arg, err)
		a.logError("Form %s failed to load: %v", item.arg, err)
		return a, nil
	}
	a.logInfo("Form · %s opened", item.arg)
	a.formView = view
	a.state = stateFormView
	a.statusMsg = ""
	return a, nil
}

// searchCategory issues one search against the catalog server and
// normalizes the reply into an envelope off the UI goroutine.
func (a *App) searchCategory(category string) tea.Cmd {
	if a.client == nil {
		a.statusMsg = "No catalog server configured (.catview/config.yaml)"
		return nil
	}
	client := a.client
	study := a.config.Study()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()
		params := map[string]string{"limit": "10"}
		if study != "" {
			params["study"] = study
		}
		raw, err := client.Search(ctx, category, params)
		if err != nil {
			return searchResultMsg{category: category, err: err}
		}
		envelope, err := rest.NewEnvelope(raw)
		if err != nil {
			return searchResultMsg{category: category, err: err}
		}
		results, err := envelope.Results()
		if err != nil {
			return searchResultMsg{category: category, err: err}
		}
		matches, _ := envelope.NumMatches()
		return searchResultMsg{category: category, matches: matches, shown: len(results)}
	}
}

func (a *App) returnToMainMenu() (tea.Model, tea.Cmd) {
	a.state = stateMainMenu
	a.formView = nil
	a.mainMenu.SetItems(buildMainMenu(a.config, a.catalog))
	return a, nil
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		MarginBottom(1).
		Render("⊿ CATVIEW")
	var content string
	switch a.state {
	case stateMainMenu:
		content = a.mainMenu.View()
	case stateFormSelect:
		content = a.formMenu.View()
	case stateFormView:
		if a.formView != nil {
			content = a.formView.View()
		} else {
			content = "Loading form..."
		}
	}
	body := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(maxInt(20, width-4)).
		Render(content)
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderLogPanel() string {
	lines := a.logbook.Tail(5)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", filepath.Base(a.logbook.Path())))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
