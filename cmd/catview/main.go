// cmd/catview/main.go
//
// This is the entry point for the catview CLI. Running `catview` from a
// project directory initializes the .catview folder (config, forms,
// logs) and starts the TUI.

package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/genovista/catview/internal/config"
	"github.com/genovista/catview/internal/tui"
)

func main() {
	// The current working directory is the "project" we're working in.
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitCatviewDir(cwd); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing .catview directory: %v\n", err)
		os.Exit(1)
	}

	app, err := tui.NewApp(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading project: %v\n", err)
		os.Exit(1)
	}

	// tea.NewProgram creates a new bubbletea application; Run blocks
	// until the user quits.
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
