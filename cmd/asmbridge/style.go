package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type styles struct {
	failure lipgloss.Style
	name    lipgloss.Style
	code    lipgloss.Style
}

// newStyles renders for w, and plain when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	if f, ok := w.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		r = lipgloss.NewRenderer(io.Discard)
	}
	return styles{
		failure: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		name:    r.NewStyle().Foreground(lipgloss.Color("#98FB98")),
		code:    r.NewStyle().Foreground(lipgloss.Color("#87CEEB")).Width(3).Align(lipgloss.Right),
	}
}
