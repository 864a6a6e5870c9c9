package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent = lipgloss.Color("#7AA2F7")
	muted  = lipgloss.Color("#565F89")
	red    = lipgloss.Color("#F7768E")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)

	keyStyle   = lipgloss.NewStyle().Foreground(accent)
	errorStyle = lipgloss.NewStyle().Foreground(red)
)

var menuEntries = []string{
	"cache-read",
	"cache-write",
	"cache-flush",
	"cache-view",
	"memory-view",
	"cache-dump",
	"memory-dump",
	"quit",
}

func renderBanner() string {
	return titleStyle.Render("*** Welcome to the cache simulator ***")
}

func renderMenu() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Cache simulator menu"))
	b.WriteString("\ntype one command:")
	for i, entry := range menuEntries {
		fmt.Fprintf(&b, "\n%d. %s", i+1, keyStyle.Render(entry))
	}

	return menuStyle.Render(b.String())
}

func printMenu(w io.Writer) {
	fmt.Fprintln(w, renderMenu())
}
