package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the fitcoach ASCII art banner.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Green to teal gradient
	lines := []struct {
		text  string
		color string
	}{
		{"    __ _ _                      _     ", "#4ade80"},
		{"   / _(_) |_ ___ ___   __ _  ___| |__  ", "#34d399"},
		{"  | |_| | __/ __/ _ \\ / _` |/ __| '_ \\ ", "#2dd4bf"},
		{"  |  _| | || (_| (_) | (_| | (__| | | |", "#22d3ee"},
		{"  |_| |_|\\__\\___\\___/ \\__,_|\\___|_| |_|", "#38bdf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
