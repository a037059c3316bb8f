package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the setpoint banner to w, colored when w is a terminal.
func PrintBanner(w io.Writer) {
	lines := []string{
		"           _              _       _   ",
		"  ___  ___| |_ _ __  ___ (_)_ __ | |_ ",
		" / __|/ _ \\ __| '_ \\/ _ \\| | '_ \\| __|",
		" \\__ \\  __/ |_| |_) | (_) | | | | | |_ ",
		" |___/\\___|\\__| .__/\\___/|_|_| |_|\\__|",
		"              |_|                     ",
	}
	colors := []string{"#22d3ee", "#38bdf8", "#60a5fa", "#818cf8", "#a78bfa", "#c084fc"}

	p := termenv.Ascii
	if IsTerminal(w) {
		p = termenv.ColorProfile()
	}

	fmt.Fprintln(w)
	for i, line := range lines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(colors[i])))
	}
	fmt.Fprintln(w)
}
