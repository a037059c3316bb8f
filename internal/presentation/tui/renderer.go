package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/setpoint/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// Renderer turns markdown into what should be written to one output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer when w is a terminal,
// and a pass-through otherwise so pipes and files get plain markdown.
func NewRenderer(w io.Writer) Renderer {
	if !IsTerminal(w) {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// StepsMarkdown renders compiled steps as a markdown table, with each step's
// start time counted from origin seconds.
func StepsMarkdown(title string, steps []domain.CompiledStep, origin float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", title)
	fmt.Fprintf(&b, "%d steps, %s total\n\n", len(steps), domain.TotalDuration(steps))
	b.WriteString("| # | start (s) | kind | value | duration | direction | secondary |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")

	t := origin
	for i, s := range steps {
		value := formatValue(s.Value)
		if s.Kind == domain.StepNativeRamp {
			value = fmt.Sprintf("%s → %s", formatValue(s.From), value)
		}
		direction := "-"
		if s.Direction != nil {
			direction = string(*s.Direction)
		}
		secondary := "-"
		if s.Secondary != nil {
			secondary = formatValue(*s.Secondary)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n",
			i, formatValue(t), s.Kind, value, s.Duration, direction, secondary)
		t += s.Duration.Seconds()
	}
	return b.String()
}

// WritePoints writes a preview curve as "t v" lines, one point per line.
func WritePoints(w io.Writer, points []domain.Point) error {
	for _, p := range points {
		if _, err := fmt.Fprintf(w, "%s %s\n", formatValue(p.T), formatValue(p.V)); err != nil {
			return err
		}
	}
	return nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*1000)/1000, 'f', -1, 64)
}
