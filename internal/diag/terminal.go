package diag

import (
	"fmt"
	"io"
	"strings"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// FormatForTerminal formats a diagnostic for terminal output with ANSI colors
func (e BuildError) FormatForTerminal() string {
	var sb strings.Builder

	severityColor := colorRed
	if e.Severity == Warning {
		severityColor = colorYellow
	}
	sb.WriteString(fmt.Sprintf("%s%s%s [%s/%s]: %s\n",
		colorBold+severityColor,
		e.Severity.String(),
		colorReset,
		e.Phase,
		e.Code,
		e.Message))

	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("  %s-->%s %s", colorCyan, colorReset, e.Location.File))
		if e.Location.Line > 0 {
			sb.WriteString(fmt.Sprintf(":%d:%d", e.Location.Line, e.Location.Column))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// Render writes every diagnostic in the list to w in terminal form.
func (l *List) Render(w io.Writer) {
	if len(l.Errors) == 0 {
		return
	}
	fmt.Fprintf(w, "\nBuild failed with %d error(s):\n\n", len(l.Errors))
	for i, e := range l.Errors {
		fmt.Fprint(w, e.FormatForTerminal())
		if i < len(l.Errors)-1 {
			fmt.Fprintln(w, strings.Repeat("-", 60))
		}
	}
	fmt.Fprintln(w)
}
