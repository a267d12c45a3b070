package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message describes a formatted diagnostic
type Message struct {
	Level       Level
	Context     string
	Problem     string
	Details     []string
	Suggestions []string
	Help        []string
	NoColor     bool
}

// Format renders a diagnostic:
//
//	✗ CLASS NOT FOUND: Ordr
//	   No class named 'Ordr' is declared.
//
//	   Did you mean: Order, OrderLine?
//
//	   → List classes: schemagen list
func Format(m Message) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch m.Level {
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case LevelInfo:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	default:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"
	}
	hint := color.New(color.FgYellow)
	help := color.New(color.FgCyan)
	if m.NoColor {
		for _, c := range []*color.Color{header, body, hint, help} {
			c.DisableColor()
		}
	}

	if m.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(m.Context))
		body.Fprintf(&b, "   %s\n", m.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	for _, d := range m.Details {
		body.Fprintf(&b, "   - %s\n", d)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Help) > 0 {
		b.WriteString("\n")
		for _, cmd := range m.Help {
			help.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// Write writes a formatted diagnostic to w
func Write(w io.Writer, m Message) {
	fmt.Fprint(w, Format(m))
}

// FormatSuccess creates a success line
func FormatSuccess(message string, noColor bool) string {
	green := color.New(color.FgGreen, color.Bold)
	if noColor {
		green.DisableColor()
	}
	return green.Sprintf("✓ %s", message)
}

// WriteSuccess writes a success line to w
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// ClassNotFound reports an unknown class name with close matches
func ClassNotFound(name string, suggestions []string, noColor bool) string {
	return Format(Message{
		Context:     "class not found",
		Problem:     fmt.Sprintf("No class named '%s' is declared.", name),
		Suggestions: suggestions,
		Help:        []string{"List classes: schemagen list"},
		NoColor:     noColor,
	})
}

// ValidationFailed reports the individual problems of a declaration set
func ValidationFailed(problems []string, noColor bool) string {
	return Format(Message{
		Context: "validation failed",
		Problem: fmt.Sprintf("%d problem(s) found in the declarations.", len(problems)),
		Details: problems,
		Help:    []string{"Check one class: schemagen show <class>"},
		NoColor: noColor,
	})
}

// BuildFailed reports a failed document build
func BuildFailed(err error, noColor bool) string {
	return Format(Message{
		Context: "build failed",
		Problem: err.Error(),
		Help:    []string{"Validate declarations: schemagen validate"},
		NoColor: noColor,
	})
}

// ConfigFailed reports an unreadable or invalid configuration
func ConfigFailed(err error, noColor bool) string {
	return Format(Message{
		Context: "configuration error",
		Problem: err.Error(),
		Help:    []string{"View config: cat schemagen.yml"},
		NoColor: noColor,
	})
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return Format(Message{Level: LevelWarning, Problem: message, NoColor: noColor})
}
