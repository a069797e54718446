package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"hopper/internal/preflight"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const statusLabelWidth = 18

var statusStyles = map[statusKind]struct {
	label  string
	colors text.Colors
}{
	statusInfo:  {"INFO", text.Colors{text.FgBlue}},
	statusOK:    {"OK", text.Colors{text.FgGreen}},
	statusWarn:  {"WARN", text.Colors{text.FgYellow}},
	statusError: {"ERROR", text.Colors{text.FgRed}},
}

// renderStatusLine formats "  label:  [KIND] message", colored by kind.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	status := "[" + style.label + "]"
	if message != "" {
		status += " " + message
	}
	line := fmt.Sprintf("  %-*s %s", statusLabelWidth, label+":", status)
	if colorize {
		return style.colors.Sprint(line)
	}
	return line
}

func renderSectionHeader(title string, colorize bool) []string {
	heading := "== " + strings.TrimSpace(title) + " =="
	lines := []string{heading, strings.Repeat("-", len(heading))}
	if colorize {
		for i := range lines {
			lines[i] = text.Colors{text.FgBlue, text.Bold}.Sprint(lines[i])
		}
	}
	return lines
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func preflightStatusLine(result preflight.Result, colorize bool) string {
	kind := statusOK
	if !result.Passed {
		kind = statusError
	}
	return renderStatusLine(result.Name, kind, result.Detail, colorize)
}

func formatAge(ts time.Time) string {
	if ts.IsZero() {
		return "never"
	}
	return time.Since(ts).Round(time.Second).String() + " ago"
}
