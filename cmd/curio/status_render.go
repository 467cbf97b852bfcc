package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
)

var statusBadges = map[statusKind]struct{ tag, color string }{
	statusInfo: {"INFO", "\x1b[34m"},
	statusOK:   {"OK", "\x1b[32m"},
	statusWarn: {"WARN", "\x1b[33m"},
}

const (
	ansiReset   = "\x1b[0m"
	reportLabel = 16
)

// statusReport collects aligned "label: value" lines under section headers.
type statusReport struct {
	lines    []string
	colorize bool
}

func (r *statusReport) section(title string) {
	if len(r.lines) > 0 {
		r.lines = append(r.lines, "")
	}
	header := "== " + strings.TrimSpace(title) + " =="
	r.lines = append(r.lines, r.paint(statusBadges[statusInfo].color, header))
}

func (r *statusReport) value(label, value string) {
	r.lines = append(r.lines, reportLine(label, value))
}

func (r *statusReport) status(label string, kind statusKind, message string) {
	badge := statusBadges[kind]
	text := "[" + badge.tag + "]"
	if message != "" {
		text += " " + message
	}
	r.lines = append(r.lines, r.paint(badge.color, reportLine(label, text)))
}

func (r *statusReport) paint(color, line string) string {
	if !r.colorize {
		return line
	}
	return color + line + ansiReset
}

func reportLine(label, value string) string {
	return fmt.Sprintf("  %-*s %s", reportLabel, label+":", value)
}

func shouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
