package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func (p *Palette) On(s string, bg lipgloss.Color) string {
	return lipgloss.NewStyle().Background(bg).Render(s)
}

func (p *Palette) As(s string, fg lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(fg).Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// Title renders a heading.
func Title(format string, args ...any) string { return styles.title.Render(fmt.Sprintf(format, args...)) }

// OK renders a success marker or message.
func OK(format string, args ...any) string { return styles.ok.Render(fmt.Sprintf(format, args...)) }

// Err renders a failure marker or message.
func Err(format string, args ...any) string { return styles.err.Render(fmt.Sprintf(format, args...)) }

// Warn renders a warning.
func Warn(format string, args ...any) string { return styles.warn.Render(fmt.Sprintf(format, args...)) }

// Help renders secondary hint text.
func Help(format string, args ...any) string { return styles.help.Render(fmt.Sprintf(format, args...)) }

// Outcome colors an audit outcome: ok is green, noop and invalid are amber, everything else red.
func Outcome(outcome string) string {
	switch outcome {
	case "ok":
		return OK("%s", outcome)
	case "noop", "invalid":
		return Warn("%s", outcome)
	default:
		return Err("%s", outcome)
	}
}
