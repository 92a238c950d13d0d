package session

import (
	"fmt"
	"io"
)

const (
	cReset  = "\033[0m"
	cRed    = "\033[31m"
	cGreen  = "\033[32m"
	cYellow = "\033[33m"
	cDim    = "\033[2m"
)

// Transcript prefixes.
const (
	OutPrefix = "> "
	InPrefix  = "< "
)

// Printer writes the session transcript. Stdout and Stderr should be the
// line editor's writers when one is active.
type Printer struct {
	Stdout io.Writer
	Stderr io.Writer
	// Color enables ANSI colors on prefixes and tags.
	Color bool
	// Echo repeats sent lines with OutPrefix. Off when the editor prompt
	// already shows what was typed.
	Echo bool
}

func (p *Printer) paint(color, s string) string {
	if !p.Color {
		return s
	}
	return color + s + cReset
}

// Outbound echoes a sent text line.
func (p *Printer) Outbound(line string) {
	if !p.Echo {
		return
	}
	fmt.Fprintln(p.Stdout, p.paint(cDim, OutPrefix)+line)
}

// Inbound prints received content.
func (p *Printer) Inbound(line string) {
	fmt.Fprintln(p.Stdout, p.paint(cGreen, InPrefix)+line)
}

// Notice prints an inbound status line such as a ping notification.
func (p *Printer) Notice(format string, args ...any) {
	fmt.Fprintln(p.Stdout, p.paint(cGreen, InPrefix)+p.paint(cYellow, fmt.Sprintf(format, args...)))
}

// Info prints a plain status line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.Stdout, p.paint(cGreen, fmt.Sprintf(format, args...)))
}

// Errorf reports a diagnostic on Stderr.
func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.Stderr, p.paint(cRed, "error:")+" "+fmt.Sprintf(format, args...))
}
