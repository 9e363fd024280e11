package main

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

const (
	tagFail  = "FAIL"
	tagWarn  = "WARN"
	tagError = "ERROR"

	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBold   = "\033[1m"
)

var tagColors = map[string]string{
	tagFail:  colorRed,
	tagWarn:  colorYellow,
	tagError: colorBold + colorRed,
}

// printer writes result lines, coloured and clipped to the terminal width
// when w is a terminal.
type printer struct {
	w     io.Writer
	color bool
	width int

	mu sync.Mutex
}

func newPrinter(w io.Writer, noColor bool) *printer {
	p := &printer{w: w}
	f, ok := w.(*os.File)
	if !ok {
		return p
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return p
	}
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	p.color = !noColor && !noColorEnv && os.Getenv("TERM") != "dumb"
	if width, _, err := term.GetSize(int(fd)); err == nil {
		p.width = width
	}
	return p
}

func (p *printer) paint(color, s string) string {
	if !p.color || color == "" {
		return s
	}
	return color + s + colorReset
}

func (p *printer) line(tag, text string) {
	if p.width > 0 {
		if room := p.width - len(tag) - 1; room > 0 {
			text = ansi.Truncate(text, room, "…")
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %s\n", p.paint(tagColors[tag], tag), text)
}

func (p *printer) summary(s summary) {
	color := colorGreen
	switch {
	case s.violations > 0 || s.errors > 0:
		color = colorRed
	case s.warnings > 0:
		color = colorYellow
	}
	text := fmt.Sprintf("checked %d documents: %d violations, %d warnings, %d errors",
		s.documents, s.violations, s.warnings, s.errors)
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, p.paint(color, text))
}
