// Package ui renders CLI output. Colour is used only when writing to a
// terminal and NO_COLOR is unset.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if w == nil {
		return false
	}
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// DetectNoColor checks if NO_COLOR environment variable is set.
func DetectNoColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}

// ColorEnabled reports whether w should receive styled output.
func ColorEnabled(w io.Writer, noColorFlag bool) bool {
	return !noColorFlag && !DetectNoColor() && IsTTY(w)
}

// Printer writes styled lines to w.
type Printer struct {
	w      io.Writer
	color  bool
	styles Styles
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{w: w, color: color, styles: GetStyles(color)}
}

func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) Styles() Styles { return p.styles }

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *Printer) Printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// Header prints a bold title line.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w, p.styles.Header.Render(title))
}

// KV prints an indented "label: value" line.
func (p *Printer) KV(label string, value any) {
	fmt.Fprintf(p.w, "  %s %s\n",
		p.styles.Label.Render(label+":"),
		p.styles.Value.Render(fmt.Sprint(value)))
}

func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.styles.Success.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.styles.Warning.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, p.styles.Error.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Dim(format string, args ...any) {
	fmt.Fprintln(p.w, p.styles.Dim.Render(fmt.Sprintf(format, args...)))
}

// IDs renders document ids as "[d1, d4]".
func (p *Printer) IDs(ids []string) string {
	styled := make([]string, len(ids))
	for i, id := range ids {
		styled[i] = p.styles.DocID.Render(id)
	}
	return "[" + strings.Join(styled, ", ") + "]"
}

// Panel prints body inside a bordered box. Without colour the border is
// dropped and body is printed as is.
func (p *Printer) Panel(body string) {
	body = strings.TrimRight(body, "\n")
	if !p.color {
		fmt.Fprintln(p.w, body)
		return
	}
	fmt.Fprintln(p.w, p.styles.Panel.Render(body))
}
