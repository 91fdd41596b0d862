package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var (
	// fatih/color disables these when stdout is not a TTY
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	headerColor  = color.New(color.FgBlue, color.Bold)
	labelColor   = color.New(color.FgWhite, color.Bold)
	valueColor   = color.New(color.FgHiBlack)
	dimColor     = color.New(color.FgHiBlack)
)

// printer writes human-readable command output.
type printer struct {
	w io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w}
}

// Section prints a section header
func (p *printer) Section(title string) {
	fmt.Fprintln(p.w)
	_, _ = headerColor.Fprintf(p.w, "▸ %s\n", title)
	fmt.Fprintln(p.w)
}

// Success prints a success message with a checkmark
func (p *printer) Success(msg string) {
	_, _ = successColor.Fprintf(p.w, "✓ %s\n", msg)
}

// Warning prints a warning message with a warning symbol
func (p *printer) Warning(msg string) {
	_, _ = warningColor.Fprintf(p.w, "⚠ %s\n", msg)
}

func (p *printer) Info(msg string) {
	fmt.Fprintln(p.w, msg)
}

func (p *printer) Blank() {
	fmt.Fprintln(p.w)
}

// LabelValue prints an indented label-value pair
func (p *printer) LabelValue(label, value string) {
	p.LabelValueWithColor(label, value, valueColor)
}

func (p *printer) LabelValueWithColor(label, value string, clr *color.Color) {
	_, _ = labelColor.Fprintf(p.w, "  %s: ", label)
	_, _ = clr.Fprintln(p.w, value)
}

// List prints items as bullets
func (p *printer) List(items []string, indent int) {
	prefix := strings.Repeat("  ", indent)
	for _, item := range items {
		_, _ = infoColor.Fprintf(p.w, "%s• %s\n", prefix, item)
	}
}

// Table prints rows under headers with padded columns.
func (p *printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 || len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	fmt.Fprint(p.w, "  ")
	for i, header := range headers {
		if i > 0 {
			fmt.Fprint(p.w, "  ")
		}
		_, _ = headerColor.Fprintf(p.w, "%-*s", widths[i], header)
	}
	fmt.Fprintln(p.w)

	fmt.Fprint(p.w, "  ")
	for i, width := range widths {
		if i > 0 {
			fmt.Fprint(p.w, "  ")
		}
		fmt.Fprint(p.w, strings.Repeat("-", width))
	}
	fmt.Fprintln(p.w)

	for _, row := range rows {
		fmt.Fprint(p.w, "  ")
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				fmt.Fprint(p.w, "  ")
			}
			_, _ = valueColor.Fprintf(p.w, "%-*s", widths[i], cell)
		}
		fmt.Fprintln(p.w)
	}
}

// EmptyState prints a dimmed note when there is nothing to show
func (p *printer) EmptyState(msg string) {
	_, _ = dimColor.Fprintf(p.w, "  %s\n", msg)
}

// countNoun formats a count with the singular or plural noun.
func countNoun(count int, singular, plural string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, singular)
	}
	return fmt.Sprintf("%d %s", count, plural)
}
