package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"lumen/internal/diag"
	"lumen/internal/source"
)

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	for i := range items {
		writeDiagnostic(w, &items[i], fs, opts)
	}
}

func writeDiagnostic(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	fmt.Fprintf(w, "%s: %s %s: %s\n",
		location(fs, d.Primary, opts.PathMode),
		severityText(d.Severity, opts.Color),
		d.Code.ID(),
		d.Message)
	writeUnderline(w, fs, d.Primary, opts.Color)

	if opts.ShowNotes {
		for i := range d.Notes {
			n := &d.Notes[i]
			fmt.Fprintf(w, "  note: %s (%s)\n", n.Msg, location(fs, n.Span, opts.PathMode))
		}
	}
	if opts.ShowFixes {
		for i := range d.Fixes {
			fmt.Fprintf(w, "  help: %s\n", d.Fixes[i].Title)
		}
	}
}

// writeUnderline prints the source line of the span's start with a ^~~~ mark
// under the span. Spans crossing line boundaries underline to end of line.
func writeUnderline(w io.Writer, fs *source.FileSet, span source.Span, colored bool) {
	f := fs.Get(span.File)
	start, end := fs.Resolve(span)
	line := f.GetLine(start.Line)
	if line == "" && span.Empty() {
		return
	}

	// Tabs collapse to one cell so the caret column stays aligned.
	display := strings.ReplaceAll(line, "\t", " ")
	fmt.Fprintf(w, "  %s\n", display)

	from := int(start.Col - 1)
	if from > len(line) {
		from = len(line)
	}
	to := len(line)
	if end.Line == start.Line && int(end.Col-1) < to {
		to = int(end.Col - 1)
	}
	if to < from {
		to = from
	}

	pad := runewidth.StringWidth(strings.ReplaceAll(line[:from], "\t", " "))
	length := runewidth.StringWidth(line[from:to])
	if length < 1 {
		length = 1
	}

	mark := "^" + strings.Repeat("~", length-1)
	if colored {
		mark = color.New(color.FgHiRed, color.Bold).Sprint(mark)
	}
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", pad), mark)
}

func severityText(sev diag.Severity, colored bool) string {
	if !colored {
		return sev.String()
	}
	switch sev {
	case diag.SevError:
		return color.New(color.FgRed, color.Bold).Sprint(sev.String())
	case diag.SevWarning:
		return color.New(color.FgYellow).Sprint(sev.String())
	default:
		return color.New(color.FgCyan).Sprint(sev.String())
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := fs.Get(span.File)
	start, _ := fs.Resolve(span)
	path := f.Path
	if mode == PathModeBasename {
		path = filepath.Base(path)
	}
	return fmt.Sprintf("%s:%d:%d", path, start.Line, start.Col)
}
