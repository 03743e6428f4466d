package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

const columnGap = 2

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// Table renders column-aligned output. Rows are buffered until Flush so
// column widths fit the widest cell; when the output is a terminal, wide
// columns are capped to the terminal width and their cells wrapped.
// Empty tables produce no output.
type Table struct {
	out     io.Writer
	headers []string
	prefix  string
	rows    [][]string
	width   int // 0 means no cap
}

// NewTable creates a table with the given column headers, writing to stdout.
func NewTable(headers ...string) *Table {
	return &Table{
		out:     os.Stdout,
		headers: headers,
		width:   terminalWidth(os.Stdout),
	}
}

// WithWriter sends output to w. Width capping follows w's terminal, if any.
func (t *Table) WithWriter(w io.Writer) *Table {
	t.out = w
	t.width = terminalWidth(w)
	return t
}

// WithWidth caps the rendered width; 0 disables capping.
func (t *Table) WithWidth(width int) *Table {
	t.width = width
	return t
}

// WithPrefix sets a string prepended to each line (headers, divider, rows).
func (t *Table) WithPrefix(prefix string) *Table {
	t.prefix = prefix
	return t
}

// Row buffers a row. Missing cells render empty.
func (t *Table) Row(values ...string) {
	t.rows = append(t.rows, values)
}

// Flush writes the table. If no rows were added, nothing is printed.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualLen(h)
	}
	for _, row := range t.rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if n := visualLen(row[i]); n > widths[i] {
				widths[i] = n
			}
		}
	}
	if t.width > 0 {
		widths = capWidths(widths, t.headers, t.width, visualLen(t.prefix))
	}

	dividers := make([]string, len(t.headers))
	for i, h := range t.headers {
		dividers[i] = strings.Repeat("-", visualLen(h))
	}
	t.writeLine(t.headers, widths)
	t.writeLine(dividers, widths)

	for _, row := range t.rows {
		cells := make([][]string, len(widths))
		height := 1
		for i := range widths {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			cells[i] = wrapCell(value, widths[i])
			if len(cells[i]) > height {
				height = len(cells[i])
			}
		}
		for line := 0; line < height; line++ {
			values := make([]string, len(widths))
			for i := range widths {
				if line < len(cells[i]) {
					values[i] = cells[i][line]
				}
			}
			t.writeLine(values, widths)
		}
	}
}

func (t *Table) writeLine(values []string, widths []int) {
	var b strings.Builder
	b.WriteString(t.prefix)
	for i, v := range values {
		b.WriteString(v)
		if i < len(values)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-visualLen(v)+columnGap))
		}
	}
	fmt.Fprintln(t.out, strings.TrimRight(b.String(), " "))
}

// capWidths shrinks the widest columns until the table fits in termWidth.
// No column goes below its header width, so the result may still overflow.
func capWidths(widths []int, headers []string, termWidth, prefix int) []int {
	got := append([]int(nil), widths...)
	total := prefix + columnGap*(len(got)-1)
	for _, w := range got {
		total += w
	}

	for total > termWidth {
		widest := -1
		for i, w := range got {
			if w > visualLen(headers[i]) && (widest < 0 || w > got[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		got[widest]--
		total--
	}
	return got
}

// wrapCell splits s into lines of at most width visible characters,
// breaking at spaces and hard-breaking words longer than width. A cell that
// fits is returned unchanged, colors included.
func wrapCell(s string, width int) []string {
	if width <= 0 || visualLen(s) <= width {
		return []string{s}
	}

	var lines []string
	current := ""
	for _, word := range strings.Fields(ansiRegexp.ReplaceAllString(s, "")) {
		if current != "" && utf8.RuneCountInString(current)+1+utf8.RuneCountInString(word) <= width {
			current += " " + word
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		runes := []rune(word)
		for len(runes) > width {
			lines = append(lines, string(runes[:width]))
			runes = runes[width:]
		}
		current = string(runes)
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// visualLen is the printed width of s, ignoring ANSI color sequences.
func visualLen(s string) int {
	return utf8.RuneCountInString(ansiRegexp.ReplaceAllString(s, ""))
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
