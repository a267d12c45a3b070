package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Align is the horizontal alignment of a table column
type Align int

const (
	// AlignAuto right-aligns columns whose cells are all integers
	AlignAuto Align = iota
	AlignLeft
	AlignRight
)

// Table prints rows under a bold header line. Cells are separated by two
// spaces and the last column is never padded.
type Table struct {
	writer  io.Writer
	headers []string
	aligns  []Align
	rows    [][]string
	noColor bool
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
}

// NewTable creates a table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{
		writer:  w,
		headers: headers,
		aligns:  make([]Align, len(headers)),
	}
	if opts != nil {
		t.noColor = opts.NoColor
	}
	return t
}

// SetAlign fixes the alignment of column i
func (t *Table) SetAlign(i int, align Align) {
	if i >= 0 && i < len(t.aligns) {
		t.aligns[i] = align
	}
}

// AddRow adds a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render writes the table
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], utf8.RuneCountInString(cell))
		}
	}
	right := make([]bool, len(t.headers))
	for i := range t.headers {
		right[i] = t.alignRight(i)
	}

	bold := t.style(color.Bold, color.FgCyan)
	gray := t.style(color.FgHiBlack)

	cells := make([]string, len(t.headers))
	for i, h := range t.headers {
		cells[i] = bold.Sprint(pad(h, widths[i], right[i], i == len(widths)-1))
	}
	fmt.Fprintln(t.writer, strings.Join(cells, "  "))

	for i, w := range widths {
		cells[i] = gray.Sprint(strings.Repeat("─", w))
	}
	fmt.Fprintln(t.writer, strings.Join(cells, "  "))

	for _, row := range t.rows {
		for i, cell := range row {
			cells[i] = pad(cell, widths[i], right[i], i == len(widths)-1)
		}
		fmt.Fprintln(t.writer, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func (t *Table) alignRight(i int) bool {
	switch t.aligns[i] {
	case AlignRight:
		return true
	case AlignLeft:
		return false
	}
	numeric := false
	for _, row := range t.rows {
		if row[i] == "" || row[i] == "-" {
			continue
		}
		if _, err := strconv.Atoi(row[i]); err != nil {
			return false
		}
		numeric = true
	}
	return numeric
}

func (t *Table) style(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if t.noColor {
		c.DisableColor()
	}
	return c
}

// pad fills s to width runes. A left-aligned last column is left as is.
func pad(s string, width int, right, last bool) string {
	n := width - utf8.RuneCountInString(s)
	switch {
	case n <= 0:
		return s
	case right:
		return strings.Repeat(" ", n) + s
	case last:
		return s
	}
	return s + strings.Repeat(" ", n)
}

// KeyValueTable prints "key: value" lines with the values in one column
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates an empty key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render writes the table
func (t *KeyValueTable) Render() {
	width := 0
	for _, k := range t.keys {
		width = max(width, utf8.RuneCountInString(k)+1)
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, k := range t.keys {
		cyan.Fprint(t.writer, pad(k+":", width, false, false))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}

// Header prints title underlined to its own width
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if noColor {
		bold.DisableColor()
		gray.DisableColor()
	}
	bold.Fprintln(w, title)
	gray.Fprintln(w, strings.Repeat("─", utf8.RuneCountInString(title)))
}
