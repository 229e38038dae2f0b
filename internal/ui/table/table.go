// Package table prints aligned text tables whose cells are rendered from
// text/template formats.
package table

import (
	"bytes"
	"io"
	"strings"
	"text/template"

	"github.com/repobak/repobak/internal/ui"
)

// Table contains data for a table to be printed.
type Table struct {
	columns   []string
	templates []*template.Template
	data      []interface{}
	footer    []string

	CellSeparator string
}

var funcmap = template.FuncMap{
	"join":  strings.Join,
	"bytes": ui.FormatBytes,
	"quote": ui.Quote,
}

// New initializes a new Table
func New() *Table {
	return &Table{CellSeparator: "  "}
}

// AddColumn adds a column with the header and format, which must be a
// text/template string. AddColumn panics if the format does not compile.
func (t *Table) AddColumn(header, format string) {
	tmpl, err := template.New("template for " + header).Funcs(funcmap).Parse(format)
	if err != nil {
		panic(err)
	}

	t.columns = append(t.columns, header)
	t.templates = append(t.templates, tmpl)
}

// AddRow adds a new row to the table, which is filled with data.
func (t *Table) AddRow(data interface{}) {
	t.data = append(t.data, data)
}

// AddFooter adds a line printed after the table.
func (t *Table) AddFooter(line string) {
	t.footer = append(t.footer, line)
}

// writeRow writes one row; cells containing newlines span several lines.
func writeRow(w io.Writer, sep string, cells []string, widths []int) error {
	var fields [][]string
	maxLines := 1
	for _, cell := range cells {
		lines := strings.Split(cell, "\n")
		maxLines = max(maxLines, len(lines))
		fields = append(fields, lines)
	}

	for i := 0; i < maxLines; i++ {
		var sb strings.Builder
		for n, lines := range fields {
			if n > 0 {
				sb.WriteString(sep)
			}

			var v string
			if i < len(lines) {
				v = lines[i]
			}
			sb.WriteString(v)
			if pad := widths[n] - ui.DisplayWidth(v); pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
		}

		if _, err := io.WriteString(w, strings.TrimRight(sb.String(), " ")+"\n"); err != nil {
			return err
		}
	}

	return nil
}

func updateWidths(widths []int, cells []string) {
	for i, cell := range cells {
		for _, line := range strings.Split(cell, "\n") {
			widths[i] = max(widths[i], ui.DisplayWidth(line))
		}
	}
}

// Write prints the table to w.
func (t *Table) Write(w io.Writer) error {
	if len(t.templates) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(t.data))
	buf := bytes.NewBuffer(nil)
	for _, data := range t.data {
		row := make([]string, 0, len(t.templates))
		for _, tmpl := range t.templates {
			if err := tmpl.Execute(buf, data); err != nil {
				return err
			}
			row = append(row, buf.String())
			buf.Reset()
		}
		rows = append(rows, row)
	}

	widths := make([]int, len(t.columns))
	updateWidths(widths, t.columns)
	for _, row := range rows {
		updateWidths(widths, row)
	}

	total := (len(widths) - 1) * ui.DisplayWidth(t.CellSeparator)
	for _, width := range widths {
		total += width
	}
	separator := strings.Repeat("-", total) + "\n"

	if err := writeRow(w, t.CellSeparator, t.columns, widths); err != nil {
		return err
	}
	if _, err := io.WriteString(w, separator); err != nil {
		return err
	}

	for _, row := range rows {
		if err := writeRow(w, t.CellSeparator, row, widths); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, separator); err != nil {
		return err
	}

	for _, line := range t.footer {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}
