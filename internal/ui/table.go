package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column.
type Column struct {
	Title string
	Width int
}

// Row is a slice of cell values.
type Row []string

// Table renders a lipgloss-styled table. Account listings, the token
// registry, endpoint benchmarks and the event journal all print through it.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// pad fits s into exactly width columns, truncating or space-padding as
// needed. Width is counted in runes so multi-byte symbols and labels line up.
// Padding is done here rather than with lipgloss Width+PaddingRight, whose
// interaction wraps content when (content length + padding) > Width.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

// renderLine styles one cell per column and joins them with a single space.
func (t *Table) renderLine(cells Row, style lipgloss.Style) string {
	parts := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		val := ""
		if i < len(cells) {
			val = cells[i]
		}
		parts[i] = style.Render(pad(val, col.Width))
	}
	return strings.Join(parts, " ")
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)

	header := make(Row, len(t.Columns))
	divider := make(Row, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col.Title
		divider[i] = strings.Repeat("-", col.Width)
	}

	var sb strings.Builder
	sb.WriteString(t.renderLine(header, headerStyle))
	sb.WriteString("\n")
	sb.WriteString(t.renderLine(divider, dimStyle))
	sb.WriteString("\n")
	for i, row := range t.Rows {
		style := cellStyle
		if i == t.SelIdx {
			style = StyleSelected
		}
		sb.WriteString(t.renderLine(row, style))
		sb.WriteString("\n")
	}
	return sb.String()
}

// KeyValueBlock renders a set of key-value pairs in a bordered box.
func KeyValueBlock(title string, pairs [][2]string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-20s", p[0]+":"))
		val := StyleValue.Render(p[1])
		sb.WriteString("  " + key + " " + val + "\n")
	}
	return StyleBorder.Render(sb.String())
}
