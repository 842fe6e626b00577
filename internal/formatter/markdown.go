// Package formatter renders aligned markdown tables and production reports.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Column alignments.
const (
	alignLeft = iota
	alignRight
	alignCenter
)

// minColumnWidth is the width of the shortest separator, "---".
const minColumnWidth = 3

// FormatMarkdown re-aligns every table in a markdown document. Lines that
// are not part of a table are kept as they are.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	return strings.Join(formattedLines, "\n")
}

// FormatTable renders header and rows as an aligned markdown table.
// Columns listed in rightAligned are right-aligned, e.g. numbers.
func FormatTable(header []string, rows [][]string, rightAligned ...int) string {
	aligns := make([]int, len(header))
	for _, c := range rightAligned {
		if c >= 0 && c < len(aligns) {
			aligns[c] = alignRight
		}
	}

	table := make([][]string, 0, len(rows)+1)
	table = append(table, header)
	table = append(table, rows...)

	return strings.Join(renderTable(table, aligns, true), "\n")
}

func processTable(rows []string) []string {
	// A table needs at least a header and a separator.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, splitRow(row))
	}

	aligns, isSep := parseSeparator(table[1])
	if !isSep {
		return renderTable(table, nil, false)
	}

	body := make([][]string, 0, len(table)-1)
	body = append(body, table[0])
	body = append(body, table[2:]...)

	return renderTable(body, aligns, true)
}

func splitRow(row string) []string {
	parts := strings.Split(strings.TrimSpace(row), "|")

	// Leading and trailing pipes leave empty parts.
	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}

	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}

	return cells
}

// parseSeparator reads the alignment of each column from a separator row
// such as "| :--- | ---: | :-: |".
func parseSeparator(cells []string) ([]int, bool) {
	aligns := make([]int, len(cells))

	for i, cell := range cells {
		trim := strings.ReplaceAll(cell, " ", "")
		if strings.Trim(trim, "-:") != "" || !strings.Contains(trim, "-") {
			return nil, false
		}

		left := strings.HasPrefix(trim, ":")
		right := strings.HasSuffix(trim, ":")

		switch {
		case left && right:
			aligns[i] = alignCenter
		case right:
			aligns[i] = alignRight
		}
	}

	return aligns, true
}

// renderTable pads every cell to the display width of its column. When
// withSep is set a separator row is emitted after the first row.
func renderTable(table [][]string, aligns []int, withSep bool) []string {
	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = minColumnWidth
	}

	for _, row := range table {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	alignOf := func(col int) int {
		if col < len(aligns) {
			return aligns[col]
		}

		return alignLeft
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			content := ""
			if j < len(row) {
				content = row[j]
			}

			sb.WriteString(" ")
			sb.WriteString(pad(content, colWidths[j], alignOf(j)))
			sb.WriteString(" |")
		}

		result = append(result, sb.String())

		if i == 0 && withSep {
			result = append(result, separator(colWidths, alignOf))
		}
	}

	return result
}

func separator(widths []int, alignOf func(int) int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, w := range widths {
		dashes := strings.Repeat("-", w)

		switch alignOf(j) {
		case alignRight:
			dashes = dashes[:w-1] + ":"
		case alignCenter:
			dashes = ":" + dashes[:w-2] + ":"
		}

		sb.WriteString(" ")
		sb.WriteString(dashes)
		sb.WriteString(" |")
	}

	return sb.String()
}

func pad(content string, width, align int) string {
	padding := width - runewidth.StringWidth(content)
	if padding <= 0 {
		return content
	}

	switch align {
	case alignRight:
		return strings.Repeat(" ", padding) + content
	case alignCenter:
		left := padding / 2

		return strings.Repeat(" ", left) + content + strings.Repeat(" ", padding-left)
	default:
		return content + strings.Repeat(" ", padding)
	}
}
