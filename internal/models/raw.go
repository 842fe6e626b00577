// Package models defines the tables that flow through the production pipeline.
package models

// RawRow is one data line of the source file.
type RawRow struct {
	Cells []string
	// Line is the 1-based line number in the source file.
	Line int
}

// RawTable is the wide-format table as read from disk: one row per
// region/year, one column per production metric.
type RawTable struct {
	Path     string
	Checksum string
	Header   []string
	Rows     []RawRow
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t *RawTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}

	return -1
}

// Cell returns the cell of row at column idx, or "" when idx is out of range.
func (r RawRow) Cell(idx int) string {
	if idx < 0 || idx >= len(r.Cells) {
		return ""
	}

	return r.Cells[idx]
}
