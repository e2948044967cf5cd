// Package format renders an executor.ResultSet into plain-text and
// structured representations, and optionally persists both to SET DEST.
package format

import (
	"fmt"
	"strings"

	"github.com/PierreBx/ariane-xml-sub000/internal/executor"
)

// PlainText renders columns left-aligned and pipe-separated, a dashed rule
// under the header, and a trailing "N row(s) returned." line.
func PlainText(rs *executor.ResultSet) string {
	widths := columnWidths(rs)

	var sb strings.Builder
	writeRow(&sb, rs.Columns, widths)
	writeRule(&sb, widths)
	for _, row := range rs.Rows {
		writeRow(&sb, row, widths)
	}
	fmt.Fprintf(&sb, "%d row(s) returned.\n", rs.RowCount())
	return sb.String()
}

func columnWidths(rs *executor.ResultSet) []int {
	widths := make([]int, len(rs.Columns))
	for i, c := range rs.Columns {
		widths[i] = len(c)
	}
	for _, row := range rs.Rows {
		for i, v := range row {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	return widths
}

func writeRow(sb *strings.Builder, cells []string, widths []int) {
	for i, v := range cells {
		if i > 0 {
			sb.WriteString(" | ")
		}
		fmt.Fprintf(sb, "%-*s", widths[i], v)
	}
	sb.WriteString("\n")
}

func writeRule(sb *strings.Builder, widths []int) {
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("-+-")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
}

// Row is one structured-representation record: a {column_name -> value}
// dictionary, one per result row.
type Row map[string]string

// Structured returns the column order and one Row per result row, for
// machine consumers (a notebook frontend rendering an HTML table).
func Structured(rs *executor.ResultSet) ([]string, []Row) {
	rows := make([]Row, len(rs.Rows))
	for i, raw := range rs.Rows {
		r := make(Row, len(rs.Columns))
		for j, col := range rs.Columns {
			r[col] = raw[j]
		}
		rows[i] = r
	}
	return rs.Columns, rows
}
