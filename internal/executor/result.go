// Package executor runs a parsed query.Query against a set of XML files
//: file discovery, parallel per-file processing, FOR-clause
// expansion, and post-file grouping/sort/limit.
package executor

import (
	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
)

// ResultSet is the ordered outcome of a query: a fixed column
// order shared by every row, the rows themselves (each the same length as
// Columns, preserving duplicate column names), and any warnings collected
// along the way.
type ResultSet struct {
	Columns  []string
	Rows     [][]string
	Warnings []*errs.Err
}

// RowCount is the number of rows in the result set.
func (rs *ResultSet) RowCount() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}
