package executor

import (
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// distinctSep is a non-printable separator for building DISTINCT row keys,
// chosen so it can never appear inside an XML text value.
const distinctSep = "\x1f"

// applyDistinct keeps the first occurrence of each distinct row, preserving
// order.
func applyDistinct(rows [][]string) [][]string {
	seen := map[string]bool{}
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		key := strings.Join(row, distinctSep)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

// applyOrderBy stable-sorts rows by the query's ORDER BY keys, comparing
// numerically when both sides parse as numbers and as strings otherwise.
func applyOrderBy(q *query.Query, rows [][]string, orderColIdx []int) [][]string {
	if len(q.OrderByFields) == 0 {
		return rows
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for k, of := range q.OrderByFields {
			ci := orderColIdx[k]
			if ci < 0 {
				continue
			}
			a, b := rows[i][ci], rows[j][ci]
			cmp := compareValues(a, b)
			if cmp == 0 {
				continue
			}
			if of.Direction == query.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return rows
}

func compareValues(a, b string) int {
	af, aerr := cast.ToFloat64E(a)
	bf, berr := cast.ToFloat64E(b)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// applyLimitOffset implements final step: OFFSET then LIMIT.
func applyLimitOffset(rows [][]string, offset, limit *uint64) [][]string {
	if offset != nil {
		o := int(*offset)
		if o >= len(rows) {
			return nil
		}
		rows = rows[o:]
	}
	if limit != nil {
		l := int(*limit)
		if l < len(rows) {
			rows = rows[:l]
		}
	}
	return rows
}

// orderColumnIndexes maps each ORDER BY field to its SELECT column index.
// FILE_NAME order keys and fields absent from the SELECT list both resolve
// to -1 and are skipped by the caller building this slice's companion
// lookup in Run.
func orderColumnIndexes(q *query.Query) []int {
	idx := make([]int, len(q.OrderByFields))
	for k, of := range q.OrderByFields {
		idx[k] = -1
		for i, item := range q.SelectFields {
			if of.IsFileName && item.IsFileName {
				idx[k] = i
				break
			}
			if !of.IsFileName && item.Agg == query.AggNone && item.Field.String() == of.Field.String() {
				idx[k] = i
				break
			}
		}
	}
	return idx
}
