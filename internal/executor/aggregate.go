package executor

import (
	"github.com/mitchellh/hashstructure"
	"github.com/spf13/cast"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// bucket accumulates one GROUP BY group's rows and running aggregate state.
type bucket struct {
	key       uint64
	groupVals []string
	rows      [][]string // raw rows belonging to this group, for non-aggregate columns
	aggState  map[int]*aggAccumulator
}

// aggAccumulator tracks running per-bucket state for one aggregate SELECT
// item. COUNT(*) counts rows; COUNT(field) counts only rows with a
// non-empty value. SUM/AVG/MIN/MAX all ignore empty/non-numeric values for
// their numeric computation, but MIN/MAX fall back to whole-group
// string-lexicographic comparison when any non-empty value fails to parse
// as a number.
type aggAccumulator struct {
	fn     query.AggFunc
	isStar bool

	count int // COUNT result: row count for *, non-empty value count otherwise

	numericCount int // non-empty values that parsed as numbers (SUM/AVG/MIN/MAX denominator)
	sum          float64
	min, max     float64

	allNumeric bool // every non-empty value seen so far parsed as a number
	anySeen    bool // at least one non-empty value seen
	minStr     string
	maxStr     string
}

func newAccumulator(fn query.AggFunc, isStar bool) *aggAccumulator {
	return &aggAccumulator{fn: fn, isStar: isStar, allNumeric: true}
}

func (a *aggAccumulator) add(raw string) {
	if a.fn == query.AggCount {
		if a.isStar || raw != "" {
			a.count++
		}
		return
	}
	if raw == "" {
		return
	}

	if !a.anySeen || raw < a.minStr {
		a.minStr = raw
	}
	if !a.anySeen || raw > a.maxStr {
		a.maxStr = raw
	}
	a.anySeen = true

	v, err := cast.ToFloat64E(raw)
	if err != nil {
		a.allNumeric = false
		return
	}
	a.sum += v
	if a.numericCount == 0 || v < a.min {
		a.min = v
	}
	if a.numericCount == 0 || v > a.max {
		a.max = v
	}
	a.numericCount++
}

func (a *aggAccumulator) result() string {
	switch a.fn {
	case query.AggCount:
		return cast.ToString(a.count)
	case query.AggSum:
		return cast.ToString(a.sum)
	case query.AggAvg:
		if a.numericCount == 0 {
			return ""
		}
		return cast.ToString(a.sum / float64(a.numericCount))
	case query.AggMin:
		if !a.anySeen {
			return ""
		}
		if a.allNumeric {
			return cast.ToString(a.min)
		}
		return a.minStr
	case query.AggMax:
		if !a.anySeen {
			return ""
		}
		if a.allNumeric {
			return cast.ToString(a.max)
		}
		return a.maxStr
	default:
		return ""
	}
}

// groupAndAggregate implements: bucket rows by GROUP BY key
// (hashstructure-derived, redesign away from string concatenation),
// run each SELECT aggregate's accumulator per bucket, and emit one output row
// per bucket in first-seen order.
func groupAndAggregate(q *query.Query, groupColIdx []int, rows [][]string) ([][]string, *errs.Err) {
	var order []*bucket
	buckets := map[uint64][]*bucket{}

	for _, row := range rows {
		groupVals := make([]string, len(groupColIdx))
		for i, ci := range groupColIdx {
			groupVals[i] = row[ci]
		}
		key, err := hashstructure.Hash(groupVals, nil)
		if err != nil {
			return nil, errs.ErrProcessing.New().WithCause(err)
		}
		var b *bucket
	candidates:
		for _, cand := range buckets[key] {
			for k := range groupVals {
				if cand.groupVals[k] != groupVals[k] {
					continue candidates
				}
			}
			b = cand
			break
		}
		if b == nil {
			b = &bucket{key: key, groupVals: groupVals, aggState: map[int]*aggAccumulator{}}
			for i, item := range q.SelectFields {
				if item.Agg != query.AggNone {
					b.aggState[i] = newAccumulator(item.Agg, item.AggIsStar)
				}
			}
			buckets[key] = append(buckets[key], b)
			order = append(order, b)
		}
		b.rows = append(b.rows, row)
		for i, item := range q.SelectFields {
			if item.Agg == query.AggNone {
				continue
			}
			if item.AggIsStar {
				b.aggState[i].add("")
				continue
			}
			b.aggState[i].add(valueForAggSource(q, item, row))
		}
	}

	out := make([][]string, 0, len(order))
	for _, b := range order {
		row := make([]string, len(q.SelectFields))
		for i, item := range q.SelectFields {
			switch {
			case item.Agg != query.AggNone:
				row[i] = b.aggState[i].result()
			case isGroupByField(q, item.Field):
				// every row of the bucket holds the same value in this column
				row[i] = b.rows[0][i]
			default:
				row[i] = b.rows[0][i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// valueForAggSource finds the raw column value an aggregate's argument field
// projects to within the row, by matching against the query's SELECT list;
// COUNT/SUM/AVG/MIN/MAX always take their argument from the row the raw
// per-file expansion already produced.
func valueForAggSource(q *query.Query, item query.SelectItem, row []string) string {
	target := item.Field.String()
	for i, other := range q.SelectFields {
		if other.Agg == query.AggNone && other.Field.String() == target {
			return row[i]
		}
	}
	return ""
}

func isGroupByField(q *query.Query, f query.FieldPath) bool {
	for _, g := range q.GroupByFields {
		if g.String() == f.String() {
			return true
		}
	}
	return false
}

// groupColumnIndexes maps each GROUP BY field to its SELECT column index, in
// GROUP BY order, so groupAndAggregate can build per-bucket keys without
// re-walking the AST per row.
func groupColumnIndexes(q *query.Query) []int {
	idx := make([]int, 0, len(q.GroupByFields))
	for _, g := range q.GroupByFields {
		for i, item := range q.SelectFields {
			if item.Agg == query.AggNone && item.Field.String() == g.String() {
				idx = append(idx, i)
				break
			}
		}
	}
	return idx
}
