package executor

import (
	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
	"github.com/PierreBx/ariane-xml-sub000/internal/xmlnav"
)

// evaluateHaving implements HAVING pass: conditions compare
// against already-aggregated bucket columns (flat strings, not XML nodes),
// so it reuses xmlnav's numeric-vs-string comparison rules directly rather
// than xmlnav.Evaluate, which expects a node tree.
func evaluateHaving(q *query.Query, expr *query.WhereExpr, row []string) (bool, *errs.Err) {
	if expr == nil {
		return true, nil
	}
	switch expr.Kind {
	case query.KindLogical:
		return evaluateHavingLogical(q, expr, row)
	case query.KindCondition:
		return evaluateHavingCondition(q, expr, row)
	default:
		return false, errs.ErrProcessing.New("unknown HAVING expression kind " + expr.Kind)
	}
}

func evaluateHavingLogical(q *query.Query, expr *query.WhereExpr, row []string) (bool, *errs.Err) {
	switch expr.LogOp {
	case query.LogNot:
		v, err := evaluateHaving(q, expr.Children[0], row)
		return !v, err
	case query.LogAnd:
		for _, c := range expr.Children {
			v, err := evaluateHaving(q, c, row)
			if err != nil || !v {
				return false, err
			}
		}
		return true, nil
	case query.LogOr:
		for _, c := range expr.Children {
			v, err := evaluateHaving(q, c, row)
			if err != nil {
				return false, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errs.ErrProcessing.New("unknown logical operator " + string(expr.LogOp))
	}
}

func evaluateHavingCondition(q *query.Query, expr *query.WhereExpr, row []string) (bool, *errs.Err) {
	colIdx, err := havingColumnIndex(q, expr)
	if err != nil {
		return false, err
	}
	value := row[colIdx]

	switch expr.Op {
	case query.OpIsNull:
		return value == "", nil
	case query.OpIsNotNull:
		return value != "", nil
	case query.OpIn:
		for _, lit := range expr.RHS {
			if xmlnav.CompareEqual(value, lit.Text) {
				return true, nil
			}
		}
		return false, nil
	case query.OpLike:
		return xmlnav.MatchLike(value, expr.RHS[0])
	default:
		return xmlnav.CompareScalar(value, expr.Op, expr.RHS[0].Text)
	}
}

// havingColumnIndex finds the SELECT column a HAVING condition's left-hand
// side projects onto: either an aggregate expression like COUNT(e), or a
// bare GROUP BY field.
func havingColumnIndex(q *query.Query, expr *query.WhereExpr) (int, *errs.Err) {
	for i, item := range q.SelectFields {
		if expr.Agg != query.AggNone {
			if item.Agg == expr.Agg && item.Field.String() == expr.Field.String() {
				return i, nil
			}
			continue
		}
		if item.Agg == query.AggNone && item.Field.String() == expr.Field.String() {
			return i, nil
		}
	}
	return 0, errs.ErrProcessing.New("HAVING references a column not in the SELECT list: " + expr.Field.String())
}
