package xmlnav

import (
	"regexp"
	"strings"
	"sync"

	"github.com/spf13/cast"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// regexCache memoizes compiled LIKE patterns by their source text; sync.Map
// fits the read-mostly, many-goroutine access pattern of the executor's
// worker pool.
var regexCache sync.Map // pattern text -> *regexp.Regexp

// Bindings maps a FOR-loop variable to the node it is currently anchored to.
type Bindings map[string]*Node

// Evaluate recursively evaluates a WHERE/HAVING expression against a node
// tree. Conditions look up their field using either a
// FOR-variable binding (search anchored at the bound node) or a file-
// relative search rooted at doc.
func Evaluate(doc *Node, expr *query.WhereExpr, bindings Bindings) (bool, *errs.Err) {
	if expr == nil {
		return true, nil
	}
	switch expr.Kind {
	case query.KindLogical:
		return evaluateLogical(doc, expr, bindings)
	case query.KindCondition:
		return evaluateCondition(doc, expr, bindings)
	default:
		return false, errs.ErrProcessing.New("unknown WHERE expression kind " + expr.Kind)
	}
}

func evaluateLogical(doc *Node, expr *query.WhereExpr, bindings Bindings) (bool, *errs.Err) {
	switch expr.LogOp {
	case query.LogNot:
		v, err := Evaluate(doc, expr.Children[0], bindings)
		if err != nil {
			return false, err
		}
		return !v, nil
	case query.LogAnd:
		for _, c := range expr.Children {
			v, err := Evaluate(doc, c, bindings)
			if err != nil {
				return false, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case query.LogOr:
		for _, c := range expr.Children {
			v, err := Evaluate(doc, c, bindings)
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

func evaluateCondition(doc *Node, expr *query.WhereExpr, bindings Bindings) (bool, *errs.Err) {
	anchor := doc
	if expr.Field.VariableBinding != "" {
		b, ok := bindings[expr.Field.VariableBinding]
		if !ok {
			return false, errs.ErrUnboundVariable.New(expr.Field.VariableBinding)
		}
		anchor = b
	}

	values, warn := resolveFieldValue(doc, anchor, expr.Field)
	_ = warn // ambiguity during WHERE evaluation is non-fatal; the SELECT-side warning already surfaces it

	switch expr.Op {
	case query.OpIsNull:
		return len(values) == 0, nil
	case query.OpIsNotNull:
		return len(values) != 0, nil
	}

	if len(values) == 0 {
		return false, nil
	}
	value := values[0]

	switch expr.Op {
	case query.OpIn:
		for _, lit := range expr.RHS {
			if compareEqual(value, lit.Text) {
				return true, nil
			}
		}
		return false, nil
	case query.OpLike:
		return matchLike(value, expr.RHS[0])
	default:
		return compareScalar(value, expr.Op, expr.RHS[0].Text)
	}
}

// resolveFieldValue searches for a condition's field value, anchored at the
// bound node when the field has a variable binding, or file-relative
// otherwise.
func resolveFieldValue(doc, anchor *Node, field query.FieldPath) ([]string, *errs.Err) {
	if len(field.Components) == 0 {
		v, ok := GetNodeValue(anchor, field)
		if !ok {
			return nil, nil
		}
		return []string{v}, nil
	}

	var matches []*Node
	if field.IsPartial || field.VariableBinding != "" {
		matches = FindNodesByPartialPath(anchor, field.Components)
	} else {
		matches = FindNodesByPartialPath(doc, field.Components)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	var warn *errs.Err
	if len(matches) > 1 {
		warn = ambiguityWarning(anchor, matches)
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		v, ok := GetNodeValue(m, field)
		if ok {
			out = append(out, v)
		}
	}
	return out, warn
}

// compareScalar attempts a numeric comparison when both operands parse as
// numbers, else falls back to a string comparison.
func compareScalar(lhs string, op query.CompareOp, rhs string) (bool, *errs.Err) {
	lf, lerr := cast.ToFloat64E(lhs)
	rf, rerr := cast.ToFloat64E(rhs)
	if lerr == nil && rerr == nil {
		return compareOrdered(lf, rf, op), nil
	}
	return compareOrderedString(lhs, rhs, op), nil
}

func compareEqual(lhs, rhs string) bool {
	lf, lerr := cast.ToFloat64E(lhs)
	rf, rerr := cast.ToFloat64E(rhs)
	if lerr == nil && rerr == nil {
		return lf == rf
	}
	return lhs == rhs
}

func compareOrdered[T int | float64](a, b T, op query.CompareOp) bool {
	switch op {
	case query.OpEq:
		return a == b
	case query.OpNeq:
		return a != b
	case query.OpLt:
		return a < b
	case query.OpGt:
		return a > b
	case query.OpLte:
		return a <= b
	case query.OpGte:
		return a >= b
	default:
		return false
	}
}

func compareOrderedString(a, b string, op query.CompareOp) bool {
	switch op {
	case query.OpEq:
		return a == b
	case query.OpNeq:
		return a != b
	case query.OpLt:
		return a < b
	case query.OpGt:
		return a > b
	case query.OpLte:
		return a <= b
	case query.OpGte:
		return a >= b
	default:
		return false
	}
}

// matchLike converts a SQL wildcard pattern to a regex, or uses a regex
// literal verbatim, compiling and caching by pattern text.
func matchLike(value string, lit query.Literal) (bool, *errs.Err) {
	var pattern string
	if lit.Kind == query.LitRegex {
		pattern = lit.Text
	} else {
		pattern = sqlWildcardToRegex(lit.Text)
	}

	re, err := compiledPattern(pattern)
	if err != nil {
		return false, errs.ErrProcessing.New().WithCause(err)
	}
	return re.MatchString(value), nil
}

func compiledPattern(pattern string) (*regexp.Regexp, error) {
	if cached, ok := regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	regexCache.Store(pattern, re)
	return re, nil
}

// CompareScalar exports the numeric-vs-string comparison rule for callers
// outside the node tree (internal/executor's HAVING evaluation over
// aggregated bucket values).
func CompareScalar(lhs string, op query.CompareOp, rhs string) (bool, *errs.Err) {
	return compareScalar(lhs, op, rhs)
}

// CompareEqual exports the numeric-vs-string equality rule IN relies on.
func CompareEqual(lhs, rhs string) bool {
	return compareEqual(lhs, rhs)
}

// MatchLike exports LIKE pattern matching for bucket-level HAVING evaluation.
func MatchLike(value string, lit query.Literal) (bool, *errs.Err) {
	return matchLike(value, lit)
}

// sqlWildcardToRegex translates SQL LIKE wildcards (% and _) into a regex,
// escaping every other character literally.
func sqlWildcardToRegex(pattern string) string {
	var sb strings.Builder
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	return sb.String()
}
