package xmlnav

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

func TestEvaluateNumericComparison(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]
	expr := query.NewCondition(query.FieldPath{Components: []string{"calories"}}, query.OpLt, query.Literal{Kind: query.LitNumber, Text: "700"})
	ok, werr := Evaluate(waffles, expr, nil)
	require.Nil(werr)
	require.True(ok)
}

func TestEvaluateStringComparisonFallback(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]
	expr := query.NewCondition(query.FieldPath{Components: []string{"name"}}, query.OpEq, query.Literal{Kind: query.LitString, Text: "Belgian Waffles"})
	ok, werr := Evaluate(waffles, expr, nil)
	require.Nil(werr)
	require.True(ok)
}

func TestEvaluateLogicalAndOrNot(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]

	lowCal := query.NewCondition(query.FieldPath{Components: []string{"calories"}}, query.OpLt, query.Literal{Kind: query.LitNumber, Text: "700"})
	highCal := query.NewCondition(query.FieldPath{Components: []string{"calories"}}, query.OpGt, query.Literal{Kind: query.LitNumber, Text: "1000"})

	and := query.NewLogical(query.LogAnd, lowCal, highCal)
	ok, _ := Evaluate(waffles, and, nil)
	require.False(ok)

	or := query.NewLogical(query.LogOr, lowCal, highCal)
	ok, _ = Evaluate(waffles, or, nil)
	require.True(ok)

	not := query.NewLogical(query.LogNot, highCal)
	ok, _ = Evaluate(waffles, not, nil)
	require.True(ok)
}

func TestEvaluateIsNullAndIsNotNull(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]

	isNull := query.NewCondition(query.FieldPath{Components: []string{"nutritionist_note"}}, query.OpIsNull)
	ok, _ := Evaluate(waffles, isNull, nil)
	require.True(ok)

	isNotNull := query.NewCondition(query.FieldPath{Components: []string{"name"}}, query.OpIsNotNull)
	ok, _ = Evaluate(waffles, isNotNull, nil)
	require.True(ok)
}

func TestEvaluateIn(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]
	in := query.NewCondition(query.FieldPath{Components: []string{"name"}}, query.OpIn,
		query.Literal{Kind: query.LitString, Text: "French Toast"},
		query.Literal{Kind: query.LitString, Text: "Belgian Waffles"},
	)
	ok, _ := Evaluate(waffles, in, nil)
	require.True(ok)
}

func TestEvaluateLikeSqlWildcard(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]
	like := query.NewCondition(query.FieldPath{Components: []string{"name"}}, query.OpLike,
		query.Literal{Kind: query.LitString, Text: "Belgian%"})
	ok, _ := Evaluate(waffles, like, nil)
	require.True(ok)
}

func TestEvaluateLikeRegex(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	waffles := root.Children[0]
	like := query.NewCondition(query.FieldPath{Components: []string{"name"}}, query.OpLike,
		query.Literal{Kind: query.LitRegex, Text: "^Belgian.*"})
	ok, _ := Evaluate(waffles, like, nil)
	require.True(ok)
}

func TestEvaluateVariableBindingAnchorsSearch(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	bindings := Bindings{"f": root.Children[1]}
	expr := query.NewCondition(query.FieldPath{VariableBinding: "f", Components: []string{"name"}}, query.OpEq,
		query.Literal{Kind: query.LitString, Text: "French Toast"})
	ok, werr := Evaluate(root, expr, bindings)
	require.Nil(werr)
	require.True(ok)
}

func TestEvaluateUnboundVariableErrors(t *testing.T) {
	require := require.New(t)
	root, err := Build(strings.NewReader(breakfastXML))
	require.NoError(err)
	expr := query.NewCondition(query.FieldPath{VariableBinding: "missing", Components: []string{"name"}}, query.OpEq,
		query.Literal{Kind: query.LitString, Text: "x"})
	_, werr := Evaluate(root, expr, Bindings{})
	require.NotNil(werr)
}

func TestSqlWildcardToRegex(t *testing.T) {
	require := require.New(t)
	require.Equal("^foo.*$", sqlWildcardToRegex("foo%"))
	require.Equal("^f.o$", sqlWildcardToRegex("f_o"))
}
