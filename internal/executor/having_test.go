package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

func havingQuery() *query.Query {
	return &query.Query{
		SelectFields: []query.SelectItem{
			{Field: query.FieldPath{Components: []string{"category"}}},
			{Agg: query.AggCount, AggIsStar: true},
		},
	}
}

func TestEvaluateHavingAggregateThreshold(t *testing.T) {
	require := require.New(t)
	q := havingQuery()
	having := query.NewCondition(query.FieldPath{}, query.OpGt, query.Literal{Kind: query.LitNumber, Text: "1"})
	having.Agg = query.AggCount

	ok, err := evaluateHaving(q, having, []string{"fiction", "2"})
	require.Nil(err)
	require.True(ok)

	ok, err = evaluateHaving(q, having, []string{"reference", "1"})
	require.Nil(err)
	require.False(ok)
}

func TestEvaluateHavingGroupByField(t *testing.T) {
	require := require.New(t)
	q := havingQuery()
	having := query.NewCondition(query.FieldPath{Components: []string{"category"}}, query.OpEq,
		query.Literal{Kind: query.LitString, Text: "fiction"})

	ok, err := evaluateHaving(q, having, []string{"fiction", "2"})
	require.Nil(err)
	require.True(ok)
}

func TestEvaluateHavingLogicalAnd(t *testing.T) {
	require := require.New(t)
	q := havingQuery()
	countGt1 := query.NewCondition(query.FieldPath{}, query.OpGt, query.Literal{Kind: query.LitNumber, Text: "1"})
	countGt1.Agg = query.AggCount
	isFiction := query.NewCondition(query.FieldPath{Components: []string{"category"}}, query.OpEq,
		query.Literal{Kind: query.LitString, Text: "fiction"})

	and := query.NewLogical(query.LogAnd, countGt1, isFiction)
	ok, err := evaluateHaving(q, and, []string{"fiction", "2"})
	require.Nil(err)
	require.True(ok)

	ok, err = evaluateHaving(q, and, []string{"reference", "2"})
	require.Nil(err)
	require.False(ok)
}

func TestEvaluateHavingUnknownColumnErrors(t *testing.T) {
	require := require.New(t)
	q := havingQuery()
	having := query.NewCondition(query.FieldPath{Components: []string{"missing"}}, query.OpEq,
		query.Literal{Kind: query.LitString, Text: "x"})
	_, err := evaluateHaving(q, having, []string{"fiction", "2"})
	require.NotNil(err)
}
