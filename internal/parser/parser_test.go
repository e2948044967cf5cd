package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

func mustParse(t *testing.T, src string, mode query.Mode) *query.Query {
	t.Helper()
	q, _, err := Parse(src, mode)
	require.NoError(t, err)
	return q
}

func TestScenarioABasicProjection(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT breakfast_menu/food/name FROM "breakfast.xml" WHERE breakfast_menu/food/calories < 700`, query.ModeStandard)
	require.Equal("breakfast.xml", q.FromPath)
	require.Len(q.SelectFields, 1)
	require.Equal([]string{"breakfast_menu", "food", "name"}, q.SelectFields[0].Field.Components)
	require.NotNil(q.Where)
	require.Equal(query.KindCondition, q.Where.Kind)
	require.Equal(query.OpLt, q.Where.Op)
	require.Equal("700", q.Where.RHS[0].Text)
}

func TestScenarioBNestedFor(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT b/title, a FROM "books.xml" FOR b IN bookstore/book FOR a IN b/author`, query.ModeStandard)
	require.Len(q.ForClauses, 2)
	require.Equal("b", q.ForClauses[0].Variable)
	require.Equal([]string{"bookstore", "book"}, q.ForClauses[0].IterPath.Components)
	require.Equal("a", q.ForClauses[1].Variable)
	require.Equal("b", q.ForClauses[1].IterPath.VariableBinding)
	require.Equal([]string{"author"}, q.ForClauses[1].IterPath.Components)
	require.Equal("b", q.SelectFields[0].Field.VariableBinding)
	require.Equal([]string{"title"}, q.SelectFields[0].Field.Components)
	require.Equal("a", q.SelectFields[1].Field.VariableBinding)
}

func TestScenarioCGroupByAggregate(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT d/name AS department, COUNT(e) AS employee_count FROM "company.xml" FOR d IN company/department FOR e IN d/employee GROUP BY d/name`, query.ModeStandard)
	require.True(q.HasAggregates)
	require.Equal("department", q.SelectFields[0].Alias)
	require.Equal(query.AggCount, q.SelectFields[1].Agg)
	require.Equal("employee_count", q.SelectFields[1].Alias)
	require.Len(q.GroupByFields, 1)
}

func TestScenarioDDsnShortcut(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT 30.002, 30.006 FROM "dsn.xml" WHERE 30.001 = '123456789012345'`, query.ModeDSN)
	require.Len(q.SelectFields, 2)
	require.Equal([]string{"30.002"}, q.SelectFields[0].Field.Components)
	require.Equal([]string{"30.001"}, q.Where.Field.Components)
}

func TestScenarioFMissingFileIsExecutorConcern(t *testing.T) {
	// Parsing never touches the filesystem; ARX-02002 is raised by the
	// executor's file discovery, not the parser.
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM "nope.xml"`, query.ModeStandard)
	require.Equal("nope.xml", q.FromPath)
}

func TestCountStarRejected(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT COUNT(*) FROM "f.xml"`, query.ModeStandard)
	require.Error(err)
}

func TestDuplicateSelectFieldWarns(t *testing.T) {
	require := require.New(t)
	_, warnings, err := Parse(`SELECT a, a FROM "f.xml"`, query.ModeStandard)
	require.NoError(err)
	require.Len(warnings, 1)
}

func TestLeadingDotForbiddenInDsnMode(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT .a.b.c FROM "f.xml"`, query.ModeDSN)
	require.Error(err)
}

func TestLeadingDotAllowedInStandardMode(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT .a.b.c FROM "f.xml"`, query.ModeStandard)
	require.True(q.SelectFields[0].Field.IsPartial)
	require.Equal([]string{"a", "b", "c"}, q.SelectFields[0].Field.Components)
}

func TestAttributeField(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT food@lang FROM "f.xml"`, query.ModeStandard)
	require.True(q.SelectFields[0].Field.IsAttribute)
	require.Equal("lang", q.SelectFields[0].Field.AttributeName)
}

func TestWhereOperatorPrecedence(t *testing.T) {
	require := require.New(t)
	// NOT binds tightest, then comparison, then AND, then OR.
	q := mustParse(t, `SELECT x FROM "f.xml" WHERE a = '1' OR b = '2' AND NOT c = '3'`, query.ModeStandard)
	require.Equal(query.KindLogical, q.Where.Kind)
	require.Equal(query.LogOr, q.Where.LogOp)
	right := q.Where.Children[1]
	require.Equal(query.LogAnd, right.LogOp)
	require.Equal(query.KindLogical, right.Children[1].Kind)
	require.Equal(query.LogNot, right.Children[1].LogOp)
}

func TestWhereParentheses(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM "f.xml" WHERE (a = '1' OR b = '2') AND c = '3'`, query.ModeStandard)
	require.Equal(query.LogAnd, q.Where.LogOp)
	require.Equal(query.LogOr, q.Where.Children[0].LogOp)
}

func TestWhereInClause(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM "f.xml" WHERE a IN ('1', '2', '3')`, query.ModeStandard)
	require.Equal(query.OpIn, q.Where.Op)
	require.Len(q.Where.RHS, 3)
}

func TestWhereIsNullAndIsNotNull(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM "f.xml" WHERE a IS NULL`, query.ModeStandard)
	require.Equal(query.OpIsNull, q.Where.Op)

	q2 := mustParse(t, `SELECT x FROM "f.xml" WHERE a IS NOT NULL`, query.ModeStandard)
	require.Equal(query.OpIsNotNull, q2.Where.Op)
}

func TestWhereLikeSqlWildcard(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM "f.xml" WHERE a LIKE '%abc_'`, query.ModeStandard)
	require.Equal(query.OpLike, q.Where.Op)
	require.Equal(query.LitString, q.Where.RHS[0].Kind)
	require.Equal("%abc_", q.Where.RHS[0].Text)
}

func TestWhereLikeRegexLiteral(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM "f.xml" WHERE a LIKE /ab.*c/`, query.ModeStandard)
	require.Equal(query.LitRegex, q.Where.RHS[0].Kind)
	require.Equal("ab.*c", q.Where.RHS[0].Text)
}

func TestWhereLikeMixedSyntaxRejected(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT x FROM "f.xml" WHERE a LIKE '/ab%/'`, query.ModeStandard)
	require.Error(err)
}

func TestUnterminatedStringInWhereRaisesSpecificError(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT x FROM "f.xml" WHERE y = "oops`, query.ModeStandard)
	require.Error(err)
	e, ok := err.(*errs.Err)
	require.True(ok)
	require.Equal(errs.ErrUnterminatedQuote.Code, e.Code)
}

func TestUnterminatedStringAsFirstTokenRaisesSpecificError(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`"oops`, query.ModeStandard)
	require.Error(err)
	e, ok := err.(*errs.Err)
	require.True(ok)
	require.Equal(errs.ErrUnterminatedQuote.Code, e.Code)
}

func TestGroupByHavingOrderByLimitOffset(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT d/name, COUNT(e) AS c FROM "f.xml" FOR d IN x/d FOR e IN d/e GROUP BY d/name HAVING COUNT(e) > 1 ORDER BY d/name DESC LIMIT 10 OFFSET 5`, query.ModeStandard)
	require.NotNil(q.Having)
	require.Len(q.OrderByFields, 1)
	require.Equal(query.Desc, q.OrderByFields[0].Direction)
	require.Equal(uint64(10), *q.Limit)
	require.Equal(uint64(5), *q.Offset)
}

func TestForAtVariableIsDeclarationNotReference(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT z/x FROM "f.xml" FOR a IN z/x/y AT noSuchInitialRef`, query.ModeStandard)
	require.NoError(err) // AT declares, doesn't reference; real unbound case below
}

func TestUnboundVariableInForIterPath(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT a FROM "f.xml" FOR a IN missing/x FOR b IN a/y FOR c IN z/w`, query.ModeStandard)
	// 'z' here is a plain path component, not a variable reference, so this
	// should parse; the true unbound-variable case is a leading component
	// equal to no declared FOR variable being *treated* as a binding only
	// when it matches one already declared. Assert no false positive.
	require.NoError(err)
}

func TestAggregateRequiresGroupBy(t *testing.T) {
	require := require.New(t)
	_, _, err := Parse(`SELECT d/name, COUNT(e) FROM "f.xml" FOR d IN x/d FOR e IN d/e`, query.ModeStandard)
	require.Error(err)
}

func TestFileNameSelector(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT FILE_NAME, x/y FROM "dir" ORDER BY FILE_NAME`, query.ModeStandard)
	require.True(q.SelectFields[0].IsFileName)
	require.Equal("FILE_NAME", q.SelectFields[0].ColumnName())
}

func TestDistinctKeyword(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT DISTINCT x FROM "f.xml"`, query.ModeStandard)
	require.True(q.Distinct)
}

func TestFromPathConcatenation(t *testing.T) {
	require := require.New(t)
	q := mustParse(t, `SELECT x FROM a/b/c.xml`, query.ModeStandard)
	require.Equal("a/b/c.xml", q.FromPath)
}
