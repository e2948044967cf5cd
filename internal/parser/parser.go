// Package parser implements the recursive-descent parser // grounded on ha1tch/tsqlparser/parser's shape: a Parser wraps a lexer,
// keeps one token of lookahead, and each parseXxx method returns
// (node, error).
package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/lexer"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// dottedShortcut matches a DSN shortcut written with a dot separator, e.g.
// "30.002". The lexer cannot tell
// this apart from a plain decimal number (both are NUMBER tokens), so
// parseFieldPath re-classifies a NUMBER token shaped like this as a path
// component instead of a literal; underscore-separated shortcuts like
// "30_001" never reach here because the lexer already lexes them as IDENT.
var dottedShortcut = regexp.MustCompile(`^\d{2,}\.\d{3,}$`)

// Parser consumes a token stream and builds a query.Query. It keeps only a
// single current token (no lookahead buffer): prefetching a second token
// would advance the lexer's raw cursor past the start of a /regex/ LIKE
// literal before the parser gets a chance to hand that cursor to
// Lexer.ReadRegexLiteral, so lookahead is strictly one token at a time.
type Parser struct {
	lx   *lexer.Lexer
	mode query.Mode

	cur lexer.Token

	forVars  map[string]bool
	warnings []*errs.Err
}

// New creates a Parser for src under the given mode (AppContext.mode governs
// whether leading-dot partial paths are legal).
func New(src string, mode query.Mode) *Parser {
	p := &Parser{lx: lexer.New(src), mode: mode, forVars: map[string]bool{}}
	p.next()
	return p
}

func (p *Parser) next() {
	p.cur = p.lx.NextToken()
}

// Warnings returns non-fatal parse warnings collected so far (e.g. duplicate
// SELECT fields, ARX-01004).
func (p *Parser) Warnings() []*errs.Err { return p.warnings }

func (p *Parser) warn(e *errs.Err) { p.warnings = append(p.warnings, e) }

func (p *Parser) loc() errs.Location {
	return errs.Location{Line: p.cur.Line, Column: p.cur.Col, Set: true}
}

func (p *Parser) errorf(entry *errs.Entry, args ...interface{}) error {
	return entry.NewAt(p.loc(), args...)
}

// illegalTokenErr turns the current ILLEGAL token into its specific error if
// the lexer attached one (e.g. an unterminated string literal), falling back
// to the generic invalid-character error otherwise. Call this wherever a
// literal or value token is expected, not just at the start of a query.
func (p *Parser) illegalTokenErr() error {
	if p.cur.Err != nil {
		return p.cur.Err
	}
	return p.errorf(errs.ErrInvalidCharacter, p.cur.Literal)
}

// Parse parses a single SELECT query from src. The returned error, if any,
// is always an *errs.Err carrying the failing token's source location.
func Parse(src string, mode query.Mode) (*query.Query, []*errs.Err, error) {
	p := New(src, mode)
	q, err := p.parseQuery()
	if err != nil {
		return nil, p.warnings, err
	}
	return q, p.warnings, nil
}

func (p *Parser) parseQuery() (*query.Query, error) {
	if p.cur.Type == lexer.ILLEGAL {
		return nil, p.illegalTokenErr()
	}
	if p.cur.Type != lexer.SELECT {
		return nil, p.errorf(errs.ErrProcessing, "expected SELECT, got "+p.cur.Type.String())
	}
	p.next()

	q := &query.Query{}
	if p.cur.Type == lexer.DISTINCT {
		q.Distinct = true
		p.next()
	}

	fields, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	q.SelectFields = fields

	if p.cur.Type != lexer.FROM {
		return nil, p.errorf(errs.ErrFromEmpty)
	}
	p.next()
	fromPath, err := p.parseFromPath()
	if err != nil {
		return nil, err
	}
	q.FromPath = fromPath

	for p.cur.Type == lexer.FOR {
		fc, err := p.parseForClause()
		if err != nil {
			return nil, err
		}
		q.ForClauses = append(q.ForClauses, fc)
	}
	// SELECT is parsed before any FOR clause exists, so field paths there
	// couldn't have their leading component recognized as a variable
	// reference at the time; fix that up now that forVars is complete.
	p.reclassifySelectFieldBindings(q)

	if p.cur.Type == lexer.WHERE {
		p.next()
		where, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		q.Where = where
	}

	if p.cur.Type == lexer.GROUP {
		p.next()
		if p.cur.Type != lexer.BY {
			return nil, p.errorf(errs.ErrProcessing, "expected BY after GROUP")
		}
		p.next()
		groupBy, err := p.parseFieldPathList()
		if err != nil {
			return nil, err
		}
		q.GroupByFields = groupBy
	}

	if p.cur.Type == lexer.HAVING {
		p.next()
		having, err := p.parseWhereExpr()
		if err != nil {
			return nil, err
		}
		q.Having = having
	}

	if p.cur.Type == lexer.ORDER {
		p.next()
		if p.cur.Type != lexer.BY {
			return nil, p.errorf(errs.ErrProcessing, "expected BY after ORDER")
		}
		p.next()
		orderBy, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		q.OrderByFields = orderBy
	}

	if p.cur.Type == lexer.LIMIT {
		p.next()
		n, err := p.parseUint()
		if err != nil {
			return nil, err
		}
		q.Limit = &n
	}

	if p.cur.Type == lexer.OFFSET {
		p.next()
		n, err := p.parseUint()
		if err != nil {
			return nil, err
		}
		q.Offset = &n
	}

	if p.cur.Type != lexer.EOF {
		return nil, p.errorf(errs.ErrProcessing, "unexpected trailing input near "+p.cur.Literal)
	}

	q.HasAggregates = hasAggregates(q.SelectFields)
	if err := p.validateScopes(q); err != nil {
		return nil, err
	}

	return q, nil
}

func hasAggregates(fields []query.SelectItem) bool {
	for _, f := range fields {
		if f.Agg != query.AggNone {
			return true
		}
	}
	return false
}

func (p *Parser) parseUint() (uint64, error) {
	if p.cur.Type != lexer.NUMBER {
		return 0, p.errorf(errs.ErrProcessing, "expected a number, got "+p.cur.Literal)
	}
	n, err := strconv.ParseUint(p.cur.Literal, 10, 64)
	if err != nil {
		return 0, p.errorf(errs.ErrProcessing, "invalid integer literal "+p.cur.Literal)
	}
	p.next()
	return n, nil
}

// --- SELECT list -----------------------------------------------------------

func (p *Parser) parseSelectList() ([]query.SelectItem, error) {
	var items []query.SelectItem
	seen := map[string]bool{}
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		name := item.ColumnName()
		if seen[name] {
			p.warn(errs.ErrDuplicateSelectField.New(name))
		}
		seen[name] = true
		items = append(items, item)
		if p.cur.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSelectItem() (query.SelectItem, error) {
	switch p.cur.Type {
	case lexer.STAR:
		p.next()
		return query.SelectItem{Field: query.FieldPath{Components: []string{"*"}}}, nil
	case lexer.FILE_NAME:
		p.next()
		item := query.SelectItem{IsFileName: true}
		return p.parseOptionalAlias(item)
	case lexer.COUNT, lexer.SUM, lexer.AVG, lexer.MIN, lexer.MAX:
		return p.parseAggregate()
	default:
		fp, err := p.parseFieldPath()
		if err != nil {
			return query.SelectItem{}, err
		}
		return p.parseOptionalAlias(query.SelectItem{Field: fp})
	}
}

func (p *Parser) parseOptionalAlias(item query.SelectItem) (query.SelectItem, error) {
	if p.cur.Type == lexer.AS {
		p.next()
		if p.cur.Type != lexer.IDENT {
			return item, p.errorf(errs.ErrProcessing, "expected alias identifier after AS")
		}
		item.Alias = p.cur.Literal
		p.next()
	}
	return item, nil
}

var aggByToken = map[lexer.Type]query.AggFunc{
	lexer.COUNT: query.AggCount,
	lexer.SUM:   query.AggSum,
	lexer.AVG:   query.AggAvg,
	lexer.MIN:   query.AggMin,
	lexer.MAX:   query.AggMax,
}

func (p *Parser) parseAggregate() (query.SelectItem, error) {
	fn := aggByToken[p.cur.Type]
	p.next()
	if p.cur.Type != lexer.LPAREN {
		return query.SelectItem{}, p.errorf(errs.ErrProcessing, "expected ( after "+string(fn))
	}
	p.next()

	item := query.SelectItem{Agg: fn}
	if p.cur.Type == lexer.STAR {
		if fn == query.AggCount {
			return query.SelectItem{}, p.errorf(errs.ErrCountStar)
		}
		item.AggIsStar = true
		p.next()
	} else {
		fp, err := p.parseFieldPath()
		if err != nil {
			return query.SelectItem{}, err
		}
		item.Field = fp
	}

	if p.cur.Type != lexer.RPAREN {
		return query.SelectItem{}, p.errorf(errs.ErrProcessing, "expected ) to close "+string(fn)+"(")
	}
	p.next()
	return p.parseOptionalAlias(item)
}

// --- FROM --------------------------------------------------------------

// clauseStarters are the tokens that terminate a FROM path: collect tokens
// until the next recognized clause keyword.
var clauseStarters = map[lexer.Type]bool{
	lexer.FOR: true, lexer.WHERE: true, lexer.GROUP: true, lexer.HAVING: true,
	lexer.ORDER: true, lexer.LIMIT: true, lexer.OFFSET: true, lexer.EOF: true,
}

func (p *Parser) parseFromPath() (string, error) {
	var sb strings.Builder
	for !clauseStarters[p.cur.Type] {
		switch p.cur.Type {
		case lexer.DOT, lexer.SLASH:
			sb.WriteString(p.cur.Literal)
		case lexer.IDENT, lexer.NUMBER:
			sb.WriteString(p.cur.Literal)
		case lexer.STRING:
			sb.WriteString(p.cur.Literal)
		case lexer.ILLEGAL:
			return "", p.illegalTokenErr()
		default:
			return "", p.errorf(errs.ErrFromEmpty)
		}
		p.next()
	}
	if sb.Len() == 0 {
		return "", p.errorf(errs.ErrFromEmpty)
	}
	return sb.String(), nil
}

// --- FOR -----------------------------------------------------------------

func (p *Parser) parseForClause() (query.ForClause, error) {
	p.next() // consume FOR
	if p.cur.Type != lexer.IDENT {
		return query.ForClause{}, p.errorf(errs.ErrInvalidForClause)
	}
	variable := p.cur.Literal
	p.next()
	if p.cur.Type != lexer.IN {
		return query.ForClause{}, p.errorf(errs.ErrInvalidForClause)
	}
	p.next()
	path, err := p.parseFieldPath()
	if err != nil {
		return query.ForClause{}, err
	}
	fc := query.ForClause{Variable: variable, IterPath: path}
	if p.cur.Type == lexer.AT_KW {
		p.next()
		if p.cur.Type != lexer.IDENT {
			return query.ForClause{}, p.errorf(errs.ErrInvalidForClause)
		}
		fc.PositionVar = p.cur.Literal
		p.forVars[fc.PositionVar] = true
		p.next()
	}
	p.forVars[variable] = true
	return fc, nil
}

// --- field paths -----------------------------------------------------------

func (p *Parser) parseFieldPath() (query.FieldPath, error) {
	if p.cur.Type == lexer.ILLEGAL {
		return query.FieldPath{}, p.illegalTokenErr()
	}
	var fp query.FieldPath
	if p.cur.Type == lexer.DOT {
		if p.mode == query.ModeDSN {
			return query.FieldPath{}, p.errorf(errs.ErrLeadingDotForbidden)
		}
		fp.IsPartial = true
		p.next()
	}

	first := true
	for {
		isShortcutNumber := p.cur.Type == lexer.NUMBER && dottedShortcut.MatchString(p.cur.Literal)
		if p.cur.Type != lexer.IDENT && !isShortcutNumber {
			break
		}
		comp := p.cur.Literal
		p.next()
		if first && p.forVars[comp] {
			fp.VariableBinding = comp
		} else {
			fp.Components = append(fp.Components, comp)
		}
		first = false
		if p.cur.Type == lexer.SLASH || p.cur.Type == lexer.DOT {
			p.next()
			continue
		}
		break
	}

	if len(fp.Components) == 0 && fp.VariableBinding == "" {
		return query.FieldPath{}, p.errorf(errs.ErrProcessing, "expected a field path")
	}

	if p.cur.Type == lexer.AT {
		p.next()
		if p.cur.Type != lexer.IDENT {
			return query.FieldPath{}, p.errorf(errs.ErrProcessing, "expected attribute name after @")
		}
		fp.IsAttribute = true
		fp.AttributeName = p.cur.Literal
		p.next()
	}
	return fp, nil
}

// reclassifySelectFieldBindings moves a leading path component into
// VariableBinding wherever it names a FOR variable, for SELECT items parsed
// before the FOR clauses declaring them were seen.
func (p *Parser) reclassifySelectFieldBindings(q *query.Query) {
	for i := range q.SelectFields {
		fp := &q.SelectFields[i].Field
		if fp.VariableBinding == "" && len(fp.Components) > 0 && p.forVars[fp.Components[0]] {
			fp.VariableBinding = fp.Components[0]
			fp.Components = fp.Components[1:]
		}
	}
}

func (p *Parser) parseFieldPathList() ([]query.FieldPath, error) {
	var out []query.FieldPath
	for {
		fp, err := p.parseFieldPath()
		if err != nil {
			return nil, err
		}
		out = append(out, fp)
		if p.cur.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	return out, nil
}

func (p *Parser) parseOrderByList() ([]query.OrderField, error) {
	var out []query.OrderField
	for {
		var fp query.FieldPath
		isFileName := false
		if p.cur.Type == lexer.FILE_NAME {
			isFileName = true
			p.next()
		} else {
			var err error
			fp, err = p.parseFieldPath()
			if err != nil {
				return nil, err
			}
		}
		dir := query.Asc
		switch p.cur.Type {
		case lexer.ASC:
			p.next()
		case lexer.DESC:
			dir = query.Desc
			p.next()
		}
		out = append(out, query.OrderField{Field: fp, IsFileName: isFileName, Direction: dir})
		if p.cur.Type == lexer.COMMA {
			p.next()
			continue
		}
		break
	}
	return out, nil
}

// --- WHERE / HAVING expressions --------------------------------------------
//
// Precedence: NOT binds tightest, then comparison, then AND,
// then OR; parentheses group.

func (p *Parser) parseWhereExpr() (*query.WhereExpr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (*query.WhereExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.OR {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = query.NewLogical(query.LogOr, left, right)
	}
	return left, nil
}

func (p *Parser) parseAnd() (*query.WhereExpr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur.Type == lexer.AND {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = query.NewLogical(query.LogAnd, left, right)
	}
	return left, nil
}

func (p *Parser) parseNot() (*query.WhereExpr, error) {
	if p.cur.Type == lexer.NOT {
		p.next()
		child, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return query.NewLogical(query.LogNot, child), nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (*query.WhereExpr, error) {
	if p.cur.Type == lexer.LPAREN {
		p.next()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.cur.Type != lexer.RPAREN {
			return nil, p.errorf(errs.ErrProcessing, "expected ) to close (")
		}
		p.next()
		return expr, nil
	}
	return p.parseCondition()
}

func (p *Parser) parseCondition() (*query.WhereExpr, error) {
	fp, agg, err := p.parseConditionLHS()
	if err != nil {
		return nil, err
	}

	var expr *query.WhereExpr
	switch p.cur.Type {
	case lexer.IS:
		p.next()
		neg := false
		if p.cur.Type == lexer.NOT {
			neg = true
			p.next()
		}
		if p.cur.Type != lexer.NULL {
			return nil, p.errorf(errs.ErrProcessing, "expected NULL after IS [NOT]")
		}
		p.next()
		op := query.OpIsNull
		if neg {
			op = query.OpIsNotNull
		}
		expr = query.NewCondition(fp, op)

	case lexer.IN:
		p.next()
		if p.cur.Type != lexer.LPAREN {
			return nil, p.errorf(errs.ErrProcessing, "expected ( after IN")
		}
		p.next()
		var lits []query.Literal
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return nil, err
			}
			lits = append(lits, lit)
			if p.cur.Type == lexer.COMMA {
				p.next()
				continue
			}
			break
		}
		if p.cur.Type != lexer.RPAREN {
			return nil, p.errorf(errs.ErrProcessing, "expected ) to close IN (")
		}
		p.next()
		expr = query.NewCondition(fp, query.OpIn, lits...)

	case lexer.LIKE:
		p.next()
		lit, err := p.parseLikePattern()
		if err != nil {
			return nil, err
		}
		expr = query.NewCondition(fp, query.OpLike, lit)

	default:
		op, ok := compareOpFor(p.cur.Type)
		if !ok {
			return nil, p.errorf(errs.ErrProcessing, "expected a comparison operator, got "+p.cur.Type.String())
		}
		p.next()
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		expr = query.NewCondition(fp, op, lit)
	}

	expr.Agg = agg
	return expr, nil
}

// parseConditionLHS parses the left-hand side of a WHERE/HAVING condition:
// ordinarily a field path, but HAVING may also compare an aggregate
// expression such as COUNT(e).
func (p *Parser) parseConditionLHS() (query.FieldPath, query.AggFunc, error) {
	fn, isAgg := aggByToken[p.cur.Type]
	if !isAgg {
		fp, err := p.parseFieldPath()
		return fp, query.AggNone, err
	}
	p.next()
	if p.cur.Type != lexer.LPAREN {
		return query.FieldPath{}, query.AggNone, p.errorf(errs.ErrProcessing, "expected ( after "+string(fn))
	}
	p.next()
	var fp query.FieldPath
	if p.cur.Type == lexer.STAR {
		if fn == query.AggCount {
			return query.FieldPath{}, query.AggNone, p.errorf(errs.ErrCountStar)
		}
		p.next()
	} else {
		var err error
		fp, err = p.parseFieldPath()
		if err != nil {
			return query.FieldPath{}, query.AggNone, err
		}
	}
	if p.cur.Type != lexer.RPAREN {
		return query.FieldPath{}, query.AggNone, p.errorf(errs.ErrProcessing, "expected ) to close "+string(fn)+"(")
	}
	p.next()
	return fp, fn, nil
}

func compareOpFor(t lexer.Type) (query.CompareOp, bool) {
	switch t {
	case lexer.EQ:
		return query.OpEq, true
	case lexer.NEQ:
		return query.OpNeq, true
	case lexer.LT:
		return query.OpLt, true
	case lexer.GT:
		return query.OpGt, true
	case lexer.LTE:
		return query.OpLte, true
	case lexer.GTE:
		return query.OpGte, true
	default:
		return "", false
	}
}

func (p *Parser) parseLiteral() (query.Literal, error) {
	switch p.cur.Type {
	case lexer.ILLEGAL:
		return query.Literal{}, p.illegalTokenErr()
	case lexer.STRING:
		lit := query.Literal{Kind: query.LitString, Text: p.cur.Literal}
		p.next()
		return lit, nil
	case lexer.NUMBER:
		lit := query.Literal{Kind: query.LitNumber, Text: p.cur.Literal}
		p.next()
		return lit, nil
	default:
		return query.Literal{}, p.errorf(errs.ErrProcessing, "expected a literal, got "+p.cur.Type.String())
	}
}

// parseLikePattern picks between LIKE's two wildcard forms: a leading SLASH
// token selects the regex form
// (delimited, matched verbatim); anything else must be a quoted SQL-wildcard
// string. Mixing the two forms (e.g. a regex-looking string literal) is
// rejected with ARX-03006 so the two syntaxes are never ambiguous.
func (p *Parser) parseLikePattern() (query.Literal, error) {
	if p.cur.Type == lexer.SLASH {
		// p.cur==SLASH means the lexer's raw cursor sits right after the
		// opening '/'; read the regex body from there before advancing the
		// token stream any further.
		pattern, err := p.lx.ReadRegexLiteral()
		if err != nil {
			return query.Literal{}, err
		}
		p.next()
		return query.Literal{Kind: query.LitRegex, Text: pattern}, nil
	}
	if p.cur.Type == lexer.ILLEGAL {
		return query.Literal{}, p.illegalTokenErr()
	}
	if p.cur.Type != lexer.STRING {
		return query.Literal{}, p.errorf(errs.ErrProcessing, "expected a LIKE pattern")
	}
	text := p.cur.Literal
	if strings.HasPrefix(text, "/") && strings.HasSuffix(text, "/") && len(text) > 1 {
		return query.Literal{}, p.errorf(errs.ErrMixedLikeSyntax)
	}
	p.next()
	return query.Literal{Kind: query.LitString, Text: text}, nil
}

// --- scope validation --------------------------------------------------

// validateScopes enforces scoping rules: FOR-variable references must be
// declared by an earlier FOR clause, aggregate queries must group every
// non-aggregate SELECT field, and HAVING may only reference grouped fields
// or aggregates.
func (p *Parser) validateScopes(q *query.Query) error {
	declared := map[string]bool{}
	for _, fc := range q.ForClauses {
		if fc.IterPath.VariableBinding != "" && !declared[fc.IterPath.VariableBinding] {
			return errs.ErrUnboundVariable.NewAt(p.loc(), fc.IterPath.VariableBinding)
		}
		declared[fc.Variable] = true
		if fc.PositionVar != "" {
			declared[fc.PositionVar] = true
		}
	}
	for _, item := range q.SelectFields {
		if item.Field.VariableBinding != "" && !declared[item.Field.VariableBinding] {
			return errs.ErrUnboundVariable.NewAt(p.loc(), item.Field.VariableBinding)
		}
	}

	if !q.HasAggregates {
		return nil
	}

	grouped := map[string]bool{}
	for _, g := range q.GroupByFields {
		grouped[g.String()] = true
	}
	for _, item := range q.SelectFields {
		if item.Agg != query.AggNone || item.IsFileName {
			continue
		}
		if !grouped[item.Field.String()] {
			return errs.ErrUngroupedField.NewAt(p.loc(), item.Field.String())
		}
	}
	return nil
}
