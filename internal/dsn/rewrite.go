package dsn

import (
	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// RewriteQuery applies the DSN rewrite pass to every FieldPath
// reachable from q: SELECT items, WHERE/HAVING, GROUP BY, ORDER BY and FOR
// clauses. Only called when mode=DSN and a schema is loaded.
func RewriteQuery(q *query.Query, schema *Schema) []*errs.Err {
	var warnings []*errs.Err
	rewrite := func(fp *query.FieldPath) {
		warnings = append(warnings, rewriteFieldPath(fp, schema)...)
	}

	for i := range q.SelectFields {
		rewrite(&q.SelectFields[i].Field)
	}
	for i := range q.ForClauses {
		rewrite(&q.ForClauses[i].IterPath)
	}
	rewriteWhere(q.Where, schema, &warnings)
	for i := range q.GroupByFields {
		rewrite(&q.GroupByFields[i])
	}
	rewriteWhere(q.Having, schema, &warnings)
	for i := range q.OrderByFields {
		rewrite(&q.OrderByFields[i].Field)
	}
	return warnings
}

func rewriteWhere(expr *query.WhereExpr, schema *Schema, warnings *[]*errs.Err) {
	if expr == nil {
		return
	}
	if expr.Kind == query.KindLogical {
		for _, c := range expr.Children {
			rewriteWhere(c, schema, warnings)
		}
		return
	}
	*warnings = append(*warnings, rewriteFieldPath(&expr.Field, schema)...)
}

// rewriteFieldPath resolves every component of fp matching the DSN
// short-id pattern, in place, applying four rewrite rules.
func rewriteFieldPath(fp *query.FieldPath, schema *Schema) []*errs.Err {
	var warnings []*errs.Err
	prior := ""
	for i, comp := range fp.Components {
		if !ShortIDPattern.MatchString(comp) {
			prior = comp
			continue
		}
		result := schema.Resolve(comp, prior)
		fp.Components[i] = result.FullName
		if result.Ambiguous {
			warnings = append(warnings, errs.ErrDSNAmbiguousShortcut.New(comp).WithCandidates(result.Candidates...))
		}
		prior = result.FullName
	}
	return warnings
}
