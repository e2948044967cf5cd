// Package engine ties parsing, DSN rewriting and execution together
// behind one entry point, wrapping the parse/rewrite/execute
// pipeline behind Engine.Query.
package engine

import (
	"context"

	"github.com/PierreBx/ariane-xml-sub000/internal/appctx"
	"github.com/PierreBx/ariane-xml-sub000/internal/dsn"
	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/executor"
	"github.com/PierreBx/ariane-xml-sub000/internal/parser"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// Engine runs one query string end-to-end against an AppContext: parse,
// DSN-rewrite when applicable, execute, return the result plus any
// warnings collected along the way.
type Engine struct {
	Ctx *appctx.AppContext
}

// New builds an Engine bound to ctx.
func New(ctx *appctx.AppContext) *Engine {
	return &Engine{Ctx: ctx}
}

// Query parses and executes text, applying the DSN rewrite pass first when
// the context is in DSN mode and a schema is loaded.
func (e *Engine) Query(runCtx context.Context, text string) (*executor.ResultSet, []*errs.Err, error) {
	q, warnings, err := parser.Parse(text, e.Ctx.Mode())
	if err != nil {
		return nil, warnings, err
	}

	if e.Ctx.Mode() == query.ModeDSN {
		if schema := e.Ctx.Schema(); schema != nil {
			warnings = append(warnings, dsn.RewriteQuery(q, schema)...)
		}
	}

	rs, rerr := executor.Run(runCtx, q, nil)
	if rerr != nil {
		return nil, warnings, rerr
	}
	rs.Warnings = append(warnings, rs.Warnings...)
	return rs, warnings, nil
}
