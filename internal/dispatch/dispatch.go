// Package dispatch recognizes the sibling command surface
// (SET/SHOW/DESCRIBE) before falling through to the query parser.
package dispatch

import (
	"strings"

	"github.com/google/shlex"

	"github.com/PierreBx/ariane-xml-sub000/internal/appctx"
	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// Result is the outcome of dispatching one line of input: either a command
// was recognized and handled (Output carries its text reply), or it wasn't,
// and IsQuery signals the caller should hand Remainder to the query parser.
type Result struct {
	IsQuery   bool
	Remainder string
	Output    string
	Warnings  []*errs.Err
}

// Dispatch tries to interpret line as a SET/SHOW/DESCRIBE command against
// ctx. Anything it doesn't recognize is returned as a query for the caller
// to parse.
func Dispatch(ctx *appctx.AppContext, line string) (*Result, *errs.Err) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return &Result{IsQuery: true, Remainder: line}, nil
	}

	tokens, err := shlex.Split(trimmed)
	if err != nil || len(tokens) == 0 {
		return &Result{IsQuery: true, Remainder: line}, nil
	}

	switch strings.ToUpper(tokens[0]) {
	case "SET":
		return dispatchSet(ctx, tokens[1:])
	case "SHOW":
		return dispatchShow(ctx, tokens[1:])
	case "DESCRIBE":
		return dispatchDescribe(ctx, tokens[1:])
	default:
		return &Result{IsQuery: true, Remainder: line}, nil
	}
}

func dispatchSet(ctx *appctx.AppContext, args []string) (*Result, *errs.Err) {
	if len(args) == 0 || (len(args) < 2 && !strings.EqualFold(args[0], "VERBOSE")) {
		return nil, errs.ErrUnknownCommand.New()
	}
	switch strings.ToUpper(args[0]) {
	case "MODE":
		switch strings.ToUpper(args[1]) {
		case "STANDARD":
			ctx.SetMode(query.ModeStandard)
		case "DSN":
			ctx.SetMode(query.ModeDSN)
		default:
			return nil, errs.ErrUnknownCommand.New()
		}
		return &Result{Output: "OK"}, nil

	case "DSN_VERSION":
		v := strings.ToUpper(args[1])
		if v != "P25" && v != "P26" && v != "AUTO" {
			return nil, errs.ErrUnknownCommand.New()
		}
		ctx.SetDSNVersion(query.DSNVersion(v))
		return &Result{Output: "OK"}, nil

	case "XSD":
		warnings, err := ctx.SetXSDPath(args[1])
		if err != nil {
			return nil, errs.ErrProcessing.New().WithCause(err)
		}
		asErrs := make([]*errs.Err, 0, len(warnings))
		for _, w := range warnings {
			if e, ok := w.(*errs.Err); ok {
				asErrs = append(asErrs, e)
			}
		}
		return &Result{Output: "OK", Warnings: asErrs}, nil

	case "DEST":
		if err := ctx.SetDestPath(args[1]); err != nil {
			return nil, errs.ErrProcessing.New().WithCause(err)
		}
		return &Result{Output: "OK"}, nil

	case "VERBOSE":
		ctx.SetVerbose(true)
		return &Result{Output: "OK"}, nil

	default:
		return nil, errs.ErrUnknownCommand.New()
	}
}

func dispatchShow(ctx *appctx.AppContext, args []string) (*Result, *errs.Err) {
	if len(args) != 1 {
		return nil, errs.ErrUnknownCommand.New()
	}
	switch strings.ToUpper(args[0]) {
	case "MODE":
		return &Result{Output: modeName(ctx.Mode())}, nil
	case "XSD":
		return &Result{Output: ctx.XSDPath()}, nil
	case "DEST":
		return &Result{Output: ctx.DestPath()}, nil
	default:
		return nil, errs.ErrUnknownCommand.New()
	}
}

func modeName(m query.Mode) string {
	if m == query.ModeDSN {
		return "DSN"
	}
	return "STANDARD"
}

func dispatchDescribe(ctx *appctx.AppContext, args []string) (*Result, *errs.Err) {
	if len(args) != 1 {
		return nil, errs.ErrUnknownCommand.New()
	}
	schema := ctx.Schema()
	if schema == nil {
		return nil, errs.ErrUnknownCommand.New()
	}
	name := args[0]

	if attr, ok := schema.FullName(name); ok {
		return &Result{Output: attr.String()}, nil
	}
	if bloc, ok := schema.BlocByName(name); ok {
		return &Result{Output: bloc.String()}, nil
	}
	shortID := strings.ReplaceAll(name, ".", "_")
	if matches := schema.ShortIDs(shortID); len(matches) > 0 {
		var sb strings.Builder
		for _, a := range matches {
			sb.WriteString(a.String())
			sb.WriteString("\n")
		}
		return &Result{Output: strings.TrimRight(sb.String(), "\n")}, nil
	}
	return nil, errs.ErrUnknownCommand.New()
}
