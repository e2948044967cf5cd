package executor

import (
	"os"
	"strconv"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
	"github.com/PierreBx/ariane-xml-sub000/internal/xmlnav"
)

// loadDocument opens a file and parses it into an in-memory DOM.
func loadDocument(path string) (*xmlnav.Node, *errs.Err) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errs.ErrFilePermission.New()
		}
		return nil, errs.ErrFileRead.New().WithCause(err)
	}
	defer f.Close()

	doc, perr := xmlnav.Build(f)
	if perr != nil {
		var xerr *errs.Err
		if e, ok := perr.(*errs.Err); ok {
			xerr = e
		} else {
			xerr = errs.ErrXMLParse.New().WithCause(perr)
		}
		return nil, xerr
	}
	return doc, nil
}

// processFile runs one file through no-FOR cartesian expansion or FOR-clause
// expansion, returning raw (pre-aggregation) rows aligned with q.SelectFields.
func processFile(doc *xmlnav.Node, q *query.Query, filename string) ([][]string, []*errs.Err) {
	if len(q.ForClauses) == 0 {
		return processFileNoFor(doc, q, filename)
	}
	return processFileWithFor(doc, q, filename)
}

// processFileNoFor builds the cartesian product of the per-field value
// sequences. WHERE is evaluated once against the whole document (file-level
// scope, no bindings; a condition whose field matches several nodes compares
// only the first value): a file that fails it contributes no rows, and the
// rows of a file that passes are not filtered individually.
func processFileNoFor(doc *xmlnav.Node, q *query.Query, filename string) ([][]string, []*errs.Err) {
	var warnings []*errs.Err

	pass, werr := evaluateFiltered(doc, q.Where, nil)
	if werr != nil {
		warnings = append(warnings, werr)
	}
	if !pass {
		return nil, warnings
	}

	sequences := make([][]string, len(q.SelectFields))
	for i, item := range q.SelectFields {
		vals, ierr := extractSelectValues(doc, item, filename)
		if ierr != nil {
			warnings = append(warnings, ierr)
		}
		if len(vals) == 0 {
			vals = []string{""}
		}
		sequences[i] = vals
	}

	rows := cartesianProduct(sequences)
	return rows, warnings
}

func extractSelectValues(doc *xmlnav.Node, item query.SelectItem, filename string) ([]string, *errs.Err) {
	pairs, warn := xmlnav.ExtractValues(doc, item.Field, item.IsFileName, filename)
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Value
	}
	return out, warn
}

// cartesianProduct returns every combination picking one element from each
// input sequence, as if iterating nested loops with the last sequence
// varying fastest.
func cartesianProduct(seqs [][]string) [][]string {
	if len(seqs) == 0 {
		return nil
	}
	total := 1
	for _, s := range seqs {
		if len(s) == 0 {
			return nil
		}
		total *= len(s)
	}
	rows := make([][]string, total)
	for i := 0; i < total; i++ {
		row := make([]string, len(seqs))
		idx := i
		for j := len(seqs) - 1; j >= 0; j-- {
			row[j] = seqs[j][idx%len(seqs[j])]
			idx /= len(seqs[j])
		}
		rows[i] = row
	}
	return rows
}

// evaluateFiltered evaluates a possibly-nil WHERE expression, treating nil as
// an always-pass filter.
func evaluateFiltered(doc *xmlnav.Node, where *query.WhereExpr, bindings xmlnav.Bindings) (bool, *errs.Err) {
	if where == nil {
		return true, nil
	}
	return xmlnav.Evaluate(doc, where, bindings)
}

// processFileWithFor implements: nested FOR-clause expansion
// producing the cartesian product of iterations, filtered by WHERE at the
// innermost level, in document order.
func processFileWithFor(doc *xmlnav.Node, q *query.Query, filename string) ([][]string, []*errs.Err) {
	var rows [][]string
	var warnings []*errs.Err
	bindings := xmlnav.Bindings{}

	var expand func(level int, anchor *xmlnav.Node)
	expand = func(level int, anchor *xmlnav.Node) {
		if level == len(q.ForClauses) {
			pass, werr := evaluateFiltered(doc, q.Where, bindings)
			if werr != nil {
				warnings = append(warnings, werr)
			}
			if !pass {
				return
			}
			row := make([]string, len(q.SelectFields))
			for i, item := range q.SelectFields {
				row[i] = projectItem(doc, item, bindings, filename)
			}
			rows = append(rows, row)
			return
		}

		fc := q.ForClauses[level]
		iterAnchor := doc
		if fc.IterPath.VariableBinding != "" {
			iterAnchor = bindings[fc.IterPath.VariableBinding]
		}
		nodes := xmlnav.FindNodesByPartialPath(iterAnchor, fc.IterPath.Components)
		for idx, n := range nodes {
			bindings[fc.Variable] = n
			if fc.PositionVar != "" {
				// AT binds a 1-based index; represented as a
				// synthetic leaf node so it resolves through the same
				// VariableBinding lookup as any other bound variable.
				bindings[fc.PositionVar] = &xmlnav.Node{Text: strconv.Itoa(idx + 1)}
			}
			expand(level+1, n)
		}
		delete(bindings, fc.Variable)
		if fc.PositionVar != "" {
			delete(bindings, fc.PositionVar)
		}
	}

	expand(0, doc)
	return rows, warnings
}

// projectItem resolves one SELECT item's raw (pre-aggregation) value for a
// single FOR-expanded row.
func projectItem(doc *xmlnav.Node, item query.SelectItem, bindings xmlnav.Bindings, filename string) string {
	if item.IsFileName {
		return filename
	}
	anchor := doc
	if item.Field.VariableBinding != "" {
		if b, ok := bindings[item.Field.VariableBinding]; ok {
			anchor = b
		}
	}
	if len(item.Field.Components) == 0 {
		v, _ := xmlnav.GetNodeValue(anchor, item.Field)
		return v
	}
	matches := xmlnav.FindNodesByPartialPath(anchor, item.Field.Components)
	if len(matches) == 0 {
		return ""
	}
	v, _ := xmlnav.GetNodeValue(matches[0], item.Field)
	return v
}
