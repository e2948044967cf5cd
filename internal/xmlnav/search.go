package xmlnav

import (
	"strings"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
	"github.com/PierreBx/ariane-xml-sub000/internal/query"
)

// FindNodesByPartialPath traverses the tree once, threading the ancestor
// path slice down through recursion instead of recomputing it per node
// (O(N), not O(N·depth), requirement). A node matches if its
// ancestor chain, read from the document root, ends with components.
func FindNodesByPartialPath(root *Node, components []string) []*Node {
	var out []*Node
	var walk func(n *Node, path []string)
	walk = func(n *Node, path []string) {
		path = append(path, n.Name)
		if pathEndsWith(path, components) {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c, path)
		}
	}
	walk(root, nil)
	return out
}

func pathEndsWith(path, suffix []string) bool {
	if len(suffix) > len(path) {
		return false
	}
	offset := len(path) - len(suffix)
	for i, s := range suffix {
		if path[offset+i] != s {
			return false
		}
	}
	return true
}

// GetNodeValue reads a field's value off a node: either its text content or
// (when field.IsAttribute) one of its attributes.
func GetNodeValue(n *Node, field query.FieldPath) (string, bool) {
	if n == nil {
		return "", false
	}
	if field.IsAttribute {
		v, ok := n.Attrs[field.AttributeName]
		return v, ok
	}
	return n.Text, true
}

// ValuePair is one (filename, value) result of ExtractValues.
type ValuePair struct {
	Filename string
	Value    string
}

// ExtractValues extracts one value per match for a field: FILE_NAME returns the
// filename itself; an attribute field traverses the whole document for every
// node bearing that attribute; a single-component partial path searches the
// whole tree, otherwise only the document root is read; a multi-component
// path delegates to FindNodesByPartialPath.
func ExtractValues(doc *Node, field query.FieldPath, isFileName bool, filename string) ([]ValuePair, *errs.Err) {
	if isFileName {
		return []ValuePair{{Filename: filename, Value: filename}}, nil
	}

	if field.IsAttribute && len(field.Components) == 0 {
		var out []ValuePair
		var walk func(n *Node)
		walk = func(n *Node) {
			if v, ok := n.Attrs[field.AttributeName]; ok {
				out = append(out, ValuePair{Filename: filename, Value: v})
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(doc)
		return out, nil
	}

	var matches []*Node
	switch {
	case len(field.Components) == 1 && field.IsPartial:
		matches = FindNodesByPartialPath(doc, field.Components)
	case len(field.Components) == 1:
		if doc.Name == field.Components[0] {
			matches = []*Node{doc}
		}
	default:
		matches = FindNodesByPartialPath(doc, field.Components)
	}

	var warn *errs.Err
	if len(matches) > 1 {
		warn = ambiguityWarning(doc, matches)
	}

	out := make([]ValuePair, 0, len(matches))
	for _, m := range matches {
		v, ok := GetNodeValue(m, field)
		if !ok {
			continue
		}
		out = append(out, ValuePair{Filename: filename, Value: v})
	}
	return out, warn
}

// ambiguityWarning builds ARX-05001 listing the distinct full ancestor paths
// a partial-path search resolved to, for verbose-mode diagnostics.
func ambiguityWarning(root *Node, matches []*Node) *errs.Err {
	seen := map[string]bool{}
	var candidates []string
	for _, m := range matches {
		full := strings.Join(AncestorPath(m), "/")
		if !seen[full] {
			seen[full] = true
			candidates = append(candidates, full)
		}
	}
	if len(candidates) < 2 {
		return nil
	}
	return errs.ErrAmbiguousPath.New().WithCandidates(candidates...)
}
