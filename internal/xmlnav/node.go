// Package xmlnav implements the in-memory XML DOM and the stateless
// traversal/evaluation operations.
package xmlnav

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/PierreBx/ariane-xml-sub000/internal/errs"
)

// Node is a generic XML element in the document tree. No typed Go struct
// models arbitrary customer XML, so the DOM is this small generic tree
// instead of encoding/xml's typed unmarshalling (contrast internal/dsn,
// which unmarshals into typed structs because an XSD's own grammar is
// fixed).
type Node struct {
	Name     string
	Attrs    map[string]string
	Text     string
	Children []*Node
	Parent   *Node
}

// Build decodes r token-by-token into a Node tree.
func Build(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root, cur *Node
	var textBuf strings.Builder

	flushText := func() {
		if cur != nil {
			cur.Text += textBuf.String()
			textBuf.Reset()
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.ErrXMLParse.New().WithCause(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			flushText()
			n := &Node{Name: t.Name.Local, Attrs: map[string]string{}, Parent: cur}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if cur == nil {
				root = n
			} else {
				cur.Children = append(cur.Children, n)
			}
			cur = n
		case xml.CharData:
			textBuf.Write(t)
		case xml.EndElement:
			flushText()
			cur.Text = strings.TrimSpace(cur.Text)
			if cur.Parent != nil {
				cur = cur.Parent
			}
		}
	}
	if root == nil {
		return nil, errs.ErrXMLParse.New("empty document")
	}
	return root, nil
}

// AncestorPath returns the element names from the document root down to and
// including n.
func AncestorPath(n *Node) []string {
	var rev []string
	for cur := n; cur != nil; cur = cur.Parent {
		rev = append(rev, cur.Name)
	}
	path := make([]string, len(rev))
	for i, name := range rev {
		path[len(rev)-1-i] = name
	}
	return path
}
