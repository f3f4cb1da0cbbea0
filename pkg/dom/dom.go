// Package dom wraps golang.org/x/net/html nodes with the few operations the
// widget tree needs: marker attributes, inline style access, attachment
// checks and removal.
//
// Widget elements carry a data-w attribute holding their render index. The
// hydrator walks a parsed document in pre-order and pairs every marked
// element with one entry of the info array.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker attributes written by the packer.
const (
	AttrWidget = "data-w" // render index
	AttrType   = "data-t" // namespace.Type, informational
	AttrKey    = "data-k" // widget key, informational
	AttrStyle  = "style"
	AttrClass  = "class"
)

// Element is a widget's DOM element.
type Element struct {
	node *html.Node
}

// Wrap returns an Element for an existing element node, or nil when n is
// nil or not an element.
func Wrap(n *html.Node) *Element {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	return &Element{node: n}
}

// New creates a detached element.
func New(tag string) *Element {
	tag = strings.ToLower(tag)
	return &Element{node: &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}}
}

// Node returns the underlying html node.
func (e *Element) Node() *html.Node { return e.node }

// Tag returns the element name.
func (e *Element) Tag() string { return e.node.Data }

// Attr returns the value of attribute name.
func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, name)
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute name, replacing an existing value.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// RemoveAttr deletes attribute name.
func (e *Element) RemoveAttr(name string) {
	attrs := e.node.Attr[:0]
	for _, a := range e.node.Attr {
		if a.Namespace != "" || a.Key != name {
			attrs = append(attrs, a)
		}
	}
	e.node.Attr = attrs
}

// Style returns the inline style.
func (e *Element) Style() string {
	s, _ := e.Attr(AttrStyle)
	return s
}

// SetStyle replaces the inline style. An empty style removes the attribute.
func (e *Element) SetStyle(s string) {
	if s == "" {
		e.RemoveAttr(AttrStyle)
		return
	}
	e.SetAttr(AttrStyle, s)
}

// Marker returns the render index stored in the data-w attribute.
func (e *Element) Marker() (int, bool) { return Marker(e.node) }

// Marker returns the render index of a marked element node.
func Marker(n *html.Node) (int, bool) {
	if n == nil || n.Type != html.ElementNode {
		return 0, false
	}
	v, ok := attr(n, AttrWidget)
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(v)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// IsMarked reports whether n carries a widget marker attribute, valid or
// not.
func IsMarked(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	_, ok := attr(n, AttrWidget)
	return ok
}

// AppendChild appends c to e, detaching it from its previous parent.
func (e *Element) AppendChild(c *Element) {
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	e.node.AppendChild(c.node)
}

// SetText replaces the element's children with a single text node.
func (e *Element) SetText(s string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	if s != "" {
		e.node.AppendChild(&html.Node{Type: html.TextNode, Data: s})
	}
}

// Text returns the concatenated text of the element's own text children.
func (e *Element) Text() string {
	var sb strings.Builder
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element { return Wrap(e.node.Parent) }

// Remove detaches the element from its parent.
func (e *Element) Remove() {
	if p := e.node.Parent; p != nil {
		p.RemoveChild(e.node)
	}
}

// Within reports whether root is the element itself or one of its
// ancestors. A removed element is no longer within its former document.
func (e *Element) Within(root *html.Node) bool {
	for n := e.node; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// Detached reports whether the element has no parent.
func (e *Element) Detached() bool { return e.node.Parent == nil }

// =============================================================================
// Documents
// =============================================================================

// NewFragment returns an empty document node used as the root of packed
// markup.
func NewFragment() *html.Node {
	return &html.Node{Type: html.DocumentNode}
}

// ParseFragment parses markup in a <body> context and returns a document
// node holding the parsed nodes as children.
func ParseFragment(r io.Reader) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(r, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}
	root := NewFragment()
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// ParseFragmentString is ParseFragment over a string.
func ParseFragmentString(s string) (*html.Node, error) {
	return ParseFragment(strings.NewReader(s))
}

// Render writes n as HTML. Document nodes render their children only.
func Render(w io.Writer, n *html.Node) error {
	if n.Type == html.DocumentNode {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(w, c); err != nil {
				return err
			}
		}
		return nil
	}
	return html.Render(w, n)
}

// RenderString renders n to a string.
func RenderString(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Walk visits element nodes under root in pre-order. Returning false from
// fn skips the node's descendants.
func Walk(root *html.Node, fn func(n *html.Node) bool) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		descend := true
		if n.Type == html.ElementNode {
			descend = fn(n)
		}
		if !descend {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
}

const markedXPath = "//*[@" + AttrWidget + "]"

// Marked returns every element under root carrying a marker attribute, in
// document order.
func Marked(root *html.Node) []*html.Node {
	return htmlquery.Find(root, markedXPath)
}

// FindByIndex returns the element whose marker equals idx.
func FindByIndex(root *html.Node, idx int) *Element {
	n := htmlquery.FindOne(root, fmt.Sprintf("//*[@%s='%d']", AttrWidget, idx))
	return Wrap(n)
}

// Query returns the elements matching an XPath expression.
func Query(root *html.Node, expr string) ([]*html.Node, error) {
	nodes, err := htmlquery.QueryAll(root, expr)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", expr, err)
	}
	return nodes, nil
}
