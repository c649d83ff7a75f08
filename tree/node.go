// Package tree builds a document tree out of a flat delta.
//
// Build turns the operation log into a root node whose children are blocks in
// source order. Blocks hold inline children: text leaves carrying their marks
// as attributes, and inline embeds. Higher level structure such as lists and
// tables is reconstructed afterwards by the group package.
package tree

import (
	"sort"
	"strings"
)

// Node types produced by Build and the grouping transformers.
const (
	TypeRoot               = "root"
	TypeParagraph          = "paragraph"
	TypeHeader             = "header"
	TypeBlockquote         = "blockquote"
	TypeCodeBlock          = "code-block"
	TypeCodeBlockContainer = "code-block-container"
	TypeList               = "list"
	TypeListItem           = "list-item"
	TypeTable              = "table"
	TypeTableRow           = "table-row"
	TypeTableCell          = "table-cell"
	TypeText               = "text"
	TypeImage              = "image"
	TypeVideo              = "video"
	TypeFormula            = "formula"
)

// Node is one element of the document tree.
//
// Text leaves have Type TypeText, carry their content in Text and their
// inline marks in Attributes. Embeds carry the raw embed payload in Data.
type Node struct {
	Type       string
	Attributes Attributes
	Children   []*Node
	Data       any
	Text       string
	Inline     bool
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool { return n != nil && n.Type == TypeText }

// Source returns the embed source of n, see EmbedSource.
func (n *Node) Source() string { return EmbedSource(n.Data) }

// Copy returns a shallow copy of n with its own attribute map and children
// slice. Child nodes are shared.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Attributes = n.Attributes.Clone()
	if n.Children != nil {
		c.Children = append([]*Node(nil), n.Children...)
	}
	return &c
}

// TextContent concatenates the text of every text leaf below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.appendText(&b)
	return b.String()
}

func (n *Node) appendText(b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == TypeText {
		b.WriteString(n.Text)
		return
	}
	for _, c := range n.Children {
		c.appendText(b)
	}
}

// Walk calls fn for n and its descendants in document order. Returning
// false from fn skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Attributes maps attribute names to their normalized values.
type Attributes map[string]any

// Has reports whether name is set.
func (a Attributes) Has(name string) bool {
	_, ok := a[name]
	return ok
}

// Str returns the string value of name, or "" if it is unset or not a string.
func (a Attributes) Str(name string) string {
	s, _ := a[name].(string)
	return s
}

// Int returns the int value of name, or 0.
func (a Attributes) Int(name string) int {
	i, _ := a[name].(int)
	return i
}

// Bool returns the bool value of name, or false.
func (a Attributes) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Names returns the attribute names in sorted order.
func (a Attributes) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a shallow copy. A nil map stays nil.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	c := make(Attributes, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}
