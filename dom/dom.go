// Package dom renders document trees into golang.org/x/net/html element
// trees, for callers that want to inspect or transform the output as nodes
// before serializing it.
package dom

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pkt.systems/deltaf/internal/markup"
	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// Fragment is a run of sibling nodes without a parent.
type Fragment = []*xhtml.Node

// Options configures the element tree adapter.
type Options struct {
	ClassPrefix    string
	InlineStyles   bool
	LinkTarget     string
	LinkRel        string
	AllowedSchemes []string
	Unknown        func(n *tree.Node) (Fragment, error)
	Logger         *slog.Logger
}

// Renderer renders trees to element trees.
type Renderer struct {
	r *render.Renderer[Fragment]
}

// New builds an element tree renderer.
func New(opts Options, extend ...func(*render.Builder[Fragment])) (*Renderer, error) {
	b := render.NewBuilder[Fragment]()
	markup.Register(b, markup.Kit[Fragment]{
		Text:    Text,
		Join:    join,
		Element: Element,
		Void: func(tag string, a render.Attrs) Fragment {
			return Element(tag, a, nil)
		},
	}, markup.Options{
		ClassPrefix:    opts.ClassPrefix,
		InlineStyles:   opts.InlineStyles,
		LinkTarget:     opts.LinkTarget,
		LinkRel:        opts.LinkRel,
		AllowedSchemes: opts.AllowedSchemes,
		Logger:         opts.Logger,
	})
	if opts.Unknown != nil {
		b.Unknown(opts.Unknown)
	}
	for _, fn := range extend {
		fn(b)
	}
	r, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("dom: %w", err)
	}
	return &Renderer{r: r}, nil
}

// Render renders root and returns a <div> holding the document.
func (r *Renderer) Render(root *tree.Node) (*xhtml.Node, error) {
	nodes, err := r.r.Render(root)
	if err != nil {
		return nil, err
	}
	return Element("div", render.Attrs{}, nodes)[0], nil
}

// String serializes n as HTML.
func String(n *xhtml.Node) (string, error) {
	var buf bytes.Buffer
	if err := xhtml.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Text returns a single text node.
func Text(s string) Fragment {
	return Fragment{{Type: xhtml.TextNode, Data: s}}
}

// Element returns an element holding content. The content nodes are
// reparented.
func Element(tag string, a render.Attrs, content Fragment) Fragment {
	n := &xhtml.Node{
		Type:     xhtml.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attributes(a),
	}
	for _, c := range content {
		n.AppendChild(c)
	}
	return Fragment{n}
}

func attributes(a render.Attrs) []xhtml.Attribute {
	var out []xhtml.Attribute
	if len(a.Classes) > 0 {
		out = append(out, xhtml.Attribute{Key: "class", Val: strings.Join(a.Classes, " ")})
	}
	for _, p := range a.Attrs {
		out = append(out, xhtml.Attribute{Key: p.Name, Val: p.Value})
	}
	if len(a.Style) > 0 {
		out = append(out, xhtml.Attribute{Key: "style", Val: a.StyleString()})
	}
	return out
}

func join(parts []Fragment) Fragment {
	var out Fragment
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
