// Package markup registers the HTML element vocabulary on a render builder
// for any output type that can express elements.
package markup

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// Kit holds the output primitives of one adapter.
type Kit[T any] struct {
	Text    func(string) T
	Join    func([]T) T
	Element render.ElementFunc[T]
	Void    func(tag string, attrs render.Attrs) T
}

// Options mirrors the presentation knobs the html and dom adapters expose.
type Options struct {
	ClassPrefix    string
	InlineStyles   bool
	LinkTarget     string
	LinkRel        string
	AllowedSchemes []string
	Logger         *slog.Logger
}

// DefaultSchemes are the URL schemes kept by SanitizeURL.
var DefaultSchemes = []string{"http", "https", "mailto", "tel", "sms"}

// MarkPriorities orders inline marks, outermost first.
var MarkPriorities = []string{
	tree.AttrLink, tree.AttrScript, tree.AttrBold, tree.AttrItalic,
	tree.AttrStrike, tree.AttrUnderline, tree.AttrCode,
}

type registrar[T any] struct {
	k Kit[T]
	o Options
}

// Register adds text, join, element, marks, attributors and block handlers
// for the standard node types to b.
func Register[T any](b *render.Builder[T], k Kit[T], o Options) {
	if o.ClassPrefix == "" {
		o.ClassPrefix = "ql"
	}
	if o.AllowedSchemes == nil {
		o.AllowedSchemes = DefaultSchemes
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	r := registrar[T]{k: k, o: o}

	b.Text(k.Text).Join(k.Join).Element(k.Element).Neutral("span")
	b.Priorities(MarkPriorities...)

	b.Tag(tree.AttrBold, "strong").
		Tag(tree.AttrItalic, "em").
		Tag(tree.AttrUnderline, "u").
		Tag(tree.AttrStrike, "s").
		Tag(tree.AttrCode, "code").
		TagFunc(tree.AttrScript, func(v any) string {
			if v == "sub" {
				return "sub"
			}
			return "sup"
		}).
		Mark(tree.AttrLink, r.link)

	b.Attributor(tree.AttrColor, render.Style("color")).
		Attributor(tree.AttrBackground, render.Style("background-color")).
		Attributor(tree.AttrFont, r.classOrStyle("font", "font-family")).
		Attributor(tree.AttrSize, r.classOrStyle("size", "font-size")).
		Attributor(tree.AttrAlign, r.classOrStyle("align", "text-align")).
		Attributor(tree.AttrDirection, r.classOrStyle("direction", "direction")).
		Attributor(tree.AttrIndent, r.indent)

	b.Block(tree.TypeRoot, render.Passthrough[T]).
		Block(tree.TypeParagraph, r.wrap("p")).
		Block(tree.TypeHeader, r.header).
		Block(tree.TypeBlockquote, r.wrap("blockquote")).
		Block(tree.TypeCodeBlock, r.codeLine).
		Block(tree.TypeList, r.list).
		Block(tree.TypeListItem, r.listItem).
		Block(tree.TypeTable, r.table).
		Block(tree.TypeTableRow, r.plain("tr")).
		Block(tree.TypeTableCell, r.cell).
		Block(tree.TypeImage, r.image).
		Block(tree.TypeVideo, r.video).
		Block(tree.TypeFormula, r.formula).
		Override(tree.TypeCodeBlockContainer, r.codeContainer)
}

func (r registrar[T]) class(parts ...string) string {
	return r.o.ClassPrefix + "-" + strings.Join(parts, "-")
}

func (r registrar[T]) classOrStyle(name, property string) render.Attributor {
	return func(v any) render.Attrs {
		var a render.Attrs
		if r.o.InlineStyles {
			a.SetStyle(property, fmt.Sprint(v))
		} else {
			a.AddClass(r.class(name, fmt.Sprint(v)))
		}
		return a
	}
}

func (r registrar[T]) indent(v any) render.Attrs {
	var a render.Attrs
	n, _ := v.(int)
	if n <= 0 {
		return a
	}
	if r.o.InlineStyles {
		a.SetStyle("padding-left", strconv.Itoa(n*3)+"em")
	} else {
		a.AddClass(r.class("indent", strconv.Itoa(n)))
	}
	return a
}

func (r registrar[T]) empty() T { return r.k.Join(nil) }

// content returns children, or a line break for blocks without children
// so empty lines keep their height.
func (r registrar[T]) content(n *tree.Node, children T) T {
	if len(n.Children) == 0 {
		return r.k.Void("br", render.Attrs{})
	}
	return children
}

func (r registrar[T]) wrap(tag string) render.BlockFunc[T] {
	return func(n *tree.Node, children T, a render.Attrs) (T, error) {
		return r.k.Element(tag, a, r.content(n, children)), nil
	}
}

func (r registrar[T]) plain(tag string) render.BlockFunc[T] {
	return func(_ *tree.Node, children T, a render.Attrs) (T, error) {
		return r.k.Element(tag, a, children), nil
	}
}

func (r registrar[T]) header(n *tree.Node, children T, a render.Attrs) (T, error) {
	level := n.Attributes.Int(tree.AttrHeader)
	if level < 1 || level > 6 {
		level = 1
	}
	return r.k.Element("h"+strconv.Itoa(level), a, r.content(n, children)), nil
}

func (r registrar[T]) codeLine(n *tree.Node, children T, a render.Attrs) (T, error) {
	return r.k.Element("pre", r.codeAttrs(n, a), children), nil
}

func (r registrar[T]) codeAttrs(n *tree.Node, a render.Attrs) render.Attrs {
	a = a.Merge(render.Attrs{})
	a.AddClass(r.class("syntax"))
	if lang := n.Attributes.Str(tree.AttrCodeBlock); lang != "" {
		a.SetAttr("data-language", lang)
	}
	a.SetAttr("spellcheck", "false")
	return a
}

func (r registrar[T]) codeContainer(n *tree.Node, w *render.Walker[T]) (T, error) {
	parts := make([]T, 0, 2*len(n.Children))
	for i, line := range n.Children {
		if i > 0 {
			parts = append(parts, r.k.Text("\n"))
		}
		out, err := w.Children(line)
		if err != nil {
			return out, err
		}
		parts = append(parts, out)
	}
	return r.k.Element("pre", r.codeAttrs(n, w.Attrs(n)), r.k.Join(parts)), nil
}

func (r registrar[T]) list(n *tree.Node, children T, a render.Attrs) (T, error) {
	tag := "ul"
	a = a.Filter(r.isIndent)
	switch n.Attributes.Str(tree.AttrList) {
	case tree.ListOrdered:
		tag = "ol"
		if start := n.Attributes.Int(tree.AttrStart); start > 1 {
			a.SetAttr("start", strconv.Itoa(start))
		}
	case tree.ListCheck:
		a.AddClass(r.class("checklist"))
	}
	return r.k.Element(tag, a, children), nil
}

func (r registrar[T]) listItem(n *tree.Node, children T, a render.Attrs) (T, error) {
	a = a.Filter(r.isIndent)
	if n.Attributes.Has(tree.AttrChecked) {
		a.SetAttr("data-checked", strconv.FormatBool(n.Attributes.Bool(tree.AttrChecked)))
	}
	return r.k.Element("li", a, children), nil
}

func (r registrar[T]) isIndent(class string) bool {
	return strings.HasPrefix(class, r.class("indent")+"-")
}

func (r registrar[T]) table(_ *tree.Node, children T, a render.Attrs) (T, error) {
	return r.k.Element("table", a, r.k.Element("tbody", render.Attrs{}, children)), nil
}

func (r registrar[T]) cell(n *tree.Node, children T, a render.Attrs) (T, error) {
	a = a.Merge(render.Attrs{})
	if id := n.Attributes.Str(tree.AttrTable); id != "" {
		a.SetAttr("data-row", id)
	}
	return r.k.Element("td", a, r.content(n, children)), nil
}

func (r registrar[T]) link(content T, v any, _ *tree.Node, a render.Attrs) (T, error) {
	a = a.Merge(render.Attrs{})
	s, _ := v.(string)
	a.SetAttr("href", r.SanitizeURL(s))
	if r.o.LinkTarget != "" {
		a.SetAttr("target", r.o.LinkTarget)
	}
	if r.o.LinkRel != "" {
		a.SetAttr("rel", r.o.LinkRel)
	}
	return r.k.Element("a", a, content), nil
}

func (r registrar[T]) image(n *tree.Node, _ T, a render.Attrs) (T, error) {
	src := r.sanitizeImage(n.Source())
	if src == "" {
		return r.empty(), nil
	}
	a = a.Merge(render.Attrs{})
	a.SetAttr("src", src)
	for _, name := range []string{"alt", "width", "height"} {
		if v, ok := n.Attributes[name]; ok {
			a.SetAttr(name, fmt.Sprint(v))
		}
	}
	return r.k.Void("img", a), nil
}

func (r registrar[T]) video(n *tree.Node, _ T, a render.Attrs) (T, error) {
	src := r.SanitizeURL(n.Source())
	if src == "" {
		return r.empty(), nil
	}
	a = a.Merge(render.Attrs{})
	a.AddClass(r.class("video"))
	a.SetAttr("frameborder", "0")
	a.SetAttr("allowfullscreen", "true")
	a.SetAttr("src", src)
	return r.k.Element("iframe", a, r.empty()), nil
}

func (r registrar[T]) formula(n *tree.Node, _ T, a render.Attrs) (T, error) {
	src := n.Source()
	if src == "" {
		return r.empty(), nil
	}
	a = a.Merge(render.Attrs{})
	a.AddClass(r.class("formula"))
	return r.k.Element("span", a, r.k.Text(src)), nil
}

func (r registrar[T]) sanitizeImage(raw string) string {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(raw)), "data:image/") {
		return strings.TrimSpace(raw)
	}
	return r.SanitizeURL(raw)
}

// SanitizeURL returns raw when it is relative or uses an allowed scheme and
// "unsafe:"+raw otherwise.
func (r registrar[T]) SanitizeURL(raw string) string {
	return SanitizeURL(raw, r.o.AllowedSchemes, r.o.Logger)
}

// SanitizeURL returns raw when it is relative or its scheme is in allowed,
// and raw prefixed with "unsafe:" otherwise, including when raw does not
// parse as a URL. Rejections are logged at warn
// level on logger when it is not nil.
func SanitizeURL(raw string, allowed []string, logger *slog.Logger) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	parsed, err := url.Parse(u)
	if err != nil {
		if logger != nil {
			logger.Warn("unparsable url replaced", "url", u, "error", err)
		}
		return "unsafe:" + u
	}
	if parsed.Scheme == "" {
		return u
	}
	for _, s := range allowed {
		if strings.EqualFold(s, parsed.Scheme) {
			return u
		}
	}
	if logger != nil {
		logger.Warn("unsafe url replaced", "scheme", parsed.Scheme, "url", u)
	}
	return "unsafe:" + u
}
