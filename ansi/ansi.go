// Package ansi renders document trees for terminals: themed ANSI styles,
// word wrapping to a width and optional OSC 8 hyperlinks.
package ansi

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wrap"

	"pkt.systems/deltaf/internal/palette"
	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// DefaultWidth is used when Options.Width is not positive.
const DefaultWidth = 80

// Options configures the terminal adapter.
type Options struct {
	Theme Theme
	Width int
	// OSC8 emits links as OSC 8 hyperlinks instead of "text (url)".
	OSC8 bool
	// SoftWrap also breaks words and code lines longer than the width.
	SoftWrap bool
	// Unknown renders custom node types. Nil prints a placeholder.
	Unknown func(n *tree.Node) (string, error)
	Logger  *slog.Logger
}

// DefaultOptions returns the default theme at DefaultWidth.
func DefaultOptions() Options {
	return Options{Theme: DefaultTheme(), Width: DefaultWidth}
}

// Renderer renders trees for terminals. It is safe for concurrent use.
type Renderer struct {
	r *render.Renderer[string]
}

type adapter struct {
	s     Styles
	width int
	osc8  bool
	soft  bool
	log   *slog.Logger
}

// New builds a terminal renderer.
func New(opts Options, extend ...func(*render.Builder[string])) (*Renderer, error) {
	if opts.Theme == nil {
		opts.Theme = DefaultTheme()
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	a := adapter{s: opts.Theme.Styles(), width: opts.Width, osc8: opts.OSC8, soft: opts.SoftWrap, log: opts.Logger}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}

	b := render.NewBuilder[string]().
		Text(func(s string) string { return s }).
		Join(func(parts []string) string { return strings.Join(parts, "") }).
		Priorities(tree.AttrLink, tree.AttrBold, tree.AttrItalic, tree.AttrStrike,
			tree.AttrUnderline, tree.AttrCode, tree.AttrBackground, tree.AttrColor)

	b.Mark(tree.AttrBold, styled(a.s.Strong)).
		Mark(tree.AttrItalic, styled(a.s.Emphasis)).
		Mark(tree.AttrUnderline, styled(a.s.Underline)).
		Mark(tree.AttrStrike, styled(a.s.Strike)).
		Mark(tree.AttrCode, styled(a.s.CodeInline)).
		Mark(tree.AttrLink, a.link).
		Mark(tree.AttrColor, a.color(palette.FG)).
		Mark(tree.AttrBackground, a.color(palette.BG))

	b.Override(tree.TypeRoot, a.root).
		Override(tree.TypeList, a.list).
		Override(tree.TypeTable, a.table).
		Override(tree.TypeCodeBlockContainer, a.codeContainer).
		Block(tree.TypeParagraph, a.paragraph).
		Block(tree.TypeTableRow, render.Passthrough[string]).
		Block(tree.TypeHeader, a.header).
		Block(tree.TypeBlockquote, a.blockquote).
		Block(tree.TypeCodeBlock, a.codeLine).
		Block(tree.TypeListItem, a.looseItem).
		Block(tree.TypeTableCell, a.looseCell).
		Block(tree.TypeImage, a.image).
		Block(tree.TypeVideo, a.video).
		Block(tree.TypeFormula, a.formula)
	if opts.Unknown != nil {
		b.Unknown(opts.Unknown)
	} else {
		b.Unknown(a.placeholder)
	}
	for _, fn := range extend {
		fn(b)
	}
	r, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("ansi: %w", err)
	}
	return &Renderer{r: r}, nil
}

// Render renders root to terminal text ending in a newline.
func (r *Renderer) Render(root *tree.Node) (string, error) {
	return r.r.Render(root)
}

func styled(s Style) render.MarkFunc[string] {
	return func(content string, _ any, _ *tree.Node, _ render.Attrs) (string, error) {
		return s.Apply(content), nil
	}
}

func (a adapter) color(seq func(string) string) render.MarkFunc[string] {
	return func(content string, v any, _ *tree.Node, _ render.Attrs) (string, error) {
		if !a.s.Color {
			return content, nil
		}
		hex, _ := v.(string)
		return Style{Prefix: seq(hex)}.Apply(content), nil
	}
}

func (a adapter) link(content string, v any, _ *tree.Node, _ render.Attrs) (string, error) {
	url, _ := v.(string)
	text := a.s.LinkText.Apply(content)
	if url == "" {
		return text, nil
	}
	if a.osc8 {
		return hyperlink(url, text), nil
	}
	if content == url {
		return text, nil
	}
	return text + " " + a.s.LinkURL.Apply("("+fitURL(url, a.width-2)+")"), nil
}

func (a adapter) root(n *tree.Node, w *render.Walker[string]) (string, error) {
	parts, err := w.Each(n)
	if err != nil {
		return "", err
	}
	blocks := parts[:0]
	for _, p := range parts {
		if p != "" {
			blocks = append(blocks, p)
		}
	}
	if len(blocks) == 0 {
		return "", nil
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

func (a adapter) paragraph(_ *tree.Node, children string, _ render.Attrs) (string, error) {
	return a.s.Text.Apply(fill(children, a.width, a.soft)), nil
}

func (a adapter) header(n *tree.Node, children string, _ render.Attrs) (string, error) {
	level := max(1, min(6, n.Attributes.Int(tree.AttrHeader)))
	return a.s.Heading[level-1].Apply(fill(children, a.width, a.soft)), nil
}

func (a adapter) blockquote(_ *tree.Node, children string, _ render.Attrs) (string, error) {
	bar := a.s.Quote.Apply("│ ")
	return prefixLines(fill(children, a.width-2, a.soft), bar, bar), nil
}

func (a adapter) codeLines(lines []string) string {
	for i, l := range lines {
		if a.soft {
			l = wrap.String(l, a.width-2)
		}
		lines[i] = a.s.CodeBlock.Apply(l)
	}
	return indent.String(strings.Join(lines, "\n"), 2)
}

func (a adapter) codeLine(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	return a.codeLines([]string{n.TextContent()}), nil
}

func (a adapter) codeContainer(n *tree.Node, _ *render.Walker[string]) (string, error) {
	lines := make([]string, 0, len(n.Children))
	for _, l := range n.Children {
		lines = append(lines, l.TextContent())
	}
	return a.codeLines(lines), nil
}

func (a adapter) list(n *tree.Node, w *render.Walker[string]) (string, error) {
	var lines []string
	if err := a.listLines(n, w, "", &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (a adapter) listLines(n *tree.Node, w *render.Walker[string], lead string, lines *[]string) error {
	for i, item := range n.Children {
		marker := itemMarker(item, i)
		hang := strings.Repeat(" ", len([]rune(marker)))
		var (
			inline strings.Builder
			nested []*tree.Node
		)
		for _, c := range item.Children {
			if c.Type == tree.TypeList {
				nested = append(nested, c)
				continue
			}
			out, err := w.Render(c)
			if err != nil {
				return err
			}
			inline.WriteString(out)
		}
		body := fill(inline.String(), a.width-len(lead)-len(hang), a.soft)
		*lines = append(*lines, prefixLines(body, lead+a.s.ListMarker.Apply(marker), lead+hang))
		for _, sub := range nested {
			if err := a.listLines(sub, w, lead+hang, lines); err != nil {
				return err
			}
		}
	}
	return nil
}

func itemMarker(item *tree.Node, pos int) string {
	switch item.Attributes.Str(tree.AttrList) {
	case tree.ListOrdered:
		idx := item.Attributes.Int(tree.AttrIndex)
		if idx == 0 {
			idx = pos + 1
		}
		return strconv.Itoa(idx) + ". "
	case tree.ListChecked:
		return "[x] "
	case tree.ListUnchecked:
		return "[ ] "
	}
	return "• "
}

func (a adapter) looseItem(n *tree.Node, children string, _ render.Attrs) (string, error) {
	lead := strings.Repeat("  ", n.Attributes.Int(tree.AttrIndent))
	return lead + a.s.ListMarker.Apply(itemMarker(n, 0)) + children, nil
}

func (a adapter) looseCell(_ *tree.Node, children string, _ render.Attrs) (string, error) {
	return children, nil
}

func (a adapter) table(n *tree.Node, w *render.Walker[string]) (string, error) {
	var (
		rows   [][]string
		widths []int
	)
	for _, row := range n.Children {
		cells := make([]string, 0, len(row.Children))
		for i, cell := range row.Children {
			out, err := w.Children(cell)
			if err != nil {
				return "", err
			}
			cells = append(cells, out)
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], width(out))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return "", nil
	}

	border := func(left, mid, right string) string {
		segs := make([]string, len(widths))
		for i, cw := range widths {
			segs[i] = strings.Repeat("─", cw+2)
		}
		return a.s.TableBorder.Apply(left + strings.Join(segs, mid) + right)
	}
	bar := a.s.TableBorder.Apply("│")

	lines := []string{border("┌", "┬", "┐")}
	for _, cells := range rows {
		var b strings.Builder
		b.WriteString(bar)
		for i, cw := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(" " + pad(cell, cw) + " " + bar)
		}
		lines = append(lines, b.String())
	}
	lines = append(lines, border("└", "┴", "┘"))
	return strings.Join(lines, "\n"), nil
}

func (a adapter) embed(kind, label, url string) string {
	text := a.s.Embed.Apply("[" + kind + ": " + label + "]")
	if a.osc8 && url != "" {
		return hyperlink(url, text)
	}
	return text
}

func (a adapter) image(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	src := n.Source()
	if src == "" {
		return "", nil
	}
	if alt, _ := n.Attributes["alt"].(string); alt != "" {
		return a.embed("image", alt, src), nil
	}
	return a.embed("image", fitURL(src, a.width-len("[image: ]")), src), nil
}

func (a adapter) video(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	src := n.Source()
	if src == "" {
		return "", nil
	}
	return a.embed("video", fitURL(src, a.width-len("[video: ]")), src), nil
}

func (a adapter) formula(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	return a.s.CodeInline.Apply(n.Source()), nil
}

func (a adapter) placeholder(n *tree.Node) (string, error) {
	if len(n.Children) > 0 {
		return n.TextContent(), nil
	}
	a.log.Debug("no renderer for embed", "type", n.Type)
	src := n.Source()
	if src == "" {
		return a.s.Embed.Apply("[" + n.Type + "]"), nil
	}
	return a.embed(n.Type, fitURL(src, a.width/2), ""), nil
}
