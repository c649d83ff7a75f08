// Package markdown renders document trees to Markdown.
//
// Two dialects are supported. CommonMark drops formatting it has no syntax
// for (underline, strike, scripts, tables become plain rows). GitHub adds
// strikethrough, pipe tables and $math$ formulas.
package markdown

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	md "github.com/nao1215/markdown"

	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// Dialect selects the Markdown flavor.
type Dialect int

const (
	CommonMark Dialect = iota
	GitHub
)

func (d Dialect) String() string {
	if d == GitHub {
		return "github"
	}
	return "commonmark"
}

// ParseDialect maps "commonmark", "github" or "gfm" to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "commonmark", "cm":
		return CommonMark, nil
	case "github", "gfm":
		return GitHub, nil
	}
	return CommonMark, fmt.Errorf("markdown: unknown dialect %q", s)
}

// Options configures the Markdown adapter.
type Options struct {
	Dialect Dialect
	// Unknown renders custom node types. Nil renders their children.
	Unknown func(n *tree.Node) (string, error)
	Logger  *slog.Logger
}

// Renderer renders trees to Markdown. It is safe for concurrent use.
type Renderer struct {
	r *render.Renderer[string]
}

var escaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `<`, `\<`, `>`, `\>`,
)

type adapter struct {
	dialect Dialect
	log     *slog.Logger
}

// New builds a Markdown renderer.
func New(opts Options, extend ...func(*render.Builder[string])) (*Renderer, error) {
	a := adapter{dialect: opts.Dialect, log: opts.Logger}
	if a.log == nil {
		a.log = slog.New(slog.DiscardHandler)
	}

	b := render.NewBuilder[string]().
		Text(func(s string) string { return s }).
		Join(func(parts []string) string { return strings.Join(parts, "") }).
		Priorities(tree.AttrLink, tree.AttrBold, tree.AttrItalic, tree.AttrStrike, tree.AttrCode)

	b.Mark(tree.AttrBold, wrap(md.Bold)).
		Mark(tree.AttrItalic, wrap(md.Italic)).
		Mark(tree.AttrCode, wrap(md.Code)).
		Mark(tree.AttrLink, func(content string, v any, _ *tree.Node, _ render.Attrs) (string, error) {
			href, _ := v.(string)
			return md.Link(content, href), nil
		})
	if a.dialect == GitHub {
		b.Mark(tree.AttrStrike, wrap(md.Strikethrough))
	}

	b.Override(tree.TypeRoot, a.root).
		Override(tree.TypeText, a.text).
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
	}
	for _, fn := range extend {
		fn(b)
	}
	r, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("markdown: %w", err)
	}
	return &Renderer{r: r}, nil
}

// Render renders root to a Markdown document ending in a newline.
func (r *Renderer) Render(root *tree.Node) (string, error) {
	return r.r.Render(root)
}

func wrap(fn func(string) string) render.MarkFunc[string] {
	return func(content string, _ any, _ *tree.Node, _ render.Attrs) (string, error) {
		return fn(content), nil
	}
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

func (a adapter) text(n *tree.Node, w *render.Walker[string]) (string, error) {
	s := n.Text
	if !n.Attributes.Bool(tree.AttrCode) {
		s = escaper.Replace(s)
		if a.dialect == GitHub {
			s = strings.ReplaceAll(s, "~", `\~`)
		}
	}
	return w.Marks(n, s)
}

// escapeLeading escapes text at the start of a block that would otherwise
// open a heading, list, thematic break, fence or indented code block.
func escapeLeading(s string) string {
	i := 0
	for i < len(s) && i < 4 && s[i] == ' ' {
		i++
	}
	if i == 4 {
		return "&#32;" + s[1:]
	}
	rest := s[i:]
	if rest == "" {
		return s
	}
	switch rest[0] {
	case '#', '-', '+', '~':
		return s[:i] + `\` + rest
	}
	j := 0
	for j < len(rest) && j < 9 && rest[j] >= '0' && rest[j] <= '9' {
		j++
	}
	if j > 0 && j < len(rest) && (rest[j] == '.' || rest[j] == ')') {
		return s[:i] + rest[:j] + `\` + rest[j:]
	}
	return s
}

func (a adapter) paragraph(_ *tree.Node, children string, _ render.Attrs) (string, error) {
	return escapeLeading(children), nil
}

func (a adapter) header(n *tree.Node, children string, _ render.Attrs) (string, error) {
	level := max(1, min(6, n.Attributes.Int(tree.AttrHeader)))
	return strings.Repeat("#", level) + " " + escapeLeading(children), nil
}

func (a adapter) blockquote(_ *tree.Node, children string, _ render.Attrs) (string, error) {
	return "> " + escapeLeading(children), nil
}

func (a adapter) codeLine(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	return fence(n.Attributes.Str(tree.AttrCodeBlock), n.TextContent()), nil
}

func (a adapter) codeContainer(n *tree.Node, _ *render.Walker[string]) (string, error) {
	lines := make([]string, 0, len(n.Children))
	for _, l := range n.Children {
		lines = append(lines, l.TextContent())
	}
	return fence(n.Attributes.Str(tree.AttrCodeBlock), strings.Join(lines, "\n")), nil
}

func fence(lang, body string) string {
	ticks := "```"
	for strings.Contains(body, ticks) {
		ticks += "`"
	}
	return ticks + lang + "\n" + body + "\n" + ticks
}

func (a adapter) list(n *tree.Node, w *render.Walker[string]) (string, error) {
	var lines []string
	if err := a.listLines(n, w, "", &lines); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

func (a adapter) listLines(n *tree.Node, w *render.Walker[string], indent string, lines *[]string) error {
	for i, item := range n.Children {
		marker := itemMarker(item, i)
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
		*lines = append(*lines, indent+marker+escapeLeading(inline.String()))
		for _, sub := range nested {
			if err := a.listLines(sub, w, indent+strings.Repeat(" ", len(marker)), lines); err != nil {
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
		return "- [x] "
	case tree.ListUnchecked:
		return "- [ ] "
	}
	return "- "
}

// looseItem renders a list item that was not grouped into a list.
func (a adapter) looseItem(n *tree.Node, children string, _ render.Attrs) (string, error) {
	return strings.Repeat("  ", n.Attributes.Int(tree.AttrIndent)) + itemMarker(n, 0) + escapeLeading(children), nil
}

func (a adapter) looseCell(_ *tree.Node, children string, _ render.Attrs) (string, error) {
	return children, nil
}

func (a adapter) table(n *tree.Node, w *render.Walker[string]) (string, error) {
	var rows [][]string
	width := 0
	for _, row := range n.Children {
		cells := make([]string, 0, len(row.Children))
		for _, cell := range row.Children {
			out, err := w.Children(cell)
			if err != nil {
				return "", err
			}
			cells = append(cells, strings.ReplaceAll(out, "|", `\|`))
		}
		width = max(width, len(cells))
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return "", nil
	}
	for i := range rows {
		for len(rows[i]) < width {
			rows[i] = append(rows[i], "")
		}
	}

	if a.dialect != GitHub {
		lines := make([]string, 0, len(rows))
		for _, r := range rows {
			lines = append(lines, strings.Join(r, " | "))
		}
		return strings.Join(lines, "  \n"), nil
	}

	var buf bytes.Buffer
	err := md.NewMarkdown(&buf).
		CustomTable(md.TableSet{Header: rows[0], Rows: rows[1:]}, md.TableOptions{AutoWrapText: false}).
		Build()
	if err != nil {
		return "", fmt.Errorf("markdown: table: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (a adapter) image(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	src := n.Source()
	if src == "" {
		return "", nil
	}
	alt, _ := n.Attributes["alt"].(string)
	return md.Image(alt, src), nil
}

func (a adapter) video(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	src := n.Source()
	if src == "" {
		return "", nil
	}
	return md.Link("video", src), nil
}

func (a adapter) formula(n *tree.Node, _ string, _ render.Attrs) (string, error) {
	src := n.Source()
	if src == "" {
		return "", nil
	}
	if a.dialect == GitHub {
		return "$" + src + "$", nil
	}
	a.log.Debug("formula rendered as code", "dialect", a.dialect.String())
	return md.Code(src), nil
}
