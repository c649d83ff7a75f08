package pdf

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"codeberg.org/go-pdf/fpdf"

	"pkt.systems/deltaf/internal/palette"
	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// Span is a run of text in one style. A span with Break set ends the
// current line, followed by Gap lines of extra space.
type Span struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Strike    bool
	Mono      bool
	Link      string
	Color     [3]int
	Colored   bool
	Scale     float64
	Indent    int
	Break     bool
	Gap       float64
}

func (s Span) scale() float64 {
	if s.Scale <= 0 {
		return 1
	}
	return s.Scale
}

// RenderRequest contains inputs for PDF rendering.
type RenderRequest struct {
	Root   *tree.Node
	Writer io.Writer
	Config Config
	// Extend is applied to the span renderer before it is built.
	Extend []func(*render.Builder[[]Span])
}

// Render writes root as a PDF document.
func Render(req RenderRequest) error {
	if req.Writer == nil {
		return fmt.Errorf("pdf render: writer is nil")
	}
	r, err := New(req.Config, req.Extend...)
	if err != nil {
		return err
	}
	return r.Render(req.Root, req.Writer)
}

// Renderer turns trees into PDF documents. It is safe for concurrent use.
type Renderer struct {
	cfg  Config
	flow *render.Renderer[[]Span]
	log  *slog.Logger
}

type adapter struct {
	cfg   Config
	roles roles
	log   *slog.Logger
}

// New validates cfg on top of DefaultConfig and builds a renderer.
func New(cfg Config, extend ...func(*render.Builder[[]Span])) (*Renderer, error) {
	c := DefaultConfig()
	applyConfig(&c, cfg)
	if c.FontSize <= 0 || c.LineHeight <= 0 {
		return nil, fmt.Errorf("pdf render: invalid font configuration")
	}
	if !isCoreFont(c.FontFamily) || !isCoreFont(c.MonoFamily) {
		return nil, fmt.Errorf("pdf render: core font family required (Courier, Helvetica or Times)")
	}
	if c.CornerImagePath != "" {
		if err := validateImagePath(c.CornerImagePath); err != nil {
			return nil, fmt.Errorf("pdf render: %w", err)
		}
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	a := adapter{cfg: c, log: c.Logger}
	if !c.IgnoreColors {
		a.roles = rolesFromTheme(c.Theme, c.TextRGB)
	}

	b := render.NewBuilder[[]Span]().
		Text(func(s string) []Span {
			if s == "" {
				return nil
			}
			return []Span{{Text: s}}
		}).
		Join(func(parts [][]Span) []Span {
			var out []Span
			for _, p := range parts {
				out = append(out, p...)
			}
			return out
		}).
		Priorities(tree.AttrLink, tree.AttrBold, tree.AttrItalic, tree.AttrStrike,
			tree.AttrUnderline, tree.AttrCode, tree.AttrScript, tree.AttrColor)

	b.Mark(tree.AttrBold, flag(func(s *Span) { s.Bold = true })).
		Mark(tree.AttrItalic, flag(func(s *Span) { s.Italic = true })).
		Mark(tree.AttrUnderline, flag(func(s *Span) { s.Underline = true })).
		Mark(tree.AttrStrike, flag(func(s *Span) { s.Strike = true })).
		Mark(tree.AttrCode, flag(func(s *Span) { s.Mono = true })).
		Mark(tree.AttrScript, flag(func(s *Span) { s.Scale = s.scale() * 0.7 })).
		Mark(tree.AttrLink, a.link).
		Mark(tree.AttrColor, a.color)

	b.Override(tree.TypeList, a.list).
		Override(tree.TypeTable, a.table).
		Override(tree.TypeCodeBlockContainer, a.codeContainer).
		Block(tree.TypeRoot, render.Passthrough[[]Span]).
		Block(tree.TypeParagraph, a.paragraph).
		Block(tree.TypeTableRow, render.Passthrough[[]Span]).
		Block(tree.TypeHeader, a.header).
		Block(tree.TypeBlockquote, a.blockquote).
		Block(tree.TypeCodeBlock, a.codeLine).
		Block(tree.TypeListItem, a.looseItem).
		Block(tree.TypeTableCell, a.looseCell).
		Block(tree.TypeImage, a.image).
		Block(tree.TypeVideo, a.video).
		Block(tree.TypeFormula, a.formula).
		Unknown(a.unknown)
	for _, fn := range extend {
		fn(b)
	}
	flow, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("pdf render: %w", err)
	}
	return &Renderer{cfg: c, flow: flow, log: c.Logger}, nil
}

// Flow renders root to styled spans without laying out a document.
func (r *Renderer) Flow(root *tree.Node) ([]Span, error) {
	return r.flow.Render(root)
}

// Render lays out root and writes the PDF to w.
func (r *Renderer) Render(root *tree.Node, w io.Writer) error {
	spans, err := r.Flow(root)
	if err != nil {
		return err
	}
	cfg := r.cfg
	orientation := cfg.Orientation
	if orientation == "" {
		orientation = "P"
	}
	doc := fpdf.New(orientation, "pt", cfg.PageSize, "")
	doc.SetMargins(cfg.Margin, cfg.Margin, cfg.Margin)
	doc.SetAutoPageBreak(true, cfg.Margin)
	doc.SetCompression(!cfg.Uncompressed)
	doc.SetCreator("deltaf", true)
	if cfg.Title != "" {
		doc.SetTitle(cfg.Title, true)
	}
	if cfg.Author != "" {
		doc.SetAuthor(cfg.Author, true)
	}
	if cfg.BackgroundEnabled {
		doc.SetHeaderFunc(func() {
			pw, ph := doc.GetPageSize()
			doc.SetFillColor(cfg.BackgroundRGB[0], cfg.BackgroundRGB[1], cfg.BackgroundRGB[2])
			doc.Rect(0, 0, pw, ph, "F")
		})
	}
	corner, err := prepareCornerImage(doc, cfg)
	if err != nil {
		return err
	}
	doc.AddPage()
	if corner != nil {
		pw, _ := doc.GetPageSize()
		x := pw - cfg.Margin - corner.width
		doc.ImageOptions(corner.path, x, cfg.Margin, corner.width, corner.height, false, corner.opts, 0, "")
		doc.SetY(cfg.Margin + corner.height + cfg.CornerImagePadding)
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("pdf render: page setup failed: %w", err)
	}

	lay := layout{doc: doc, cfg: cfg, enc: newEncoder(doc)}
	lay.spans(spans)
	if lay.replaced > 0 {
		r.log.Debug("pdf: replaced characters outside the core font encoding", "count", lay.replaced)
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("pdf render: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("pdf render: output: %w", err)
	}
	return nil
}

type layout struct {
	doc      *fpdf.Fpdf
	cfg      Config
	enc      *encoder
	replaced int
}

func (l *layout) spans(spans []Span) {
	base := l.cfg.FontSize * l.cfg.LineHeight
	lineStart := true
	lineH := 0.0
	for _, sp := range spans {
		if sp.Break {
			if lineH == 0 {
				lineH = base
			}
			l.doc.Ln(lineH)
			if sp.Gap > 0 {
				l.doc.Ln(base * sp.Gap)
			}
			lineStart, lineH = true, 0
			continue
		}
		if lineStart {
			left := l.cfg.Margin + float64(sp.Indent)*l.cfg.IndentStep
			l.doc.SetLeftMargin(left)
			l.doc.SetX(left)
			lineStart = false
		}
		size := l.cfg.FontSize * sp.scale()
		family := l.cfg.FontFamily
		if sp.Mono {
			family = l.cfg.MonoFamily
		}
		l.doc.SetFont(family, fontStyle(sp), size)
		rgb := l.cfg.TextRGB
		if sp.Colored && !l.cfg.IgnoreColors {
			rgb = sp.Color
		}
		l.doc.SetTextColor(rgb[0], rgb[1], rgb[2])
		h := size * l.cfg.LineHeight
		lineH = math.Max(lineH, h)
		text, n := l.enc.encode(sp.Text)
		l.replaced += n
		if sp.Link != "" {
			l.doc.WriteLinkString(h, text, sp.Link)
		} else {
			l.doc.Write(h, text)
		}
	}
	l.doc.SetLeftMargin(l.cfg.Margin)
}

// encoder converts UTF-8 to the cp1252 encoding of the core fonts.
type encoder struct {
	tr func(string) string
}

func newEncoder(doc *fpdf.Fpdf) *encoder {
	return &encoder{tr: doc.UnicodeTranslatorFromDescriptor("")}
}

// encode returns s in cp1252 and the number of runes replaced with '?'.
func (e *encoder) encode(s string) (string, int) {
	var (
		b strings.Builder
		n int
	)
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		// The translator maps runes it cannot encode to '.'.
		if t := e.tr(string(r)); len(t) == 1 && t != "." {
			b.WriteString(t)
			continue
		}
		b.WriteByte('?')
		n++
	}
	return b.String(), n
}

func flag(set func(*Span)) render.MarkFunc[[]Span] {
	return func(content []Span, _ any, _ *tree.Node, _ render.Attrs) ([]Span, error) {
		return each(content, set), nil
	}
}

func each(spans []Span, fn func(*Span)) []Span {
	out := make([]Span, len(spans))
	copy(out, spans)
	for i := range out {
		if !out[i].Break {
			fn(&out[i])
		}
	}
	return out
}

func end(spans []Span, gap float64) []Span {
	return append(spans, Span{Break: true, Gap: gap})
}

func (a adapter) link(content []Span, v any, _ *tree.Node, _ render.Attrs) ([]Span, error) {
	url, _ := v.(string)
	if url == "" {
		return content, nil
	}
	out := each(content, func(s *Span) {
		if s.Link == "" {
			s.Link = url
		}
		s.Underline = true
	})
	if a.roles.link.colorSet {
		return paint(out, a.roles.link), nil
	}
	return paint(out, ansiAttrs{color: a.cfg.LinkRGB, colorSet: true}), nil
}

func (a adapter) color(content []Span, v any, _ *tree.Node, _ render.Attrs) ([]Span, error) {
	hex, _ := v.(string)
	r, g, b, ok := palette.ParseHex(hex)
	if !ok {
		return content, nil
	}
	return each(content, func(s *Span) {
		if !s.Colored {
			s.Color = [3]int{int(r), int(g), int(b)}
			s.Colored = true
		}
	}), nil
}

func (a adapter) paragraph(_ *tree.Node, children []Span, _ render.Attrs) ([]Span, error) {
	return end(children, 0.5), nil
}

func (a adapter) header(n *tree.Node, children []Span, _ render.Attrs) ([]Span, error) {
	level := max(1, min(6, n.Attributes.Int(tree.AttrHeader)))
	scale := a.cfg.HeadingScale[level-1]
	out := each(children, func(s *Span) {
		s.Bold = true
		if scale > 0 {
			s.Scale = s.scale() * scale
		}
	})
	return end(paint(out, a.roles.heading[level-1]), 0.5), nil
}

func (a adapter) blockquote(_ *tree.Node, children []Span, _ render.Attrs) ([]Span, error) {
	out := each(children, func(s *Span) {
		s.Italic = true
		s.Indent++
	})
	return end(paint(out, a.roles.quote), 0.5), nil
}

func (a adapter) code(text string, indent int) Span {
	sp := Span{Text: text, Mono: true, Indent: indent}
	if a.roles.code.colorSet {
		sp.Color, sp.Colored = a.roles.code.color, true
	}
	return sp
}

func (a adapter) codeLine(n *tree.Node, _ []Span, _ render.Attrs) ([]Span, error) {
	return end([]Span{a.code(n.TextContent(), 1)}, 0.5), nil
}

func (a adapter) codeContainer(n *tree.Node, _ *render.Walker[[]Span]) ([]Span, error) {
	lines := make([]string, 0, len(n.Children))
	for _, l := range n.Children {
		lines = append(lines, l.TextContent())
	}
	return end([]Span{a.code(strings.Join(lines, "\n"), 1)}, 0.5), nil
}

func (a adapter) list(n *tree.Node, w *render.Walker[[]Span]) ([]Span, error) {
	var out []Span
	if err := a.listSpans(n, w, 0, &out); err != nil {
		return nil, err
	}
	if len(out) > 0 {
		out[len(out)-1].Gap = 0.5
	}
	return out, nil
}

func (a adapter) listSpans(n *tree.Node, w *render.Walker[[]Span], depth int, out *[]Span) error {
	for i, item := range n.Children {
		*out = append(*out, Span{Text: itemMarker(item, i), Indent: depth})
		var nested []*tree.Node
		for _, c := range item.Children {
			if c.Type == tree.TypeList {
				nested = append(nested, c)
				continue
			}
			spans, err := w.Render(c)
			if err != nil {
				return err
			}
			*out = append(*out, spans...)
		}
		*out = append(*out, Span{Break: true})
		for _, sub := range nested {
			if err := a.listSpans(sub, w, depth+1, out); err != nil {
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

func (a adapter) looseItem(n *tree.Node, children []Span, _ render.Attrs) ([]Span, error) {
	marker := Span{Text: itemMarker(n, 0), Indent: n.Attributes.Int(tree.AttrIndent)}
	return end(append([]Span{marker}, children...), 0), nil
}

func (a adapter) looseCell(_ *tree.Node, children []Span, _ render.Attrs) ([]Span, error) {
	return end(children, 0), nil
}

func (a adapter) table(n *tree.Node, w *render.Walker[[]Span]) ([]Span, error) {
	var out []Span
	for _, row := range n.Children {
		for i, cell := range row.Children {
			if i > 0 {
				out = append(out, Span{Text: "  |  "})
			}
			spans, err := w.Children(cell)
			if err != nil {
				return nil, err
			}
			out = append(out, spans...)
		}
		out = append(out, Span{Break: true})
	}
	if len(out) > 0 {
		out[len(out)-1].Gap = 0.5
	}
	return out, nil
}

func (a adapter) embed(kind, label, url string) Span {
	sp := Span{Text: "[" + kind + ": " + label + "]", Italic: true}
	if url != "" && !strings.HasPrefix(url, "data:") {
		sp.Link = url
	}
	if a.roles.embed.colorSet {
		sp.Color, sp.Colored = a.roles.embed.color, true
	}
	return sp
}

func (a adapter) image(n *tree.Node, _ []Span, _ render.Attrs) ([]Span, error) {
	src := n.Source()
	if src == "" {
		return nil, nil
	}
	label := src
	if alt, _ := n.Attributes["alt"].(string); alt != "" {
		label = alt
	} else if strings.HasPrefix(src, "data:") {
		label = "inline"
	}
	return []Span{a.embed("image", label, src)}, nil
}

func (a adapter) video(n *tree.Node, _ []Span, _ render.Attrs) ([]Span, error) {
	src := n.Source()
	if src == "" {
		return nil, nil
	}
	return end([]Span{a.embed("video", src, src)}, 0.5), nil
}

func (a adapter) formula(n *tree.Node, _ []Span, _ render.Attrs) ([]Span, error) {
	return []Span{{Text: n.Source(), Mono: true}}, nil
}

func (a adapter) unknown(n *tree.Node) ([]Span, error) {
	if a.cfg.Unknown != nil {
		s, err := a.cfg.Unknown(n)
		if err != nil || s == "" {
			return nil, err
		}
		return []Span{{Text: s}}, nil
	}
	if len(n.Children) > 0 {
		return []Span{{Text: n.TextContent()}}, nil
	}
	a.log.Debug("no renderer for embed", "type", n.Type)
	return []Span{a.embed(n.Type, n.Source(), "")}, nil
}

func isCoreFont(name string) bool {
	switch name {
	case "Courier", "Helvetica", "Times":
		return true
	default:
		return false
	}
}

func validateImagePath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
		return fmt.Errorf("corner image must be PNG or JPEG")
	}
	return nil
}

func imageTypeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG"
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return ""
	}
}

type cornerImage struct {
	path   string
	opts   fpdf.ImageOptions
	width  float64
	height float64
}

func prepareCornerImage(doc *fpdf.Fpdf, cfg Config) (*cornerImage, error) {
	if cfg.CornerImagePath == "" {
		return nil, nil
	}
	imageType := imageTypeForPath(cfg.CornerImagePath)
	if imageType == "" {
		return nil, fmt.Errorf("pdf render: corner image must be PNG or JPEG")
	}
	opts := fpdf.ImageOptions{
		ImageType: imageType,
		ReadDpi:   true,
	}
	info := doc.RegisterImageOptions(cfg.CornerImagePath, opts)
	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("pdf render: load corner image: %w", err)
	}
	width, height := info.Extent()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("pdf render: invalid corner image dimensions")
	}
	maxW, maxH := cfg.CornerImageMaxWidth, cfg.CornerImageMaxHeight
	if maxW > 0 || maxH > 0 {
		scale := 1.0
		if maxW > 0 {
			scale = math.Min(scale, maxW/width)
		}
		if maxH > 0 {
			scale = math.Min(scale, maxH/height)
		}
		width *= scale
		height *= scale
	}
	return &cornerImage{
		path:   cfg.CornerImagePath,
		opts:   opts,
		width:  width,
		height: height,
	}, nil
}
