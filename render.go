package deltaf

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"pkt.systems/deltaf/ansi"
	"pkt.systems/deltaf/delta"
	"pkt.systems/deltaf/dom"
	"pkt.systems/deltaf/group"
	"pkt.systems/deltaf/html"
	"pkt.systems/deltaf/markdown"
	"pkt.systems/deltaf/pdf"
	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// DefaultFormat is used when RenderRequest.Format is empty.
const DefaultFormat = "ansi"

// ErrUnknownFormat reports a format name that is not registered.
var ErrUnknownFormat = errors.New("unknown format")

// RenderRequest configures Render.
type RenderRequest struct {
	Reader io.Reader
	Writer io.Writer
	// Format is one of Formats(). Empty means DefaultFormat.
	Format string
	// Width applies to terminal formats. Zero means ansi.DefaultWidth.
	Width int
	// Theme applies to the "ansi" and "pdf" formats.
	Theme   ansi.Theme
	Options []RenderOption
}

type formatFunc func(root *tree.Node, req RenderRequest, cfg renderConfig) error

var formats = map[string]formatFunc{
	"ansi":       renderANSI,
	"text":       renderText,
	"html":       renderHTML,
	"dom":        renderDOM,
	"markdown":   renderMarkdown,
	"commonmark": renderCommonMark,
	"pdf":        renderPDF,
}

// Formats returns the registered format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupFormat(name string) (formatFunc, error) {
	if name == "" {
		name = DefaultFormat
	}
	f, ok := formats[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
	}
	return f, nil
}

// Render reads a JSON delta from Reader and writes it to Writer in Format.
func Render(req RenderRequest) error {
	if req.Reader == nil {
		return fmt.Errorf("render: reader is nil")
	}
	if req.Writer == nil {
		return fmt.Errorf("render: writer is nil")
	}
	f, err := lookupFormat(req.Format)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	src, err := io.ReadAll(req.Reader)
	if err != nil {
		return fmt.Errorf("render: read: %w", err)
	}
	cfg := newRenderConfig(req.Options)
	root, err := parse(src, cfg)
	if err != nil {
		return err
	}
	if err := f(root, req, cfg); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// Parse validates and decodes a JSON delta and returns its grouped tree.
func Parse(src []byte, opts ...RenderOption) (*tree.Node, error) {
	return parse(src, newRenderConfig(opts))
}

func parse(src []byte, cfg renderConfig) (*tree.Node, error) {
	if err := ValidateInput(src); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	ops, err := delta.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	root, err := tree.Build(ops, cfg.tree)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return group.Chain(cfg.groupers...)(root), nil
}

func write(w io.Writer, s string) error {
	_, err := io.WriteString(w, s)
	return err
}

func priorityExtensions[T any](cfg renderConfig) []func(*render.Builder[T]) {
	if len(cfg.priorities) == 0 {
		return nil
	}
	return []func(*render.Builder[T]){func(b *render.Builder[T]) {
		for i, name := range cfg.priorities {
			b.Priority(name, 1000-i)
		}
	}}
}

func renderANSI(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	theme := req.Theme
	if theme == nil {
		theme = ansi.DefaultTheme()
	}
	return renderTerminal(root, req, cfg, theme)
}

func renderText(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	cfg.osc8 = false
	return renderTerminal(root, req, cfg, ansi.BoringTheme())
}

func renderTerminal(root *tree.Node, req RenderRequest, cfg renderConfig, theme ansi.Theme) error {
	r, err := ansi.New(ansi.Options{
		Theme:    theme,
		Width:    req.Width,
		OSC8:     cfg.osc8,
		SoftWrap: cfg.softWrap,
		Unknown:  cfg.unknown,
		Logger:   cfg.logger,
	}, priorityExtensions[string](cfg)...)
	if err != nil {
		return err
	}
	out, err := r.Render(root)
	if err != nil {
		return err
	}
	return write(req.Writer, out)
}

func renderHTML(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	opts := html.DefaultOptions()
	if cfg.classPrefix != "" {
		opts.ClassPrefix = cfg.classPrefix
	}
	opts.InlineStyles = cfg.inlineStyles
	opts.Sanitize = cfg.sanitize
	opts.Minify = cfg.minify
	opts.Unknown = cfg.unknown
	opts.Logger = cfg.logger
	r, err := html.New(opts, priorityExtensions[string](cfg)...)
	if err != nil {
		return err
	}
	out, err := r.Render(root)
	if err != nil {
		return err
	}
	return write(req.Writer, out+"\n")
}

func renderDOM(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	opts := dom.Options{
		ClassPrefix:  cfg.classPrefix,
		InlineStyles: cfg.inlineStyles,
		LinkTarget:   html.DefaultOptions().LinkTarget,
		Logger:       cfg.logger,
	}
	if cfg.unknown != nil {
		opts.Unknown = func(n *tree.Node) (dom.Fragment, error) {
			s, err := cfg.unknown(n)
			if err != nil || s == "" {
				return nil, err
			}
			return dom.Text(s), nil
		}
	}
	r, err := dom.New(opts, priorityExtensions[dom.Fragment](cfg)...)
	if err != nil {
		return err
	}
	node, err := r.Render(root)
	if err != nil {
		return err
	}
	out, err := dom.String(node)
	if err != nil {
		return err
	}
	return write(req.Writer, out+"\n")
}

func renderMarkdown(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	return renderDialect(root, req, cfg, cfg.dialect)
}

func renderCommonMark(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	return renderDialect(root, req, cfg, markdown.CommonMark)
}

func renderDialect(root *tree.Node, req RenderRequest, cfg renderConfig, d markdown.Dialect) error {
	r, err := markdown.New(markdown.Options{
		Dialect: d,
		Unknown: cfg.unknown,
		Logger:  cfg.logger,
	}, priorityExtensions[string](cfg)...)
	if err != nil {
		return err
	}
	out, err := r.Render(root)
	if err != nil {
		return err
	}
	return write(req.Writer, out)
}

func renderPDF(root *tree.Node, req RenderRequest, cfg renderConfig) error {
	pc := cfg.pdf
	if pc.Theme == nil {
		pc.Theme = req.Theme
	}
	if pc.Unknown == nil {
		pc.Unknown = cfg.unknown
	}
	if pc.Logger == nil {
		pc.Logger = cfg.logger
	}
	return pdf.Render(pdf.RenderRequest{
		Root:   root,
		Writer: req.Writer,
		Config: pc,
		Extend: priorityExtensions[[]pdf.Span](cfg),
	})
}
