// Package html renders document trees to semantic HTML using Quill's class
// vocabulary (ql-align-center, ql-indent-1, ...).
package html

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tdewolff/minify/v2"
	mhtml "github.com/tdewolff/minify/v2/html"
	xhtml "golang.org/x/net/html"

	"pkt.systems/deltaf/internal/markup"
	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

// Options configures the HTML adapter.
type Options struct {
	// ClassPrefix prefixes generated class names. Defaults to "ql".
	ClassPrefix string
	// InlineStyles emits style properties instead of classes for font,
	// size, alignment, direction and indentation.
	InlineStyles bool
	// LinkTarget and LinkRel are added to every anchor when set.
	LinkTarget string
	LinkRel    string
	// AllowedSchemes lists URL schemes kept in links and embeds. Other
	// absolute URLs are prefixed with "unsafe:". Nil means the defaults.
	AllowedSchemes []string
	// Sanitize passes the output through a user-generated-content policy.
	Sanitize bool
	// Minify minifies the output.
	Minify bool
	// Unknown renders custom node types. Nil renders their children.
	Unknown func(n *tree.Node) (string, error)
	Logger  *slog.Logger
}

// DefaultOptions returns the options matching Quill's own HTML.
func DefaultOptions() Options {
	return Options{
		ClassPrefix: "ql",
		LinkTarget:  "_blank",
	}
}

// Renderer renders trees to HTML. It is safe for concurrent use.
type Renderer struct {
	r      *render.Renderer[string]
	policy *bluemonday.Policy
	min    *minify.M
}

// New builds an HTML renderer. Each extend function may register extra
// handlers before the configuration is frozen.
func New(opts Options, extend ...func(*render.Builder[string])) (*Renderer, error) {
	b := render.NewBuilder[string]()
	markup.Register(b, markup.Kit[string]{
		Text:    xhtml.EscapeString,
		Join:    func(parts []string) string { return strings.Join(parts, "") },
		Element: Element,
		Void:    Void,
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
		return nil, fmt.Errorf("html: %w", err)
	}

	out := &Renderer{r: r}
	if opts.Sanitize {
		out.policy = Policy()
	}
	if opts.Minify {
		out.min = minify.New()
		out.min.AddFunc("text/html", mhtml.Minify)
	}
	return out, nil
}

// Render renders root to an HTML fragment.
func (r *Renderer) Render(root *tree.Node) (string, error) {
	out, err := r.r.Render(root)
	if err != nil {
		return "", err
	}
	if r.policy != nil {
		out = r.policy.Sanitize(out)
	}
	if r.min != nil {
		if out, err = r.min.String("text/html", out); err != nil {
			return "", fmt.Errorf("html: minify: %w", err)
		}
	}
	return out, nil
}

// Policy returns the sanitization policy used when Options.Sanitize is set:
// bluemonday's UGC policy widened to the classes, styles and embeds this
// package emits.
func Policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowStyles("color", "background-color", "text-align", "direction", "font-family", "font-size", "padding-left").Globally()
	p.AllowAttrs("data-language", "spellcheck").OnElements("pre")
	p.AllowAttrs("data-checked").OnElements("li")
	p.AllowAttrs("data-row").OnElements("td")
	p.AllowAttrs("src", "frameborder", "allowfullscreen").OnElements("iframe")
	p.AllowElements("iframe")
	return p
}

// Element writes one element with escaped attribute values.
func Element(tag string, a render.Attrs, content string) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	writeAttrs(&b, a)
	b.WriteByte('>')
	b.WriteString(content)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
	return b.String()
}

// Void writes a self-closing element.
func Void(tag string, a render.Attrs) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tag)
	writeAttrs(&b, a)
	b.WriteString("/>")
	return b.String()
}

func writeAttrs(b *strings.Builder, a render.Attrs) {
	if len(a.Classes) > 0 {
		writeAttr(b, "class", strings.Join(a.Classes, " "))
	}
	for _, p := range a.Attrs {
		writeAttr(b, p.Name, p.Value)
	}
	if len(a.Style) > 0 {
		writeAttr(b, "style", a.StyleString())
	}
}

func writeAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(xhtml.EscapeString(value))
	b.WriteByte('"')
}
