package deltaf

import (
	"log/slog"

	"pkt.systems/deltaf/group"
	"pkt.systems/deltaf/markdown"
	"pkt.systems/deltaf/pdf"
	"pkt.systems/deltaf/tree"
)

// RenderOption configures rendering behavior.
type RenderOption func(*renderConfig)

type renderConfig struct {
	osc8         bool
	softWrap     bool
	minify       bool
	sanitize     bool
	inlineStyles bool
	classPrefix  string
	priorities   []string
	logger       *slog.Logger
	tree         tree.Config
	groupers     []group.Transformer
	groupersSet  bool
	unknown      func(*tree.Node) (string, error)
	dialect      markdown.Dialect
	pdf          pdf.Config
}

func newRenderConfig(opts []RenderOption) renderConfig {
	cfg := renderConfig{
		tree:    tree.DefaultConfig(),
		dialect: markdown.GitHub,
		pdf:     pdf.DefaultConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if !cfg.groupersSet {
		cfg.groupers = []group.Transformer{group.Lists, group.Tables, group.CodeBlocks}
	}
	return cfg
}

// WithOSC8 enables or disables OSC 8 hyperlinks in terminal output.
func WithOSC8(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.osc8 = enabled
	}
}

// WithSoftWrap enables soft wrapping for long words.
func WithSoftWrap(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.softWrap = enabled
	}
}

// WithMinify minifies HTML output.
func WithMinify(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.minify = enabled
	}
}

// WithSanitize runs HTML output through a user-generated-content policy.
func WithSanitize(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.sanitize = enabled
	}
}

// WithInlineStyles emits style attributes instead of classes in HTML and
// DOM output.
func WithInlineStyles(enabled bool) RenderOption {
	return func(cfg *renderConfig) {
		cfg.inlineStyles = enabled
	}
}

// WithClassPrefix sets the HTML class prefix ("ql" by default).
func WithClassPrefix(prefix string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.classPrefix = prefix
	}
}

// WithPriorities lifts the named marks above all others, the first name
// outermost. It applies to every format.
func WithPriorities(names ...string) RenderOption {
	return func(cfg *renderConfig) {
		cfg.priorities = names
	}
}

// WithLogger sets the logger handed to the adapters.
func WithLogger(logger *slog.Logger) RenderOption {
	return func(cfg *renderConfig) {
		cfg.logger = logger
	}
}

// WithTreeConfig replaces the tree builder configuration.
func WithTreeConfig(c tree.Config) RenderOption {
	return func(cfg *renderConfig) {
		cfg.tree = c
	}
}

// WithGroupers replaces the default grouping transformers. No arguments
// disables grouping.
func WithGroupers(fns ...group.Transformer) RenderOption {
	return func(cfg *renderConfig) {
		cfg.groupers = fns
		cfg.groupersSet = true
	}
}

// WithUnknown renders node types no adapter knows, for example with a
// Lua plugin.
func WithUnknown(fn func(*tree.Node) (string, error)) RenderOption {
	return func(cfg *renderConfig) {
		cfg.unknown = fn
	}
}

// WithDialect selects the Markdown dialect of the "markdown" format.
func WithDialect(d markdown.Dialect) RenderOption {
	return func(cfg *renderConfig) {
		cfg.dialect = d
	}
}

// WithPDFConfig sets the page and font settings of the "pdf" format.
func WithPDFConfig(c pdf.Config) RenderOption {
	return func(cfg *renderConfig) {
		cfg.pdf = c
	}
}
