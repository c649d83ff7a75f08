package html

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/deltaf/delta"
	"pkt.systems/deltaf/group"
	"pkt.systems/deltaf/render"
	"pkt.systems/deltaf/tree"
)

func renderOps(t *testing.T, opts Options, ops ...delta.Op) string {
	t.Helper()
	r, err := New(opts)
	require.NoError(t, err)
	return renderWith(t, r, tree.DefaultConfig(), ops...)
}

func renderWith(t *testing.T, r *Renderer, cfg tree.Config, ops ...delta.Op) string {
	t.Helper()
	root, err := tree.Build(ops, cfg)
	require.NoError(t, err)
	out, err := r.Render(group.All(root))
	require.NoError(t, err)
	return out
}

func nl(attrs map[string]any) delta.Op { return delta.Text("\n", attrs) }

func TestRenderBlocks(t *testing.T) {
	tests := []struct {
		name string
		ops  []delta.Op
		want string
	}{
		{
			name: "paragraph with marks",
			ops:  []delta.Op{delta.Text("Hello ", nil), delta.Text("world", map[string]any{"bold": true}), nl(nil)},
			want: "<p>Hello <strong>world</strong></p>",
		},
		{
			name: "header",
			ops:  []delta.Op{delta.Text("Title", nil), nl(map[string]any{"header": 2})},
			want: "<h2>Title</h2>",
		},
		{
			name: "empty line",
			ops:  []delta.Op{delta.Text("\n", nil)},
			want: "<p><br/></p>",
		},
		{
			name: "escaping",
			ops:  []delta.Op{delta.Text("a < b & c", nil), nl(nil)},
			want: "<p>a &lt; b &amp; c</p>",
		},
		{
			name: "alignment class",
			ops:  []delta.Op{delta.Text("x", nil), nl(map[string]any{"align": "center"})},
			want: `<p class="ql-align-center">x</p>`,
		},
		{
			name: "blockquote",
			ops:  []delta.Op{delta.Text("q", nil), nl(map[string]any{"blockquote": true})},
			want: "<blockquote>q</blockquote>",
		},
		{
			name: "script and nesting",
			ops:  []delta.Op{delta.Text("2", map[string]any{"script": "super", "italic": true}), nl(nil)},
			want: "<p><sup><em>2</em></sup></p>",
		},
		{
			name: "formula",
			ops:  []delta.Op{delta.EmbedOp("formula", "e=mc^2", nil), nl(nil)},
			want: `<p><span class="ql-formula">e=mc^2</span></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderOps(t, DefaultOptions(), tt.ops...))
		})
	}
}

func TestRenderInlineStyles(t *testing.T) {
	opts := DefaultOptions()
	opts.InlineStyles = true
	out := renderOps(t, opts,
		delta.Text("x", map[string]any{"size": "large"}),
		nl(map[string]any{"align": "right", "indent": 2}),
	)
	assert.Equal(t, `<p style="text-align:right;padding-left:6em"><span style="font-size:large">x</span></p>`, out)
}

func TestRenderLinkWithColor(t *testing.T) {
	out := renderOps(t, DefaultOptions(),
		delta.Text("site", map[string]any{"link": "https://x.org", "color": "#e60000"}),
		nl(nil),
	)
	assert.Equal(t, `<p><a href="https://x.org" target="_blank" style="color:#e60000">site</a></p>`, out)
}

func TestRenderUnsafeLink(t *testing.T) {
	var logs bytes.Buffer
	opts := DefaultOptions()
	opts.LinkTarget = ""
	opts.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	out := renderOps(t, opts,
		delta.Text("x", map[string]any{"link": "javascript:alert(1)"}),
		nl(nil),
	)
	assert.Equal(t, `<p><a href="unsafe:javascript:alert(1)">x</a></p>`, out)
	assert.Contains(t, logs.String(), "unsafe url replaced")
}

func TestRenderLists(t *testing.T) {
	out := renderOps(t, DefaultOptions(),
		delta.Text("Item one", nil), nl(map[string]any{"list": "bullet"}),
		delta.Text("Item two", nil), nl(map[string]any{"list": "bullet"}),
	)
	assert.Equal(t, "<ul><li>Item one</li><li>Item two</li></ul>", out)

	out = renderOps(t, DefaultOptions(),
		delta.Text("a", nil), nl(map[string]any{"list": "ordered"}),
		delta.Text("b", nil), nl(map[string]any{"list": "bullet", "indent": 1}),
		delta.Text("c", nil), nl(map[string]any{"list": "ordered"}),
	)
	assert.Equal(t, "<ol><li>a<ul><li>b</li></ul></li><li>c</li></ol>", out)

	out = renderOps(t, DefaultOptions(),
		delta.Text("done", nil), nl(map[string]any{"list": "checked"}),
		delta.Text("todo", nil), nl(map[string]any{"list": "unchecked"}),
	)
	assert.Equal(t, `<ul class="ql-checklist"><li data-checked="true">done</li><li data-checked="false">todo</li></ul>`, out)
}

func TestRenderOrderedStart(t *testing.T) {
	out := renderOps(t, DefaultOptions(),
		delta.Text("one", nil), nl(map[string]any{"list": "ordered"}),
		delta.Text("dot", nil), nl(map[string]any{"list": "bullet"}),
		delta.Text("two", nil), nl(map[string]any{"list": "ordered"}),
	)
	assert.Equal(t, `<ol><li>one</li></ol><ul><li>dot</li></ul><ol start="2"><li>two</li></ol>`, out)
}

func TestRenderCodeContainer(t *testing.T) {
	out := renderOps(t, DefaultOptions(),
		delta.Text("if a < b {", nil), nl(map[string]any{"code-block": "go"}),
		delta.Text("}", nil), nl(map[string]any{"code-block": "go"}),
	)
	assert.Equal(t, `<pre class="ql-syntax" data-language="go" spellcheck="false">if a &lt; b {`+"\n"+`}</pre>`, out)
}

func TestRenderTable(t *testing.T) {
	out := renderOps(t, DefaultOptions(),
		delta.Text("a1", nil), nl(map[string]any{"table": "r1"}),
		delta.Text("b1", nil), nl(map[string]any{"table": "r1"}),
		delta.Text("a2", nil), nl(map[string]any{"table": "r2"}),
	)
	assert.Equal(t, `<table><tbody><tr><td data-row="r1">a1</td><td data-row="r1">b1</td></tr><tr><td data-row="r2">a2</td></tr></tbody></table>`, out)
}

func TestRenderEmbeds(t *testing.T) {
	out := renderOps(t, DefaultOptions(),
		delta.EmbedOp("image", "https://x.org/a.png", map[string]any{"alt": "pic", "link": "https://x.org"}),
		nl(nil),
		delta.EmbedOp("video", "https://v.example/embed", nil),
		delta.EmbedOp("video", "", nil),
	)
	assert.Equal(t,
		`<p><a href="https://x.org" target="_blank"><img src="https://x.org/a.png" alt="pic"/></a></p>`+
			`<iframe class="ql-video" frameborder="0" allowfullscreen="true" src="https://v.example/embed"></iframe>`,
		out)
}

func TestRenderUnknownAndExtend(t *testing.T) {
	opts := DefaultOptions()
	opts.Unknown = func(n *tree.Node) (string, error) {
		return `<span class="mention">@` + n.Source() + `</span>`, nil
	}
	r, err := New(opts, func(b *render.Builder[string]) {
		b.Block("divider", func(*tree.Node, string, render.Attrs) (string, error) { return "<hr/>", nil })
	})
	require.NoError(t, err)
	cfg := tree.DefaultConfig()
	cfg.BlockEmbeds = append(cfg.BlockEmbeds, "divider")

	out := renderWith(t, r, cfg,
		delta.Text("hi ", nil),
		delta.EmbedOp("mention", map[string]any{"url": "ada"}, map[string]any{"bold": true}),
		nl(nil),
		delta.EmbedOp("divider", true, nil),
	)
	assert.Equal(t, `<p>hi <strong><span class="mention">@ada</span></strong></p><hr/>`, out)
}

func TestNewRejectsConflictingExtension(t *testing.T) {
	_, err := New(DefaultOptions(), func(b *render.Builder[string]) {
		b.Tag("bold", "b")
	})
	var cerr *render.ConfigError
	assert.ErrorAs(t, err, &cerr)
}

func TestSanitize(t *testing.T) {
	opts := DefaultOptions()
	opts.Sanitize = true
	opts.Unknown = func(*tree.Node) (string, error) { return "<script>alert(1)</script>", nil }
	out := renderOps(t, opts,
		delta.Text("ok", map[string]any{"color": "red"}),
		delta.EmbedOp("widget", "x", nil),
		nl(map[string]any{"align": "center"}),
	)
	assert.NotContains(t, out, "<script")
	assert.Contains(t, out, "ok")
	assert.Contains(t, out, "ql-align-center")
}

func TestMinify(t *testing.T) {
	ops := []delta.Op{
		delta.Text("a", nil), nl(map[string]any{"align": "center"}),
		delta.Text("b", nil), nl(nil),
	}
	plain := renderOps(t, DefaultOptions(), ops...)
	opts := DefaultOptions()
	opts.Minify = true
	small := renderOps(t, opts, ops...)
	assert.LessOrEqual(t, len(small), len(plain))
	assert.Contains(t, small, "a")
	assert.Contains(t, small, "b")
}
