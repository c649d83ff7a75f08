package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/deltaf/delta"
	"pkt.systems/deltaf/group"
	"pkt.systems/deltaf/tree"
)

func renderOps(t *testing.T, d Dialect, ops ...delta.Op) string {
	t.Helper()
	root, err := tree.Build(ops, tree.DefaultConfig())
	require.NoError(t, err)
	r, err := New(Options{Dialect: d})
	require.NoError(t, err)
	out, err := r.Render(group.All(root))
	require.NoError(t, err)
	return out
}

func nl(attrs map[string]any) delta.Op { return delta.Text("\n", attrs) }

func TestRenderInline(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		ops     []delta.Op
		want    string
	}{
		{"bold", CommonMark, []delta.Op{delta.Text("Hello ", nil), delta.Text("world", map[string]any{"bold": true}), nl(nil)}, "Hello **world**\n"},
		{"italic", CommonMark, []delta.Op{delta.Text("it", map[string]any{"italic": true}), nl(nil)}, "*it*\n"},
		{"link outside bold", CommonMark, []delta.Op{delta.Text("x", map[string]any{"bold": true, "link": "https://x"}), nl(nil)}, "[**x**](https://x)\n"},
		{"escaping", CommonMark, []delta.Op{delta.Text("a*b_c", nil), nl(nil)}, "a\\*b\\_c\n"},
		{"code is literal", CommonMark, []delta.Op{delta.Text("a*b", map[string]any{"code": true}), nl(nil)}, "`a*b`\n"},
		{"strike commonmark", CommonMark, []delta.Op{delta.Text("gone", map[string]any{"strike": true}), nl(nil)}, "gone\n"},
		{"strike github", GitHub, []delta.Op{delta.Text("gone", map[string]any{"strike": true}), nl(nil)}, "~~gone~~\n"},
		{"underline dropped", GitHub, []delta.Op{delta.Text("u", map[string]any{"underline": true, "color": "red"}), nl(nil)}, "u\n"},
		{"image", CommonMark, []delta.Op{delta.EmbedOp("image", "https://x/a.png", map[string]any{"alt": "pic"}), nl(nil)}, "![pic](https://x/a.png)\n"},
		{"formula github", GitHub, []delta.Op{delta.EmbedOp("formula", "e=mc^2", nil), nl(nil)}, "$e=mc^2$\n"},
		{"formula commonmark", CommonMark, []delta.Op{delta.EmbedOp("formula", "e=mc^2", nil), nl(nil)}, "`e=mc^2`\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderOps(t, tt.dialect, tt.ops...))
		})
	}
}

func TestRenderBlocks(t *testing.T) {
	out := renderOps(t, CommonMark,
		delta.Text("Title", nil), nl(map[string]any{"header": 1}),
		delta.Text("\n", nil),
		delta.Text("body", nil), nl(nil),
		delta.Text("quoted", nil), nl(map[string]any{"blockquote": true}),
		delta.EmbedOp("video", "https://v", nil),
	)
	assert.Equal(t, "# Title\n\nbody\n\n> quoted\n\n[video](https://v)\n", out)
}

func TestEscapeBlockSyntax(t *testing.T) {
	tests := []struct {
		name string
		ops  []delta.Op
		want string
	}{
		{"paragraphs", []delta.Op{delta.Text("# not a header\n1. not a list\n- nor this\n", nil)}, "\\# not a header\n\n1\\. not a list\n\n\\- nor this\n"},
		{"plus and paren", []delta.Op{delta.Text("+ x\n2) y\n", nil)}, "\\+ x\n\n2\\) y\n"},
		{"fence", []delta.Op{delta.Text("~~~", nil), nl(nil)}, "\\~~~\n"},
		{"quote marker", []delta.Op{delta.Text("> x", nil), nl(nil)}, "\\> x\n"},
		{"indented", []delta.Op{delta.Text("    code", nil), nl(nil)}, "&#32;   code\n"},
		{"inside quote", []delta.Op{delta.Text("- x", nil), nl(map[string]any{"blockquote": true})}, "> \\- x\n"},
		{"inside list", []delta.Op{delta.Text("3. x", nil), nl(map[string]any{"list": "bullet"})}, "- 3\\. x\n"},
		{"inside header", []delta.Op{delta.Text("#tag", nil), nl(map[string]any{"header": 2})}, "## \\#tag\n"},
		{"plain text untouched", []delta.Op{delta.Text("x - 1. y", nil), nl(nil)}, "x - 1. y\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderOps(t, CommonMark, tt.ops...))
		})
	}
}

func TestRenderLists(t *testing.T) {
	out := renderOps(t, CommonMark,
		delta.Text("Item one", nil), nl(map[string]any{"list": "bullet"}),
		delta.Text("Item two", nil), nl(map[string]any{"list": "bullet"}),
	)
	assert.Equal(t, "- Item one\n- Item two\n", out)

	out = renderOps(t, CommonMark,
		delta.Text("a", nil), nl(map[string]any{"list": "ordered"}),
		delta.Text("b", nil), nl(map[string]any{"list": "bullet", "indent": 1}),
		delta.Text("c", nil), nl(map[string]any{"list": "ordered"}),
	)
	assert.Equal(t, "1. a\n   - b\n2. c\n", out)

	out = renderOps(t, GitHub,
		delta.Text("done", nil), nl(map[string]any{"list": "checked"}),
		delta.Text("todo", nil), nl(map[string]any{"list": "unchecked"}),
	)
	assert.Equal(t, "- [x] done\n- [ ] todo\n", out)
}

func TestRenderCode(t *testing.T) {
	out := renderOps(t, CommonMark,
		delta.Text("x := 1", nil), nl(map[string]any{"code-block": "go"}),
		delta.Text("y := 2", nil), nl(map[string]any{"code-block": "go"}),
		delta.Text("print(x)", nil), nl(map[string]any{"code-block": "python"}),
	)
	assert.Equal(t, "```go\nx := 1\ny := 2\n```\n\n```python\nprint(x)\n```\n", out)
}

func TestRenderTables(t *testing.T) {
	ops := []delta.Op{
		delta.Text("a1", nil), nl(map[string]any{"table": "r1"}),
		delta.Text("b1", nil), nl(map[string]any{"table": "r1"}),
		delta.Text("a2", nil), nl(map[string]any{"table": "r2"}),
	}
	assert.Equal(t, "a1 | b1  \na2 | \n", renderOps(t, CommonMark, ops...))

	gfm := renderOps(t, GitHub, ops...)
	for _, want := range []string{"a1", "b1", "a2", "|"} {
		assert.Contains(t, gfm, want)
	}
}

func TestUnknownEmbed(t *testing.T) {
	root, err := tree.Build(delta.Delta{delta.EmbedOp("mention", "ada", nil), nl(nil)}, tree.DefaultConfig())
	require.NoError(t, err)
	r, err := New(Options{Unknown: func(n *tree.Node) (string, error) { return "@" + n.Source(), nil }})
	require.NoError(t, err)
	out, err := r.Render(root)
	require.NoError(t, err)
	assert.Equal(t, "@ada\n", out)
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("GFM")
	require.NoError(t, err)
	assert.Equal(t, GitHub, d)
	_, err = ParseDialect("asciidoc")
	assert.Error(t, err)
}
