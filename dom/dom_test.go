package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"pkt.systems/deltaf/delta"
	"pkt.systems/deltaf/group"
	"pkt.systems/deltaf/tree"
)

func renderDoc(t *testing.T, opts Options, ops ...delta.Op) *xhtml.Node {
	t.Helper()
	root, err := tree.Build(ops, tree.DefaultConfig())
	require.NoError(t, err)
	r, err := New(opts)
	require.NoError(t, err)
	n, err := r.Render(group.All(root))
	require.NoError(t, err)
	return n
}

func TestRenderElementTree(t *testing.T) {
	div := renderDoc(t, Options{},
		delta.Text("Hello ", nil),
		delta.Text("world", map[string]any{"bold": true}),
		delta.Text("\n\n", nil),
		delta.Text("a", nil),
		delta.Text("\n", map[string]any{"list": "bullet"}),
	)
	require.Equal(t, atom.Div, div.DataAtom)

	p := div.FirstChild
	require.NotNil(t, p)
	assert.Equal(t, atom.P, p.DataAtom)
	strong := p.LastChild
	assert.Equal(t, atom.Strong, strong.DataAtom)
	assert.Equal(t, "world", strong.FirstChild.Data)
	assert.Equal(t, atom.Br, p.NextSibling.FirstChild.DataAtom)
	assert.Equal(t, atom.Ul, div.LastChild.DataAtom)

	out, err := String(div)
	require.NoError(t, err)
	assert.Equal(t, "<div><p>Hello <strong>world</strong></p><p><br/></p><ul><li>a</li></ul></div>", out)
}

func TestRenderAttributes(t *testing.T) {
	div := renderDoc(t, Options{LinkTarget: "_blank"},
		delta.Text("a < b", map[string]any{"link": "https://x", "color": "red"}),
		delta.Text("\n", map[string]any{"align": "center"}),
	)
	out, err := String(div)
	require.NoError(t, err)
	assert.Equal(t, `<div><p class="ql-align-center"><a href="https://x" target="_blank" style="color:red">a &lt; b</a></p></div>`, out)
}

func TestRenderCodeAndUnknown(t *testing.T) {
	div := renderDoc(t, Options{
		Unknown: func(n *tree.Node) (Fragment, error) {
			return Text("[" + n.Type + "]"), nil
		},
	},
		delta.Text("x := 1", nil), delta.Text("\n", map[string]any{"code-block": "go"}),
		delta.Text("y := 2", nil), delta.Text("\n", map[string]any{"code-block": "go"}),
		delta.EmbedOp("poll", "p1", nil), delta.Text("\n", nil),
	)
	pre := div.FirstChild
	assert.Equal(t, atom.Pre, pre.DataAtom)
	var lines []string
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		lines = append(lines, c.Data)
	}
	assert.Equal(t, []string{"x := 1", "\n", "y := 2"}, lines)
	assert.Equal(t, "[poll]", div.LastChild.FirstChild.Data)
}
