package deltaf

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/deltaf/group"
	"pkt.systems/deltaf/tree"
)

func readSample(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

func renderSample(t *testing.T, name, format string, opts ...RenderOption) string {
	t.Helper()
	var out bytes.Buffer
	err := Render(RenderRequest{
		Reader:  bytes.NewReader(readSample(t, name)),
		Writer:  &out,
		Format:  format,
		Options: opts,
	})
	require.NoError(t, err)
	return out.String()
}

func TestRenderText(t *testing.T) {
	want := "Release notes\n\n" +
		"Rendering is fast and safe (https://example.com/safe).\n\n" +
		"1. Parse deltas\n" +
		"2. Build trees\n" +
		"   • Group siblings\n" +
		"3. Render\n"
	assert.Equal(t, want, renderSample(t, "basic.json", "text"))
}

func TestRenderFormats(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"html", []string{"<h1>Release notes</h1>", "<strong>fast</strong>", `href="https://example.com/safe"`, "<li>Build trees<ul><li>Group siblings</li></ul></li>"}},
		{"dom", []string{"<div>", "<h1>Release notes</h1>", "<strong>fast</strong>"}},
		{"markdown", []string{"# Release notes", "**fast**", "1. Parse deltas"}},
		{"commonmark", []string{"# Release notes", "**fast**"}},
		{"ansi", []string{"Release notes", "\x1b["}},
		{"", []string{"Release notes", "\x1b["}},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			out := renderSample(t, "basic.json", tt.format)
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestRenderBlocksText(t *testing.T) {
	out := renderSample(t, "blocks.json", "text")
	for _, s := range []string{
		"│ Quoted words",
		"  func main() {}",
		"│ a1 │ b1 │",
		"[x] done\n[ ] todo",
		"[image: https://example.com/cat.png]",
		"[video: https://example.com/clip]",
		"[mention: ada]",
	} {
		assert.Contains(t, out, s)
	}
}

func TestRenderPDF(t *testing.T) {
	out := renderSample(t, "blocks.json", "pdf")
	assert.True(t, strings.HasPrefix(out, "%PDF"))
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(RenderRequest{Reader: strings.NewReader("[]"), Writer: &bytes.Buffer{}, Format: "rtf"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRenderNilIO(t *testing.T) {
	assert.Error(t, Render(RenderRequest{Writer: &bytes.Buffer{}}))
	assert.Error(t, Render(RenderRequest{Reader: strings.NewReader("[]")}))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"ansi", "commonmark", "dom", "html", "markdown", "pdf", "text"}, Formats())
}

func TestRenderWithUnknown(t *testing.T) {
	out := renderSample(t, "blocks.json", "html", WithUnknown(func(n *tree.Node) (string, error) {
		return "@" + n.Source(), nil
	}))
	assert.Contains(t, out, "@ada")

	boom := errors.New("boom")
	err := Render(RenderRequest{
		Reader:  bytes.NewReader(readSample(t, "blocks.json")),
		Writer:  &bytes.Buffer{},
		Format:  "markdown",
		Options: []RenderOption{WithUnknown(func(*tree.Node) (string, error) { return "", boom })},
	})
	assert.ErrorIs(t, err, boom)
}

func TestRenderWithPriorities(t *testing.T) {
	src := `[{"insert":"x","attributes":{"bold":true,"italic":true}},{"insert":"\n"}]`
	var out bytes.Buffer
	require.NoError(t, Render(RenderRequest{Reader: strings.NewReader(src), Writer: &out, Format: "html"}))
	assert.Equal(t, "<p><strong><em>x</em></strong></p>\n", out.String())

	out.Reset()
	require.NoError(t, Render(RenderRequest{
		Reader:  strings.NewReader(src),
		Writer:  &out,
		Format:  "html",
		Options: []RenderOption{WithPriorities(tree.AttrItalic)},
	}))
	assert.Equal(t, "<p><em><strong>x</strong></em></p>\n", out.String())

	out.Reset()
	require.NoError(t, Render(RenderRequest{
		Reader:  strings.NewReader(src),
		Writer:  &out,
		Format:  "dom",
		Options: []RenderOption{WithPriorities(tree.AttrItalic)},
	}))
	assert.Equal(t, "<div><p><em><strong>x</strong></em></p></div>\n", out.String())
}

func TestParse(t *testing.T) {
	root, err := Parse(readSample(t, "basic.json"))
	require.NoError(t, err)
	require.Len(t, root.Children, 3)
	assert.Equal(t, tree.TypeList, root.Children[2].Type)

	flat, err := Parse(readSample(t, "basic.json"), WithGroupers())
	require.NoError(t, err)
	assert.Len(t, flat.Children, 6)

	lists, err := Parse(readSample(t, "blocks.json"), WithGroupers(group.Lists))
	require.NoError(t, err)
	for _, c := range lists.Children {
		assert.NotEqual(t, tree.TypeTable, c.Type)
	}
}

func TestParseReportsOpIndex(t *testing.T) {
	_, err := Parse([]byte(`[{"insert":"a"},{"retain":3}]`))
	var perr *tree.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Index)
}

func TestHTTPRender(t *testing.T) {
	sample := readSample(t, "basic.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/doc.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(sample)
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/doc.json", Writer: &out, Format: "text"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "Release notes\n"))

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: srv.URL + "/missing", Writer: &out})
	assert.ErrorContains(t, err, "status 404")

	err = HTTPRender(context.Background(), HTTPRenderRequest{URL: "ftp://example.com/x", Writer: &out})
	assert.ErrorContains(t, err, "unsupported scheme")
}
