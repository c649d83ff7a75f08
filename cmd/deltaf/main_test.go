package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/deltaf"
	"pkt.systems/deltaf/ansi"
)

const helloDelta = `{"ops":[{"insert":"hello\n"}]}`

func readSource(t *testing.T, src inputSource) string {
	t.Helper()
	reader, closer, err := src.open(context.Background())
	if err != nil {
		t.Fatalf("open %s: %v", src.name, err)
	}
	defer func() { _ = closer.Close() }()
	buf, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read %s: %v", src.name, err)
	}
	return string(buf)
}

func TestInputSourceFileAndURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.json")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	client := deltaf.NewHTTPClient(0, nil)

	src, err := makeInputSource(client, path)
	if err != nil {
		t.Fatalf("makeInputSource file: %v", err)
	}
	if got := readSource(t, src); got != "hello" {
		t.Fatalf("unexpected file content: %q", got)
	}

	src, err = makeInputSource(client, "file://"+path)
	if err != nil {
		t.Fatalf("makeInputSource file URL: %v", err)
	}
	if got := readSource(t, src); got != "hello" {
		t.Fatalf("unexpected file URL content: %q", got)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("delta"))
	}))
	defer srv.Close()
	src, err = makeInputSource(client, srv.URL)
	if err != nil {
		t.Fatalf("makeInputSource http: %v", err)
	}
	if got := readSource(t, src); got != "delta" {
		t.Fatalf("unexpected http content: %q", got)
	}
}

func TestInputSourceHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()
	src, err := makeInputSource(deltaf.NewHTTPClient(0, nil), srv.URL)
	if err != nil {
		t.Fatalf("makeInputSource: %v", err)
	}
	if _, _, err := src.open(context.Background()); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("expected 404 error, got %v", err)
	}
}

func TestInputSourceEmpty(t *testing.T) {
	if _, err := makeInputSource(nil, "  "); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestRenderInputsKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	if err := os.WriteFile(first, []byte(`{"ops":[{"insert":"one\n"}]}`), 0o644); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := os.WriteFile(second, []byte(`{"ops":[{"insert":"two\n"}]}`), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	var out bytes.Buffer
	req := deltaf.RenderRequest{Format: "text", Width: 80, Theme: ansi.BoringTheme()}
	if err := renderInputs(context.Background(), deltaf.NewHTTPClient(0, nil), []string{first, second}, &out, req); err != nil {
		t.Fatalf("renderInputs: %v", err)
	}
	if got := out.String(); got != "one\ntwo\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRenderInputsReportsFailingInput(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(helloDelta), 0o644); err != nil {
		t.Fatalf("write good: %v", err)
	}
	if err := os.WriteFile(bad, []byte(`{"ops":[{"insert":42}]}`), 0o644); err != nil {
		t.Fatalf("write bad: %v", err)
	}
	var out bytes.Buffer
	req := deltaf.RenderRequest{Format: "text", Width: 80}
	err := renderInputs(context.Background(), deltaf.NewHTTPClient(0, nil), []string{good, bad}, &out, req)
	if err == nil || !strings.Contains(err.Error(), "bad.json") {
		t.Fatalf("expected error naming bad.json, got %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output on failure, got %q", out.String())
	}
}

func TestResolveOSC8(t *testing.T) {
	cases := map[string]bool{"on": true, "YES": true, "off": false, "0": false}
	for in, want := range cases {
		got, err := resolveOSC8(in)
		if err != nil {
			t.Fatalf("resolveOSC8(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("resolveOSC8(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := resolveOSC8("maybe"); err == nil {
		t.Fatalf("expected error for invalid mode")
	}
}

func TestLoadConfigTOMLAndYAML(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "deltaf.toml")
	tomlData := "format = \"html\"\nwidth = 60\npriorities = [\"italic\"]\n\n[pdf]\npage_size = \"Letter\"\nmargin = 36.0\n"
	if err := os.WriteFile(tomlPath, []byte(tomlData), 0o644); err != nil {
		t.Fatalf("write toml: %v", err)
	}
	cfg, err := loadConfig(tomlPath)
	if err != nil {
		t.Fatalf("loadConfig toml: %v", err)
	}
	if cfg.Format != "html" || cfg.Width != 60 || cfg.PDF.PageSize != "Letter" || cfg.PDF.Margin != 36 {
		t.Fatalf("unexpected toml config: %+v", cfg)
	}
	if len(cfg.Priorities) != 1 || cfg.Priorities[0] != "italic" {
		t.Fatalf("unexpected priorities: %v", cfg.Priorities)
	}

	yamlPath := filepath.Join(dir, "deltaf.yaml")
	yamlData := "theme: nord\nnormalize_text: false\nblock_embeds: [video, chart]\n"
	if err := os.WriteFile(yamlPath, []byte(yamlData), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	cfg, err = loadConfig(yamlPath)
	if err != nil {
		t.Fatalf("loadConfig yaml: %v", err)
	}
	if cfg.Theme != "nord" || cfg.NormalizeText == nil || *cfg.NormalizeText {
		t.Fatalf("unexpected yaml config: %+v", cfg)
	}
	if len(cfg.BlockEmbeds) != 2 || cfg.BlockEmbeds[1] != "chart" {
		t.Fatalf("unexpected block embeds: %v", cfg.BlockEmbeds)
	}

	if _, err := loadConfig(filepath.Join(dir, "deltaf.ini")); err == nil {
		t.Fatalf("expected error for missing config")
	}
}

func TestApplyFileConfigFlagsWin(t *testing.T) {
	o := options{format: "ansi", width: 100, themeName: "default"}
	fc := fileConfig{Format: "html", Width: 60, Theme: "nord", Minify: true}
	changed := func(name string) bool { return name == "width" }
	applyFileConfig(&o, fc, changed)
	if o.format != "html" || o.themeName != "nord" {
		t.Fatalf("expected file values for unchanged flags: %+v", o)
	}
	if o.width != 100 {
		t.Fatalf("expected --width to win, got %d", o.width)
	}
	if !o.minify {
		t.Fatalf("expected minify from file")
	}
}

func TestFileOptionsTreeConfig(t *testing.T) {
	off := false
	opts := fileOptions(fileConfig{ClassPrefix: "x", NormalizeText: &off})
	if len(opts) != 2 {
		t.Fatalf("expected two options, got %d", len(opts))
	}
	if len(fileOptions(fileConfig{})) != 0 {
		t.Fatalf("expected no options for empty config")
	}
}

func TestNormalizePathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := normalizePath("~/x.json"); got != filepath.Join(home, "x.json") {
		t.Fatalf("unexpected path: %q", got)
	}
}
