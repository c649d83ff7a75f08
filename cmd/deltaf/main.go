package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"pkt.systems/deltaf"
	"pkt.systems/deltaf/ansi"
	"pkt.systems/deltaf/markdown"
	"pkt.systems/deltaf/pdf"
	"pkt.systems/deltaf/plugin"
	"pkt.systems/deltaf/tree"
	"pkt.systems/version"
)

const (
	defaultThemeName = "default"
	defaultWidth     = 80
	httpRetries      = 3
)

func init() {
	version.SetDefaultModule("pkt.systems/deltaf")
}

type options struct {
	format       string
	themeName    string
	width        int
	osc8         string
	listThemes   bool
	listFormats  bool
	outPath      string
	boring       bool
	configPath   string
	pluginPath   string
	dialect      string
	minify       bool
	sanitize     bool
	inlineStyles bool
	verbose      bool
	pdfPageSize  string
	pdfMargin    float64
	pdfFontSize  float64
	pdfTitle     string
	cornerImage  string
}

func main() {
	var o options
	pdfDefaults := pdf.DefaultConfig()
	flags := pflag.NewFlagSet("deltaf", pflag.ExitOnError)
	flags.StringVarP(&o.format, "format", "f", deltaf.DefaultFormat, "Output format (see --list-formats)")
	flags.StringVarP(&o.themeName, "theme", "t", defaultThemeName, "Theme name for ansi and pdf output")
	flags.IntVarP(&o.width, "width", "w", 0, "Output width override (0 uses terminal width if available)")
	flags.StringVarP(&o.osc8, "osc8", "8", "auto", "OSC8 hyperlinks: auto|on|off")
	flags.BoolVar(&o.listThemes, "list-themes", false, "List available themes")
	flags.BoolVar(&o.listFormats, "list-formats", false, "List available output formats")
	flags.StringVarP(&o.outPath, "output", "o", "", "Output file instead of stdout")
	flags.BoolVarP(&o.boring, "boring", "b", false, "Plain text instead of ANSI, or a colorless PDF")
	flags.StringVarP(&o.configPath, "config", "c", "", "Config file (.toml, .yaml or .yml)")
	flags.StringVar(&o.pluginPath, "plugin", "", "Lua script defining render_embed for custom embeds")
	flags.StringVar(&o.dialect, "dialect", "github", "Markdown dialect: github|commonmark")
	flags.BoolVar(&o.minify, "minify", false, "Minify HTML output")
	flags.BoolVar(&o.sanitize, "sanitize", false, "Sanitize HTML output")
	flags.BoolVar(&o.inlineStyles, "inline-styles", false, "Use style attributes instead of classes in HTML")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "Debug logging on stderr")
	flags.StringVar(&o.pdfPageSize, "pdf-page-size", pdfDefaults.PageSize, "PDF page size")
	flags.Float64Var(&o.pdfMargin, "pdf-margin", pdfDefaults.Margin, "Page margin in points")
	flags.Float64Var(&o.pdfFontSize, "pdf-font-size", pdfDefaults.FontSize, "Base font size in points")
	flags.StringVar(&o.pdfTitle, "pdf-title", "", "PDF document title")
	flags.StringVar(&o.cornerImage, "corner-image", "", "Corner image path (PNG or JPEG)")

	flags.SetInterspersed(true)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, version.Module(), version.Current())
		fmt.Fprintf(os.Stderr, "Usage: deltaf [flags] [inputs...]\n")
		fmt.Fprintln(os.Stderr, "\nInputs are JSON deltas: files, file:// or http(s) URLs. Without inputs the delta is read from stdin.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if o.listThemes {
		printLines(ansi.AvailableThemes())
		return
	}
	if o.listFormats {
		printLines(deltaf.Formats())
		return
	}

	logger := newLogger(os.Stderr, o.verbose)
	var fc fileConfig
	if o.configPath != "" {
		var err error
		fc, err = loadConfig(o.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(2)
		}
		applyFileConfig(&o, fc, flags.Changed)
	}

	if !flags.Changed("format") && o.outPath != "" && strings.HasSuffix(strings.ToLower(o.outPath), ".pdf") {
		fmt.Fprintf(os.Stderr, "warning: output %q ends with .pdf; using --format pdf\n", o.outPath)
		o.format = "pdf"
	}

	args := flags.Args()
	if o.format == "pdf" && len(args) > 1 {
		fmt.Fprintln(os.Stderr, "pdf output takes a single input")
		os.Exit(2)
	}

	theme, ok := ansi.ThemeByName(o.themeName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown theme %q\n\n", o.themeName)
		printLines(ansi.AvailableThemes())
		os.Exit(2)
	}
	osc8, err := resolveOSC8(o.osc8)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --osc8 %q: %v\n", o.osc8, err)
		os.Exit(2)
	}
	dialect, err := markdown.ParseDialect(o.dialect)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --dialect: %v\n", err)
		os.Exit(2)
	}

	renderOpts := []deltaf.RenderOption{
		deltaf.WithLogger(logger),
		deltaf.WithOSC8(osc8),
		deltaf.WithMinify(o.minify),
		deltaf.WithSanitize(o.sanitize),
		deltaf.WithInlineStyles(o.inlineStyles),
		deltaf.WithDialect(dialect),
	}
	if o.pluginPath != "" {
		p, err := plugin.Load(normalizePath(o.pluginPath))
		if err != nil {
			fmt.Fprintf(os.Stderr, "plugin: %v\n", err)
			os.Exit(1)
		}
		defer p.Close()
		renderOpts = append(renderOpts, deltaf.WithUnknown(p.Unknown))
	}
	renderOpts = append(renderOpts, fileOptions(fc)...)
	if o.format == "pdf" {
		renderOpts = append(renderOpts, deltaf.WithPDFConfig(pdf.Config{
			PageSize:        o.pdfPageSize,
			Margin:          o.pdfMargin,
			FontSize:        o.pdfFontSize,
			Title:           o.pdfTitle,
			Author:          fc.PDF.Author,
			FontFamily:      fc.PDF.FontFamily,
			LineHeight:      fc.PDF.LineHeight,
			CornerImagePath: o.cornerImage,
			IgnoreColors:    o.boring,
			Theme:           theme,
			Logger:          logger,
		}))
	} else if o.boring && (o.format == "ansi" || o.format == "") {
		o.format = "text"
	}

	writer, closeOut, err := resolveOutput(o.outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open output: %v\n", err)
		os.Exit(1)
	}
	if closeOut != nil {
		defer func() { _ = closeOut.Close() }()
	}
	if o.format == "pdf" && isTerminal(writer) {
		fmt.Fprintln(os.Stderr, "refusing to write PDF to terminal; use -o/--output")
		os.Exit(2)
	}

	req := deltaf.RenderRequest{
		Format:  o.format,
		Width:   resolveWidth(o.width),
		Theme:   theme,
		Options: renderOpts,
	}
	client := deltaf.NewHTTPClient(httpRetries, logger)
	if err := renderInputs(context.Background(), client, args, writer, req); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func applyFileConfig(o *options, fc fileConfig, changed func(string) bool) {
	setString := func(flag string, dst *string, v string) {
		if v != "" && !changed(flag) {
			*dst = v
		}
	}
	setString("format", &o.format, fc.Format)
	setString("theme", &o.themeName, fc.Theme)
	setString("dialect", &o.dialect, fc.Dialect)
	setString("plugin", &o.pluginPath, fc.Plugin)
	setString("pdf-page-size", &o.pdfPageSize, fc.PDF.PageSize)
	setString("pdf-title", &o.pdfTitle, fc.PDF.Title)
	setString("corner-image", &o.cornerImage, fc.PDF.CornerImage)
	if fc.Width > 0 && !changed("width") {
		o.width = fc.Width
	}
	if fc.PDF.Margin > 0 && !changed("pdf-margin") {
		o.pdfMargin = fc.PDF.Margin
	}
	if fc.PDF.FontSize > 0 && !changed("pdf-font-size") {
		o.pdfFontSize = fc.PDF.FontSize
	}
	o.minify = o.minify || fc.Minify
	o.sanitize = o.sanitize || fc.Sanitize
	o.inlineStyles = o.inlineStyles || fc.InlineStyles
}

// fileOptions maps the parts of a config file that have no flag.
func fileOptions(fc fileConfig) []deltaf.RenderOption {
	var opts []deltaf.RenderOption
	if fc.ClassPrefix != "" {
		opts = append(opts, deltaf.WithClassPrefix(fc.ClassPrefix))
	}
	if len(fc.Priorities) > 0 {
		opts = append(opts, deltaf.WithPriorities(fc.Priorities...))
	}
	if len(fc.BlockEmbeds) > 0 || len(fc.BlockAttributes) > 0 || fc.NormalizeText != nil {
		tc := tree.DefaultConfig()
		if len(fc.BlockEmbeds) > 0 {
			tc.BlockEmbeds = fc.BlockEmbeds
		}
		if len(fc.BlockAttributes) > 0 {
			tc.BlockAttributes = append(tc.BlockAttributes, fc.BlockAttributes...)
		}
		if fc.NormalizeText != nil {
			tc.NormalizeText = *fc.NormalizeText
		}
		opts = append(opts, deltaf.WithTreeConfig(tc))
	}
	return opts
}

// renderInputs renders every input concurrently and writes the results in
// argument order.
func renderInputs(ctx context.Context, client *http.Client, args []string, w io.Writer, req deltaf.RenderRequest) error {
	if len(args) == 0 {
		req.Reader = os.Stdin
		req.Writer = w
		return deltaf.Render(req)
	}
	sources := make([]inputSource, 0, len(args))
	for _, raw := range args {
		src, err := makeInputSource(client, raw)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		sources = append(sources, src)
	}
	outputs := make([]bytes.Buffer, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			reader, closer, err := src.open(ctx)
			if err != nil {
				return fmt.Errorf("open input %s: %w", src.name, err)
			}
			defer func() { _ = closer.Close() }()
			r := req
			r.Reader = reader
			r.Writer = &outputs[i]
			if err := deltaf.Render(r); err != nil {
				return fmt.Errorf("%s: %w", src.name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for i := range outputs {
		if _, err := outputs[i].WriteTo(w); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}

func printLines(names []string) {
	for _, name := range names {
		fmt.Fprintln(os.Stdout, name)
	}
}

func resolveWidth(width int) int {
	if width > 0 {
		return width
	}
	return terminalWidth(defaultWidth)
}

func terminalWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil && w > 0 {
			return w
		}
	}
	if value := os.Getenv("COLUMNS"); value != "" {
		if w, err := strconv.Atoi(value); err == nil && w > 0 {
			return w
		}
	}
	return fallback
}

func resolveOSC8(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return ansi.DetectOSC8Support(), nil
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("expected auto|on|off")
	}
}

type inputSource struct {
	name string
	open func(ctx context.Context) (io.Reader, io.Closer, error)
}

func makeInputSource(client *http.Client, raw string) (inputSource, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return inputSource{}, fmt.Errorf("empty input argument")
	}
	if raw == "-" {
		return inputSource{name: "stdin", open: func(context.Context) (io.Reader, io.Closer, error) {
			return os.Stdin, io.NopCloser(nil), nil
		}}, nil
	}
	u, err := url.Parse(raw)
	if err == nil && u.Scheme != "" {
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return inputSource{name: raw, open: func(ctx context.Context) (io.Reader, io.Closer, error) {
				return openURL(ctx, client, raw)
			}}, nil
		case "file":
			path := u.Path
			if path == "" {
				path = u.Host
			}
			if unescaped, err := url.PathUnescape(path); err == nil {
				path = unescaped
			}
			return inputSource{name: raw, open: func(context.Context) (io.Reader, io.Closer, error) {
				return openFile(path)
			}}, nil
		}
	}
	return inputSource{name: raw, open: func(context.Context) (io.Reader, io.Closer, error) {
		return openFile(raw)
	}}, nil
}

func openURL(ctx context.Context, client *http.Client, raw string) (io.Reader, io.Closer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("http %s: %s", raw, resp.Status)
	}
	return resp.Body, resp.Body, nil
}

func openFile(path string) (io.Reader, io.Closer, error) {
	clean := normalizePath(path)
	f, err := os.Open(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func resolveOutput(path string) (io.Writer, io.Closer, error) {
	if strings.TrimSpace(path) == "" {
		return os.Stdout, nil, nil
	}
	clean := normalizePath(path)
	dir := filepath.Dir(clean)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	f, err := os.Create(clean)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func normalizePath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			if path == "~" {
				path = home
			} else {
				path = filepath.Join(home, path[2:])
			}
		}
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		return abs
	}
	return path
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
