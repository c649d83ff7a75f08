package ansi

import (
	"sort"
	"strings"

	"pkt.systems/deltaf/internal/palette"
)

// Style describes a terminal style as an ANSI prefix sequence.
type Style struct {
	Prefix string
}

// Apply wraps text in the style. Resets inside text re-enter the style so
// nested styles compose.
func (s Style) Apply(text string) string {
	if s.Prefix == "" || text == "" {
		return text
	}
	return s.Prefix + strings.ReplaceAll(text, palette.Reset, palette.Reset+s.Prefix) + palette.Reset
}

// Styles groups the semantic styles used by the renderer.
type Styles struct {
	Text        Style
	Heading     [6]Style
	Emphasis    Style
	Strong      Style
	Underline   Style
	Strike      Style
	CodeInline  Style
	CodeBlock   Style
	Quote       Style
	ListMarker  Style
	LinkText    Style
	LinkURL     Style
	TableBorder Style
	Embed       Style
	// Color enables truecolor output for color and background marks.
	Color bool
}

// Theme provides named styles for document rendering.
type Theme interface {
	Name() string
	Styles() Styles
}

type theme struct {
	name   string
	styles Styles
}

func (t theme) Name() string   { return t.name }
func (t theme) Styles() Styles { return t.styles }

// NewTheme returns a Theme from a Styles definition.
func NewTheme(name string, styles Styles) Theme {
	return theme{name: name, styles: styles}
}

func style(prefixes ...string) Style {
	return Style{Prefix: strings.Join(prefixes, "")}
}

func stylesFromPalette(p palette.Palette) Styles {
	return Styles{
		Text:        style(p.Text),
		Heading:     [6]Style{style(palette.Bold, p.H1), style(palette.Bold, p.H2), style(palette.Bold, p.H3), style(p.H4), style(p.H5), style(p.H6)},
		Emphasis:    style(palette.Italic, p.Emphasis),
		Strong:      style(palette.Bold, p.Strong),
		Underline:   style(palette.Underline),
		Strike:      style(palette.Strike),
		CodeInline:  style(p.CodeInline),
		CodeBlock:   style(p.CodeBlock),
		Quote:       style(p.Quote),
		ListMarker:  style(p.ListMarker),
		LinkText:    style(palette.Underline, p.LinkText),
		LinkURL:     style(p.LinkURL),
		TableBorder: style(p.TableBorder),
		Embed:       style(palette.Italic, p.Embed),
		Color:       true,
	}
}

var builtinThemes = map[string]Theme{
	"default":          theme{name: "default", styles: stylesFromPalette(palette.PaletteDefault)},
	"dracula":          theme{name: "dracula", styles: stylesFromPalette(palette.PaletteDracula)},
	"nord":             theme{name: "nord", styles: stylesFromPalette(palette.PaletteNord)},
	"gruvbox":          theme{name: "gruvbox", styles: stylesFromPalette(palette.PaletteGruvbox)},
	"gruvbox-light":    theme{name: "gruvbox-light", styles: stylesFromPalette(palette.PaletteGruvboxLight)},
	"tokyo-night":      theme{name: "tokyo-night", styles: stylesFromPalette(palette.PaletteTokyoNight)},
	"catppuccin-mocha": theme{name: "catppuccin-mocha", styles: stylesFromPalette(palette.PaletteCatppuccinMocha)},
	"solarized-dark":   theme{name: "solarized-dark", styles: stylesFromPalette(palette.PaletteSolarizedDark)},
	"solarized-light":  theme{name: "solarized-light", styles: stylesFromPalette(palette.PaletteSolarizedLight)},
	"github-dark":      theme{name: "github-dark", styles: stylesFromPalette(palette.PaletteGithubDark)},
	"github-light":     theme{name: "github-light", styles: stylesFromPalette(palette.PaletteGithubLight)},
	"one-dark":         theme{name: "one-dark", styles: stylesFromPalette(palette.PaletteOneDark)},
	"rose-pine":        theme{name: "rose-pine", styles: stylesFromPalette(palette.PaletteRosePine)},
	"kanagawa":         theme{name: "kanagawa", styles: stylesFromPalette(palette.PaletteKanagawa)},
}

// AvailableThemes returns the names of built-in themes.
func AvailableThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for name := range builtinThemes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName returns a built-in theme by name.
func ThemeByName(name string) (Theme, bool) {
	if name == "" {
		return builtinThemes["default"], true
	}
	theme, ok := builtinThemes[strings.ToLower(strings.TrimSpace(name))]
	return theme, ok
}

// DefaultTheme returns the default built-in theme.
func DefaultTheme() Theme {
	return builtinThemes["default"]
}

// BoringTheme returns a theme without any escape sequences, for plain text.
func BoringTheme() Theme {
	return NewTheme("boring", Styles{})
}
