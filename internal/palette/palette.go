// Package palette holds the color sets behind the built-in terminal themes.
package palette

import (
	"fmt"
	"strconv"
	"strings"
)

// SGR sequences.
const (
	Reset     = "\x1b[0m"
	Bold      = "\x1b[1m"
	Faint     = "\x1b[2m"
	Italic    = "\x1b[3m"
	Underline = "\x1b[4m"
	Strike    = "\x1b[9m"
)

// Palette assigns a foreground sequence to every semantic role.
type Palette struct {
	Text        string
	H1          string
	H2          string
	H3          string
	H4          string
	H5          string
	H6          string
	Emphasis    string
	Strong      string
	CodeInline  string
	CodeBlock   string
	Quote       string
	ListMarker  string
	LinkText    string
	LinkURL     string
	TableBorder string
	Embed       string
}

// FG returns the truecolor foreground sequence for a #rgb or #rrggbb color,
// or "" if hex is not one.
func FG(hex string) string { return rgb(38, hex) }

// BG is FG for the background.
func BG(hex string) string { return rgb(48, hex) }

func rgb(layer int, hex string) string {
	r, g, b, ok := ParseHex(hex)
	if !ok {
		return ""
	}
	return fmt.Sprintf("\x1b[%d;2;%d;%d;%dm", layer, r, g, b)
}

// ParseHex parses a #rgb or #rrggbb color. The leading # is optional.
func ParseHex(s string) (r, g, b uint8, ok bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return 0, 0, 0, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), true
}

// from derives a palette out of a handful of base colors.
func from(text, accent, second, third, code, quote, link, muted string) Palette {
	return Palette{
		Text:        FG(text),
		H1:          FG(accent),
		H2:          FG(second),
		H3:          FG(third),
		H4:          FG(accent),
		H5:          FG(second),
		H6:          FG(muted),
		Emphasis:    FG(third),
		Strong:      FG(accent),
		CodeInline:  FG(code),
		CodeBlock:   FG(code),
		Quote:       FG(quote),
		ListMarker:  FG(second),
		LinkText:    FG(link),
		LinkURL:     FG(muted),
		TableBorder: FG(muted),
		Embed:       FG(third),
	}
}

var (
	PaletteDefault = Palette{
		H1:          "\x1b[35m",
		H2:          "\x1b[36m",
		H3:          "\x1b[34m",
		H4:          "\x1b[35m",
		H5:          "\x1b[36m",
		H6:          "\x1b[90m",
		Emphasis:    "\x1b[33m",
		Strong:      "\x1b[97m",
		CodeInline:  "\x1b[32m",
		CodeBlock:   "\x1b[32m",
		Quote:       "\x1b[90m",
		ListMarker:  "\x1b[36m",
		LinkText:    "\x1b[34m",
		LinkURL:     "\x1b[90m",
		TableBorder: "\x1b[90m",
		Embed:       "\x1b[33m",
	}
	PaletteDracula         = from("#f8f8f2", "#ff79c6", "#bd93f9", "#8be9fd", "#50fa7b", "#6272a4", "#8be9fd", "#6272a4")
	PaletteNord            = from("#d8dee9", "#88c0d0", "#81a1c1", "#b48ead", "#a3be8c", "#616e88", "#8fbcbb", "#4c566a")
	PaletteGruvbox         = from("#ebdbb2", "#fb4934", "#fabd2f", "#83a598", "#b8bb26", "#928374", "#8ec07c", "#7c6f64")
	PaletteGruvboxLight    = from("#3c3836", "#9d0006", "#b57614", "#076678", "#79740e", "#928374", "#427b58", "#a89984")
	PaletteTokyoNight      = from("#c0caf5", "#7aa2f7", "#bb9af7", "#7dcfff", "#9ece6a", "#565f89", "#2ac3de", "#565f89")
	PaletteCatppuccinMocha = from("#cdd6f4", "#f38ba8", "#cba6f7", "#89dceb", "#a6e3a1", "#6c7086", "#89b4fa", "#7f849c")
	PaletteSolarizedDark   = from("#839496", "#cb4b16", "#b58900", "#268bd2", "#859900", "#586e75", "#2aa198", "#586e75")
	PaletteSolarizedLight  = from("#657b83", "#cb4b16", "#b58900", "#268bd2", "#859900", "#93a1a1", "#2aa198", "#93a1a1")
	PaletteGithubDark      = from("#c9d1d9", "#ff7b72", "#d2a8ff", "#79c0ff", "#7ee787", "#8b949e", "#58a6ff", "#6e7681")
	PaletteGithubLight     = from("#24292f", "#cf222e", "#8250df", "#0550ae", "#116329", "#57606a", "#0969da", "#8c959f")
	PaletteOneDark         = from("#abb2bf", "#e06c75", "#c678dd", "#61afef", "#98c379", "#5c6370", "#56b6c2", "#5c6370")
	PaletteRosePine        = from("#e0def4", "#eb6f92", "#c4a7e7", "#9ccfd8", "#31748f", "#6e6a86", "#ebbcba", "#6e6a86")
	PaletteKanagawa        = from("#dcd7ba", "#e46876", "#957fb8", "#7e9cd8", "#98bb6c", "#727169", "#7fb4ca", "#727169")
)
