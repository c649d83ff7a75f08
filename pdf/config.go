package pdf

import (
	"log/slog"

	"pkt.systems/deltaf/ansi"
	"pkt.systems/deltaf/tree"
)

// Config holds PDF rendering settings.
type Config struct {
	PageSize    string
	Orientation string
	Margin      float64
	// FontFamily and MonoFamily must be PDF core fonts
	// (Courier, Helvetica or Times).
	FontFamily   string
	MonoFamily   string
	FontSize     float64
	LineHeight   float64
	IndentStep   float64
	HeadingScale [6]float64
	// Theme colors headings, code, quotes, links and embeds. Nil keeps
	// everything in TextRGB.
	Theme             ansi.Theme
	IgnoreColors      bool
	BackgroundEnabled bool
	BackgroundRGB     [3]int
	TextRGB           [3]int
	LinkRGB           [3]int
	Title             string
	Author            string
	// Uncompressed disables content stream compression.
	Uncompressed         bool
	CornerImagePath      string
	CornerImageMaxWidth  float64
	CornerImageMaxHeight float64
	CornerImagePadding   float64
	// Unknown renders custom node types as plain text. Nil prints a
	// placeholder.
	Unknown func(n *tree.Node) (string, error)
	Logger  *slog.Logger
}

// DefaultConfig returns a baseline configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:   "A4",
		Margin:     48,
		FontFamily: "Helvetica",
		MonoFamily: "Courier",
		FontSize:   11,
		LineHeight: 1.4,
		IndentStep: 18,
		HeadingScale: [6]float64{
			1.9,
			1.6,
			1.3,
			1.1,
			1.0,
			1.0,
		},
		TextRGB:              [3]int{0, 0, 0},
		LinkRGB:              [3]int{9, 105, 218},
		CornerImageMaxWidth:  96,
		CornerImageMaxHeight: 96,
		CornerImagePadding:   8,
	}
}

func applyConfig(dst *Config, src Config) {
	if src.PageSize != "" {
		dst.PageSize = src.PageSize
	}
	if src.Orientation != "" {
		dst.Orientation = src.Orientation
	}
	if src.Margin > 0 {
		dst.Margin = src.Margin
	}
	if src.FontFamily != "" {
		dst.FontFamily = src.FontFamily
	}
	if src.MonoFamily != "" {
		dst.MonoFamily = src.MonoFamily
	}
	if src.FontSize > 0 {
		dst.FontSize = src.FontSize
	}
	if src.LineHeight > 0 {
		dst.LineHeight = src.LineHeight
	}
	if src.IndentStep > 0 {
		dst.IndentStep = src.IndentStep
	}
	if src.HeadingScale != [6]float64{} {
		dst.HeadingScale = src.HeadingScale
	}
	if src.Theme != nil {
		dst.Theme = src.Theme
	}
	if src.IgnoreColors {
		dst.IgnoreColors = true
	}
	if src.BackgroundEnabled {
		dst.BackgroundEnabled = true
		dst.BackgroundRGB = src.BackgroundRGB
	}
	if src.TextRGB != [3]int{} {
		dst.TextRGB = src.TextRGB
	}
	if src.LinkRGB != [3]int{} {
		dst.LinkRGB = src.LinkRGB
	}
	if src.Title != "" {
		dst.Title = src.Title
	}
	if src.Author != "" {
		dst.Author = src.Author
	}
	if src.Uncompressed {
		dst.Uncompressed = true
	}
	if src.CornerImagePath != "" {
		dst.CornerImagePath = src.CornerImagePath
	}
	if src.CornerImageMaxWidth > 0 {
		dst.CornerImageMaxWidth = src.CornerImageMaxWidth
	}
	if src.CornerImageMaxHeight > 0 {
		dst.CornerImageMaxHeight = src.CornerImageMaxHeight
	}
	if src.CornerImagePadding > 0 {
		dst.CornerImagePadding = src.CornerImagePadding
	}
	if src.Unknown != nil {
		dst.Unknown = src.Unknown
	}
	if src.Logger != nil {
		dst.Logger = src.Logger
	}
}
