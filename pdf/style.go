package pdf

import (
	"strconv"
	"strings"

	"pkt.systems/deltaf/ansi"
)

type ansiAttrs struct {
	bold      bool
	italic    bool
	underline bool
	colorSet  bool
	color     [3]int
}

func parseANSIPrefix(prefix string, defaultColor [3]int) ansiAttrs {
	attrs := ansiAttrs{color: defaultColor}
	if prefix == "" {
		return attrs
	}
	parts := strings.Split(prefix, "\x1b[")
	for _, part := range parts {
		if part == "" {
			continue
		}
		end := strings.IndexByte(part, 'm')
		if end == -1 {
			continue
		}
		codes := strings.Split(part[:end], ";")
		for i := 0; i < len(codes); i++ {
			code := codes[i]
			if code == "" {
				continue
			}
			n, err := strconv.Atoi(code)
			if err != nil {
				continue
			}
			switch {
			case n == 0:
				attrs.bold = false
				attrs.italic = false
				attrs.underline = false
				attrs.colorSet = false
				attrs.color = defaultColor
			case n == 1:
				attrs.bold = true
			case n == 3:
				attrs.italic = true
			case n == 4:
				attrs.underline = true
			case n >= 30 && n <= 37:
				attrs.color = ansiColor(n - 30)
				attrs.colorSet = true
			case n >= 90 && n <= 97:
				attrs.color = ansiColor(n - 90 + 8)
				attrs.colorSet = true
			case n == 38:
				if i+2 < len(codes) && codes[i+1] == "5" {
					idx, err := strconv.Atoi(codes[i+2])
					if err == nil {
						attrs.color = xtermColor(idx)
						attrs.colorSet = true
					}
					i += 2
				} else if i+4 < len(codes) && codes[i+1] == "2" {
					var rgb [3]int
					ok := true
					for j := range rgb {
						v, err := strconv.Atoi(codes[i+2+j])
						if err != nil || v < 0 || v > 255 {
							ok = false
						}
						rgb[j] = v
					}
					if ok {
						attrs.color = rgb
						attrs.colorSet = true
					}
					i += 4
				}
			}
		}
	}
	return attrs
}

func ansiColor(idx int) [3]int {
	colors := [16][3]int{
		{0, 0, 0},
		{205, 0, 0},
		{0, 205, 0},
		{205, 205, 0},
		{59, 156, 255},
		{205, 0, 205},
		{0, 205, 205},
		{229, 229, 229},
		{127, 127, 127},
		{255, 0, 0},
		{0, 255, 0},
		{255, 255, 0},
		{92, 92, 255},
		{255, 0, 255},
		{0, 255, 255},
		{255, 255, 255},
	}
	if idx < 0 || idx >= len(colors) {
		return colors[7]
	}
	return colors[idx]
}

func xtermColor(idx int) [3]int {
	switch {
	case idx < 16:
		return ansiColor(idx)
	case idx >= 16 && idx <= 231:
		idx -= 16
		r := idx / 36
		g := (idx / 6) % 6
		b := idx % 6
		return [3]int{
			colorLevel(r),
			colorLevel(g),
			colorLevel(b),
		}
	case idx >= 232 && idx <= 255:
		v := 8 + (idx-232)*10
		return [3]int{v, v, v}
	default:
		return ansiColor(7)
	}
}

func colorLevel(v int) int {
	if v == 0 {
		return 0
	}
	return 55 + v*40
}

func fontStyle(sp Span) string {
	var b strings.Builder
	if sp.Bold {
		b.WriteByte('B')
	}
	if sp.Italic {
		b.WriteByte('I')
	}
	if sp.Underline {
		b.WriteByte('U')
	}
	if sp.Strike {
		b.WriteByte('S')
	}
	return b.String()
}

// roles are the theme colors applied to spans that carry no color of their
// own.
type roles struct {
	heading [6]ansiAttrs
	code    ansiAttrs
	quote   ansiAttrs
	link    ansiAttrs
	embed   ansiAttrs
}

func rolesFromTheme(th ansi.Theme, text [3]int) roles {
	var r roles
	if th == nil {
		return r
	}
	s := th.Styles()
	for i := range r.heading {
		r.heading[i] = parseANSIPrefix(s.Heading[i].Prefix, text)
	}
	r.code = parseANSIPrefix(s.CodeBlock.Prefix, text)
	r.quote = parseANSIPrefix(s.Quote.Prefix, text)
	r.link = parseANSIPrefix(s.LinkText.Prefix, text)
	r.embed = parseANSIPrefix(s.Embed.Prefix, text)
	return r
}

// paint colors spans that have no color yet.
func paint(spans []Span, a ansiAttrs) []Span {
	if !a.colorSet {
		return spans
	}
	for i := range spans {
		if !spans[i].Colored {
			spans[i].Color = a.color
			spans[i].Colored = true
		}
	}
	return spans
}
