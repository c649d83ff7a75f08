package ansi

import (
	"strings"

	"github.com/mattn/go-runewidth"
	reflowansi "github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

func fitURL(url string, limit int) string {
	if limit <= 0 || runewidth.StringWidth(url) <= limit {
		return url
	}
	if idx := strings.Index(url, "://"); idx != -1 {
		trimmed := url[idx+3:]
		if runewidth.StringWidth(trimmed) <= limit {
			return trimmed
		}
		url = trimmed
	}
	return runewidth.Truncate(url, limit, "…")
}

// fill word-wraps s to width. With hard set, words longer than width are
// broken as well.
func fill(s string, width int, hard bool) string {
	if width <= 0 {
		return s
	}
	s = wordwrap.String(s, width)
	if hard {
		s = wrap.String(s, width)
	}
	return s
}

// prefixLines puts first before the first line of s and rest before the
// others.
func prefixLines(s, first, rest string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		if i == 0 {
			lines[i] = first + lines[i]
		} else {
			lines[i] = rest + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

func width(s string) int {
	w := 0
	for _, line := range strings.Split(s, "\n") {
		w = max(w, reflowansi.PrintableRuneWidth(line))
	}
	return w
}

// pad right-pads s with spaces to w printable columns.
func pad(s string, w int) string {
	if n := w - reflowansi.PrintableRuneWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}
