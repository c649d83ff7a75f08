// Package delta models the flat operation log a rich-text editor produces and
// decodes it from JSON.
//
// A document delta is an ordered list of insert operations. Each insert is a
// run of text (which may contain newlines) or a single-key embed such as
// {"image": "https://..."}. Attributes on an op ending in a newline describe
// the line just closed; attributes on any other op are inline marks.
package delta

import (
	"fmt"
	"strings"
)

// Embed is a non-text insert. Type is the single key of the insert object
// and Value the payload stored under it.
type Embed struct {
	Type  string
	Value any
}

// Op is one entry in the edit log.
//
// Insert holds a string for text runs, an Embed for embeds, or nil when the
// source op carried no insert at all. The tree builder rejects the nil case.
type Op struct {
	Insert     any
	Attributes map[string]any
}

// Delta is an ordered operation sequence.
type Delta []Op

// Text returns a text-run op.
func Text(text string, attrs map[string]any) Op {
	return Op{Insert: text, Attributes: attrs}
}

// EmbedOp returns an embed op.
func EmbedOp(typ string, value any, attrs map[string]any) Op {
	return Op{Insert: Embed{Type: typ, Value: value}, Attributes: attrs}
}

// IsText reports whether the op inserts text.
func (o Op) IsText() bool {
	_, ok := o.Insert.(string)
	return ok
}

// IsEmbed reports whether the op inserts an embed.
func (o Op) IsEmbed() bool {
	_, ok := o.Insert.(Embed)
	return ok
}

// Text concatenates the text runs of the delta, skipping embeds.
func (d Delta) Text() string {
	var b strings.Builder
	for _, op := range d {
		if s, ok := op.Insert.(string); ok {
			b.WriteString(s)
		}
	}
	return b.String()
}

// ParseError reports a malformed operation. Index is the zero-based position
// of the offending op in its delta.
type ParseError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("delta: op %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("delta: op %d: %s: %s", e.Index, e.Field, e.Reason)
}
