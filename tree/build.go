package tree

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"pkt.systems/deltaf/delta"
)

// ParseError reports a malformed operation and the index it sits at.
type ParseError = delta.ParseError

// Config controls how Build reads block structure out of a delta.
type Config struct {
	// BlockAttributes lists the attribute names that describe the line a
	// newline closes. Nil means DefaultBlockAttributes.
	BlockAttributes []string
	// BlockEmbeds lists embed types that stand as blocks of their own.
	// Nil means DefaultBlockEmbeds.
	BlockEmbeds []string
	// NormalizeText applies Unicode NFC normalization to text runs.
	NormalizeText bool
}

var (
	DefaultBlockAttributes = []string{
		AttrHeader, AttrList, AttrBlockquote, AttrCodeBlock, AttrTable,
		AttrIndent, AttrAlign, AttrDirection,
	}
	DefaultBlockEmbeds = []string{TypeVideo}
)

// DefaultConfig returns the configuration for Quill-style deltas.
func DefaultConfig() Config {
	return Config{
		BlockAttributes: append([]string(nil), DefaultBlockAttributes...),
		BlockEmbeds:     append([]string(nil), DefaultBlockEmbeds...),
	}
}

// block type precedence, first present attribute wins
var blockTypes = []struct{ attr, typ string }{
	{AttrHeader, TypeHeader},
	{AttrList, TypeListItem},
	{AttrBlockquote, TypeBlockquote},
	{AttrCodeBlock, TypeCodeBlock},
	{AttrTable, TypeTableCell},
}

type builder struct {
	blockAttrs  map[string]bool
	blockEmbeds map[string]bool
	nfc         bool

	blocks  []*Node
	pending []*Node
}

// Build converts ops into a document tree rooted at a TypeRoot node.
//
// Build fails on the first malformed op with a *ParseError and returns no
// tree. It does not retain ops or cfg.
func Build(ops delta.Delta, cfg Config) (*Node, error) {
	b := &builder{
		blockAttrs:  toSet(cfg.BlockAttributes, DefaultBlockAttributes),
		blockEmbeds: toSet(cfg.BlockEmbeds, DefaultBlockEmbeds),
		nfc:         cfg.NormalizeText,
	}
	for i, op := range ops {
		attrs, err := Normalize(i, op.Attributes)
		if err != nil {
			return nil, err
		}
		switch ins := op.Insert.(type) {
		case nil:
			return nil, &ParseError{Index: i, Field: "insert", Reason: "missing insert"}
		case string:
			b.text(ins, attrs)
		case delta.Embed:
			if ins.Type == "" {
				return nil, &ParseError{Index: i, Field: "insert", Reason: "embed type is empty"}
			}
			b.embed(ins, attrs)
		default:
			return nil, &ParseError{Index: i, Field: "insert", Reason: fmt.Sprintf("unsupported insert %T", ins)}
		}
	}
	if len(b.pending) > 0 {
		b.blocks = append(b.blocks, &Node{Type: TypeParagraph, Children: b.pending})
		b.pending = nil
	}
	return &Node{Type: TypeRoot, Children: b.blocks}, nil
}

func toSet(names, fallback []string) map[string]bool {
	if names == nil {
		names = fallback
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func (b *builder) text(s string, attrs Attributes) {
	if b.nfc {
		s = norm.NFC.String(s)
	}
	marks := b.inlineMarks(attrs)
	segments := strings.Split(s, "\n")
	for i, seg := range segments {
		if seg != "" {
			b.pending = append(b.pending, &Node{Type: TypeText, Text: seg, Attributes: marks, Inline: true})
		}
		if i < len(segments)-1 {
			b.closeBlock(attrs)
		}
	}
}

func (b *builder) embed(e delta.Embed, attrs Attributes) {
	n := &Node{Type: e.Type, Attributes: attrs, Data: e.Value}
	if b.blockEmbeds[e.Type] {
		b.blocks = append(b.blocks, n)
		return
	}
	n.Inline = true
	b.pending = append(b.pending, n)
}

func (b *builder) closeBlock(attrs Attributes) {
	n := &Node{Type: TypeParagraph, Children: b.pending}
	b.pending = nil
	for _, bt := range blockTypes {
		if b.blockAttrs[bt.attr] && attrs.Has(bt.attr) {
			n.Type = bt.typ
			break
		}
	}
	for name, v := range attrs {
		if !b.blockAttrs[name] {
			continue
		}
		if n.Attributes == nil {
			n.Attributes = make(Attributes)
		}
		n.Attributes[name] = v
	}
	if n.Type == TypeListItem {
		switch n.Attributes.Str(AttrList) {
		case ListChecked:
			n.Attributes[AttrChecked] = true
		case ListUnchecked:
			n.Attributes[AttrChecked] = false
		}
	}
	b.blocks = append(b.blocks, n)
}

func (b *builder) inlineMarks(attrs Attributes) Attributes {
	var marks Attributes
	for name, v := range attrs {
		if b.blockAttrs[name] {
			continue
		}
		if marks == nil {
			marks = make(Attributes, len(attrs))
		}
		marks[name] = v
	}
	return marks
}
