package render

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"pkt.systems/deltaf/tree"
)

type (
	// TextFunc converts literal text into output.
	TextFunc[T any] func(text string) T
	// JoinFunc composes sibling outputs.
	JoinFunc[T any] func(parts []T) T
	// ElementFunc wraps content in one element carrying attrs.
	ElementFunc[T any] func(tag string, attrs Attrs, content T) T
	// MarkFunc wraps content for one mark. attrs holds the attributor
	// contributions when this mark is the innermost element.
	MarkFunc[T any] func(content T, value any, n *tree.Node, attrs Attrs) (T, error)
	// BlockFunc renders a node from its rendered children.
	BlockFunc[T any] func(n *tree.Node, children T, attrs Attrs) (T, error)
	// OverrideFunc takes over rendering of a whole subtree.
	OverrideFunc[T any] func(n *tree.Node, w *Walker[T]) (T, error)
	// UnknownFunc renders node types with no block handler or override.
	UnknownFunc[T any] func(n *tree.Node) (T, error)
	// BeforeFunc may replace the output of a classified node. The
	// replacement is used when ok is true.
	BeforeFunc[T any] func(g Group, n *tree.Node) (out T, ok bool, err error)
	// AfterFunc post-processes the output of a classified node.
	AfterFunc[T any] func(g Group, out T) (T, error)
)

// ConfigError reports an invalid or conflicting registration.
type ConfigError struct {
	Kind string
	Name string
}

func (e *ConfigError) Error() string {
	if e.Name == "" {
		return "render config: " + e.Kind
	}
	return fmt.Sprintf("render config: %s %q", e.Kind, e.Name)
}

type mark[T any] struct {
	fn  MarkFunc[T]
	tag func(value any) string
}

// Builder collects registrations for a Renderer. It is not safe for
// concurrent use. Build snapshots the registrations; later calls on the
// builder do not affect renderers already built.
type Builder[T any] struct {
	text       TextFunc[T]
	join       JoinFunc[T]
	element    ElementFunc[T]
	neutral    string
	priorities map[string]int
	blocks     map[string]BlockFunc[T]
	marks      map[string]mark[T]
	attributor map[string]Attributor
	overrides  map[string]OverrideFunc[T]
	unknown    UnknownFunc[T]
	before     BeforeFunc[T]
	after      AfterFunc[T]
	errs       []error
}

// NewBuilder returns an empty builder. The neutral wrapper tag defaults to
// "span".
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{
		neutral:    "span",
		priorities: make(map[string]int),
		blocks:     make(map[string]BlockFunc[T]),
		marks:      make(map[string]mark[T]),
		attributor: make(map[string]Attributor),
		overrides:  make(map[string]OverrideFunc[T]),
	}
}

func (b *Builder[T]) fail(kind, name string) {
	b.errs = append(b.errs, &ConfigError{Kind: kind, Name: name})
}

// Text sets the text conversion. Required.
func (b *Builder[T]) Text(fn TextFunc[T]) *Builder[T] {
	b.text = fn
	return b
}

// Join sets the sibling composition. Required.
func (b *Builder[T]) Join(fn JoinFunc[T]) *Builder[T] {
	b.join = fn
	return b
}

// Element sets the element constructor used by tag marks and the neutral
// wrapper. Required once any tag mark or attributor is registered.
func (b *Builder[T]) Element(fn ElementFunc[T]) *Builder[T] {
	b.element = fn
	return b
}

// Neutral sets the tag of the wrapper synthesized for attributor
// contributions when no element mark applies.
func (b *Builder[T]) Neutral(tag string) *Builder[T] {
	b.neutral = tag
	return b
}

// Priorities assigns descending priorities to names: the first name gets the
// highest priority and therefore wraps outermost.
func (b *Builder[T]) Priorities(names ...string) *Builder[T] {
	for i, name := range names {
		b.priorities[name] = len(names) - i
	}
	return b
}

// Priority sets the priority of one mark. Unlisted marks have priority 0.
func (b *Builder[T]) Priority(name string, p int) *Builder[T] {
	b.priorities[name] = p
	return b
}

// Block registers the handler for a node type.
func (b *Builder[T]) Block(typ string, fn BlockFunc[T]) *Builder[T] {
	if _, dup := b.blocks[typ]; dup {
		b.fail("duplicate block", typ)
		return b
	}
	b.blocks[typ] = fn
	return b
}

// Passthrough is a block handler returning the rendered children unchanged.
// Register it for node types that need no wrapping so they do not reach
// the Unknown fallback.
func Passthrough[T any](_ *tree.Node, children T, _ Attrs) (T, error) {
	return children, nil
}

// Mark registers an element mark handled by fn.
func (b *Builder[T]) Mark(name string, fn MarkFunc[T]) *Builder[T] {
	return b.addMark(name, mark[T]{fn: fn})
}

// Tag registers an element mark that wraps content in tag.
func (b *Builder[T]) Tag(name, tag string) *Builder[T] {
	return b.addMark(name, mark[T]{tag: func(any) string { return tag }})
}

// TagFunc registers an element mark whose tag depends on the mark value.
func (b *Builder[T]) TagFunc(name string, fn func(value any) string) *Builder[T] {
	return b.addMark(name, mark[T]{tag: fn})
}

func (b *Builder[T]) addMark(name string, m mark[T]) *Builder[T] {
	if _, dup := b.marks[name]; dup {
		b.fail("duplicate mark", name)
		return b
	}
	if _, dup := b.attributor[name]; dup {
		b.fail("mark and attributor", name)
		return b
	}
	b.marks[name] = m
	return b
}

// Attributor registers name as an attributor. Attributors also resolve the
// attrs handed to block handlers for nodes carrying name.
func (b *Builder[T]) Attributor(name string, fn Attributor) *Builder[T] {
	if _, dup := b.attributor[name]; dup {
		b.fail("duplicate attributor", name)
		return b
	}
	if _, dup := b.marks[name]; dup {
		b.fail("mark and attributor", name)
		return b
	}
	b.attributor[name] = fn
	return b
}

// Override hands rendering of every node of typ to fn.
func (b *Builder[T]) Override(typ string, fn OverrideFunc[T]) *Builder[T] {
	if _, dup := b.overrides[typ]; dup {
		b.fail("duplicate override", typ)
		return b
	}
	b.overrides[typ] = fn
	return b
}

// Unknown sets the fallback for node types without a block handler or
// override.
func (b *Builder[T]) Unknown(fn UnknownFunc[T]) *Builder[T] {
	b.unknown = fn
	return b
}

// BeforeRender sets the pre-render hook.
func (b *Builder[T]) BeforeRender(fn BeforeFunc[T]) *Builder[T] {
	b.before = fn
	return b
}

// AfterRender sets the post-render hook.
func (b *Builder[T]) AfterRender(fn AfterFunc[T]) *Builder[T] {
	b.after = fn
	return b
}

// Build validates the registrations and returns a Renderer over a frozen
// copy of them. All problems found are returned joined.
func (b *Builder[T]) Build() (*Renderer[T], error) {
	errs := append([]error(nil), b.errs...)
	if b.text == nil {
		errs = append(errs, &ConfigError{Kind: "missing text function"})
	}
	if b.join == nil {
		errs = append(errs, &ConfigError{Kind: "missing join function"})
	}
	if b.element == nil {
		for _, name := range sortedKeys(b.marks) {
			if b.marks[name].tag != nil {
				errs = append(errs, &ConfigError{Kind: "tag without element function", Name: name})
			}
		}
		for _, name := range sortedKeys(b.attributor) {
			errs = append(errs, &ConfigError{Kind: "attributor without element function", Name: name})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	r := &Renderer[T]{
		text:       b.text,
		join:       b.join,
		element:    b.element,
		neutral:    b.neutral,
		blocks:     maps.Clone(b.blocks),
		marks:      maps.Clone(b.marks),
		attributor: maps.Clone(b.attributor),
		overrides:  maps.Clone(b.overrides),
		unknown:    b.unknown,
		before:     b.before,
		after:      b.after,
	}
	for name := range r.marks {
		r.order = append(r.order, name)
	}
	for name := range r.attributor {
		r.order = append(r.order, name)
	}
	prio := maps.Clone(b.priorities)
	sort.Slice(r.order, func(i, j int) bool {
		pi, pj := prio[r.order[i]], prio[r.order[j]]
		if pi != pj {
			return pi > pj
		}
		return r.order[i] < r.order[j]
	})
	return r, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
