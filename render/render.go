// Package render walks a document tree and produces output of any type T
// from a frozen set of handlers.
//
// A Renderer knows nothing about output formats. Adapters register a text
// conversion, a join, an element constructor, block handlers, marks and
// attributors on a Builder, then call Build. The resulting Renderer is
// immutable and safe for concurrent use.
//
// Marks on a text leaf are applied by priority: the highest priority mark is
// the outermost element. Equal priorities are ordered by mark name. Attributor
// contributions on the same leaf are merged, in that same order, into the
// innermost element; when no element mark applies a neutral element is
// synthesized to carry them.
package render

import (
	"errors"

	"pkt.systems/deltaf/tree"
)

// Renderer renders document trees. Create one with Builder.Build.
type Renderer[T any] struct {
	text       TextFunc[T]
	join       JoinFunc[T]
	element    ElementFunc[T]
	neutral    string
	blocks     map[string]BlockFunc[T]
	marks      map[string]mark[T]
	attributor map[string]Attributor
	overrides  map[string]OverrideFunc[T]
	unknown    UnknownFunc[T]
	before     BeforeFunc[T]
	after      AfterFunc[T]
	// marks and attributors, outermost first
	order []string
}

// ErrNilTree is returned when Render is called without a tree.
var ErrNilTree = errors.New("render: tree is nil")

// Render renders root. Errors returned by handlers are passed through
// unchanged and abort the render.
func (r *Renderer[T]) Render(root *tree.Node) (T, error) {
	if root == nil {
		var zero T
		return zero, ErrNilTree
	}
	return r.node(root)
}

func (r *Renderer[T]) node(n *tree.Node) (T, error) {
	g := GroupOf(n)
	if g != GroupNone && r.before != nil {
		out, ok, err := r.before(g, n)
		if err != nil {
			return out, err
		}
		if ok {
			return r.finish(g, out)
		}
	}
	out, err := r.dispatch(n)
	if err != nil {
		return out, err
	}
	if g != GroupNone {
		return r.finish(g, out)
	}
	return out, nil
}

func (r *Renderer[T]) finish(g Group, out T) (T, error) {
	if r.after == nil {
		return out, nil
	}
	return r.after(g, out)
}

func (r *Renderer[T]) dispatch(n *tree.Node) (T, error) {
	if fn, ok := r.overrides[n.Type]; ok {
		return fn(n, &Walker[T]{r: r})
	}
	if n.Type == tree.TypeText {
		return r.applyMarks(n, r.text(n.Text))
	}
	if fn, ok := r.blocks[n.Type]; ok {
		children, err := r.children(n)
		if err != nil {
			return children, err
		}
		var attrs Attrs
		if !n.Inline {
			attrs = r.resolve(n)
		}
		out, err := fn(n, children, attrs)
		if err != nil || !n.Inline {
			return out, err
		}
		return r.applyMarks(n, out)
	}
	if r.unknown != nil {
		out, err := r.unknown(n)
		if err != nil || !n.Inline {
			return out, err
		}
		return r.applyMarks(n, out)
	}
	return r.children(n)
}

func (r *Renderer[T]) children(n *tree.Node) (T, error) {
	parts, err := r.each(n)
	if err != nil {
		var zero T
		return zero, err
	}
	return r.join(parts), nil
}

func (r *Renderer[T]) each(n *tree.Node) ([]T, error) {
	parts := make([]T, 0, len(n.Children))
	for _, c := range n.Children {
		out, err := r.node(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, out)
	}
	return parts, nil
}

// resolve merges the attributor contributions for the attributes present
// on n, in mark order.
func (r *Renderer[T]) resolve(n *tree.Node) Attrs {
	var attrs Attrs
	for _, name := range r.order {
		fn, ok := r.attributor[name]
		if !ok {
			continue
		}
		if v, ok := n.Attributes[name]; ok {
			attrs = attrs.Merge(fn(v))
		}
	}
	return attrs
}

func (r *Renderer[T]) applyMarks(n *tree.Node, content T) (T, error) {
	if len(n.Attributes) == 0 {
		return content, nil
	}
	var (
		elems []string
		attrs Attrs
	)
	for _, name := range r.order {
		v, ok := n.Attributes[name]
		if !ok {
			continue
		}
		if fn, ok := r.attributor[name]; ok {
			attrs = attrs.Merge(fn(v))
			continue
		}
		elems = append(elems, name)
	}
	if len(elems) == 0 {
		if attrs.IsEmpty() {
			return content, nil
		}
		return r.element(r.neutral, attrs, content), nil
	}

	out := content
	for i := len(elems) - 1; i >= 0; i-- {
		var local Attrs
		if i == len(elems)-1 {
			local = attrs
		}
		name := elems[i]
		m := r.marks[name]
		if m.fn != nil {
			var err error
			if out, err = m.fn(out, n.Attributes[name], n, local); err != nil {
				return out, err
			}
			continue
		}
		out = r.element(m.tag(n.Attributes[name]), local, out)
	}
	return out, nil
}

// Walker gives node overrides access to the renderer.
type Walker[T any] struct {
	r *Renderer[T]
}

// Render renders n with the full dispatch, hooks included.
func (w *Walker[T]) Render(n *tree.Node) (T, error) { return w.r.node(n) }

// Children renders and joins the children of n.
func (w *Walker[T]) Children(n *tree.Node) (T, error) { return w.r.children(n) }

// Each renders the children of n without joining them.
func (w *Walker[T]) Each(n *tree.Node) ([]T, error) { return w.r.each(n) }

// Text converts literal text.
func (w *Walker[T]) Text(s string) T { return w.r.text(s) }

// Join composes outputs.
func (w *Walker[T]) Join(parts []T) T { return w.r.join(parts) }

// Attrs returns the resolved attributor contributions for n.
func (w *Walker[T]) Attrs(n *tree.Node) Attrs { return w.r.resolve(n) }

// Marks applies the marks of n around content, as done for text leaves.
func (w *Walker[T]) Marks(n *tree.Node, content T) (T, error) { return w.r.applyMarks(n, content) }

// Element wraps content with the configured element constructor.
func (w *Walker[T]) Element(tag string, attrs Attrs, content T) T {
	return w.r.element(tag, attrs, content)
}
