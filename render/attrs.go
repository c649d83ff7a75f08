package render

import (
	"fmt"
	"slices"
	"strings"
)

// Pair is a name/value entry in an ordered attribute list.
type Pair struct {
	Name  string
	Value string
}

// Attrs is the resolved attribute set of one output element. Classes form a
// set; Style and Attrs keep first-insertion order and the latest value wins.
type Attrs struct {
	Classes []string
	Style   []Pair
	Attrs   []Pair
}

// AddClass adds c unless it is already present.
func (a *Attrs) AddClass(c ...string) {
	for _, v := range c {
		if v != "" && !slices.Contains(a.Classes, v) {
			a.Classes = append(a.Classes, v)
		}
	}
}

// SetStyle sets a style property.
func (a *Attrs) SetStyle(name, value string) { a.Style = setPair(a.Style, name, value) }

// SetAttr sets a named attribute.
func (a *Attrs) SetAttr(name, value string) { a.Attrs = setPair(a.Attrs, name, value) }

func setPair(list []Pair, name, value string) []Pair {
	for i := range list {
		if list[i].Name == name {
			list[i].Value = value
			return list
		}
	}
	return append(list, Pair{Name: name, Value: value})
}

// Attr returns the value of a named attribute.
func (a Attrs) Attr(name string) (string, bool) {
	for _, p := range a.Attrs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Merge returns a copy of a with b applied on top.
func (a Attrs) Merge(b Attrs) Attrs {
	out := a.Clone()
	out.AddClass(b.Classes...)
	for _, p := range b.Style {
		out.SetStyle(p.Name, p.Value)
	}
	for _, p := range b.Attrs {
		out.SetAttr(p.Name, p.Value)
	}
	return out
}

// Clone returns a deep copy.
func (a Attrs) Clone() Attrs {
	return Attrs{
		Classes: slices.Clone(a.Classes),
		Style:   slices.Clone(a.Style),
		Attrs:   slices.Clone(a.Attrs),
	}
}

// Filter returns a copy without the classes for which drop returns true.
func (a Attrs) Filter(drop func(class string) bool) Attrs {
	out := a.Clone()
	out.Classes = slices.DeleteFunc(out.Classes, drop)
	return out
}

// IsEmpty reports whether nothing has been contributed.
func (a Attrs) IsEmpty() bool {
	return len(a.Classes) == 0 && len(a.Style) == 0 && len(a.Attrs) == 0
}

// StyleString renders Style as "name:value;name:value".
func (a Attrs) StyleString() string {
	parts := make([]string, 0, len(a.Style))
	for _, p := range a.Style {
		parts = append(parts, p.Name+":"+p.Value)
	}
	return strings.Join(parts, ";")
}

// Attributor turns a mark value into attribute contributions for the
// element that hosts the marked content.
type Attributor func(value any) Attrs

// Class contributes the class prefix+value.
func Class(prefix string) Attributor {
	return func(v any) Attrs {
		var a Attrs
		a.AddClass(prefix + fmt.Sprint(v))
		return a
	}
}

// Style contributes the style property with the mark value.
func Style(property string) Attributor {
	return func(v any) Attrs {
		var a Attrs
		a.SetStyle(property, fmt.Sprint(v))
		return a
	}
}

// Attr contributes the named attribute with the mark value.
func Attr(name string) Attributor {
	return func(v any) Attrs {
		var a Attrs
		a.SetAttr(name, fmt.Sprint(v))
		return a
	}
}
