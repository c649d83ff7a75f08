package tree

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// Attribute names with a canonical shape.
const (
	AttrHeader     = "header"
	AttrList       = "list"
	AttrBlockquote = "blockquote"
	AttrCodeBlock  = "code-block"
	AttrTable      = "table"
	AttrIndent     = "indent"
	AttrAlign      = "align"
	AttrDirection  = "direction"

	AttrBold       = "bold"
	AttrItalic     = "italic"
	AttrUnderline  = "underline"
	AttrStrike     = "strike"
	AttrCode       = "code"
	AttrScript     = "script"
	AttrLink       = "link"
	AttrColor      = "color"
	AttrBackground = "background"
	AttrFont       = "font"
	AttrSize       = "size"

	// Set by Build on checked and unchecked list items.
	AttrChecked = "checked"
	// Set by the list grouper.
	AttrIndex = "index"
	AttrStart = "start"
)

// List types. ListCheck is the list node kind shared by checked and
// unchecked items.
const (
	ListBullet    = "bullet"
	ListOrdered   = "ordered"
	ListChecked   = "checked"
	ListUnchecked = "unchecked"
	ListCheck     = "check"
)

// ListKind maps an item's list attribute to the kind of list that holds it.
func ListKind(list string) string {
	if list == ListChecked || list == ListUnchecked {
		return ListCheck
	}
	return list
}

type shape int

const (
	shapeBool shape = iota
	shapeString
	shapeInt
	shapeHeader
	shapeList
	shapeCode
	shapeScript
	shapeRowID
)

var shapes = map[string]shape{
	AttrHeader:     shapeHeader,
	AttrList:       shapeList,
	AttrBlockquote: shapeBool,
	AttrCodeBlock:  shapeCode,
	AttrTable:      shapeRowID,
	AttrIndent:     shapeInt,
	AttrAlign:      shapeString,
	AttrDirection:  shapeString,
	AttrBold:       shapeBool,
	AttrItalic:     shapeBool,
	AttrUnderline:  shapeBool,
	AttrStrike:     shapeBool,
	AttrCode:       shapeBool,
	AttrScript:     shapeScript,
	AttrLink:       shapeString,
	AttrColor:      shapeString,
	AttrBackground: shapeString,
	AttrFont:       shapeString,
	AttrSize:       shapeString,
}

// Normalize returns attrs with every known attribute in its canonical shape.
// Values that mean "off" (nil, false, empty strings, indent 0) are dropped.
// Unknown names pass through untouched. A known name holding a value of the
// wrong shape fails with a *ParseError for op index. Names are checked in
// sorted order, so the first bad name reported is stable.
func Normalize(index int, attrs map[string]any) (Attributes, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(Attributes, len(attrs))
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		raw := attrs[name]
		sh, known := shapes[name]
		if !known {
			out[name] = raw
			continue
		}
		// {"header": {"header": 2}} carries the same value one level down.
		if m, ok := raw.(map[string]any); ok {
			if inner, ok := m[name]; ok && len(m) == 1 {
				raw = inner
			}
		}
		v, keep, err := normalizeValue(sh, raw)
		if err != nil {
			return nil, &ParseError{Index: index, Field: "attributes." + name, Reason: err.Error()}
		}
		if keep {
			out[name] = v
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func normalizeValue(sh shape, raw any) (any, bool, error) {
	if raw == nil || raw == false {
		return nil, false, nil
	}
	switch sh {
	case shapeBool:
		if raw == true {
			return true, true, nil
		}
		return nil, false, fmt.Errorf("expected boolean, got %T", raw)
	case shapeString:
		s, ok := raw.(string)
		if !ok {
			return nil, false, fmt.Errorf("expected string, got %T", raw)
		}
		return s, s != "", nil
	case shapeInt:
		n, ok := toInt(raw)
		if !ok || n < 0 {
			return nil, false, fmt.Errorf("expected non-negative integer, got %v", raw)
		}
		return n, n > 0, nil
	case shapeHeader:
		n, ok := toInt(raw)
		if !ok || n < 1 || n > 6 {
			return nil, false, fmt.Errorf("expected header level 1-6, got %v", raw)
		}
		return n, true, nil
	case shapeList:
		s, _ := raw.(string)
		switch s {
		case ListBullet, ListOrdered, ListChecked, ListUnchecked:
			return s, true, nil
		}
		return nil, false, fmt.Errorf("unknown list type %v", raw)
	case shapeCode:
		switch v := raw.(type) {
		case bool:
			return "", true, nil
		case string:
			if v == "plain" {
				v = ""
			}
			return v, true, nil
		}
		return nil, false, fmt.Errorf("expected language string or true, got %T", raw)
	case shapeScript:
		s, _ := raw.(string)
		if s == "sub" || s == "super" {
			return s, true, nil
		}
		return nil, false, fmt.Errorf("expected sub or super, got %v", raw)
	case shapeRowID:
		switch v := raw.(type) {
		case string:
			return v, v != "", nil
		case float64, int, int64:
			return fmt.Sprint(v), true, nil
		}
		return nil, false, fmt.Errorf("expected row id, got %T", raw)
	}
	return raw, true, nil
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}
