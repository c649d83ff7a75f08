package tree

import (
	"encoding/json"
	"fmt"
)

// EmbedSource coerces an embed payload into a source string.
//
// Strings are used verbatim. A mapping with a string "url" field yields that
// field. Other mappings and slices are encoded as JSON and remaining scalars
// are formatted with fmt. Nil yields "". An empty result means there is
// nothing to embed; renderers emit nothing for it.
func EmbedSource(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any:
		if u, ok := x["url"].(string); ok {
			return u
		}
		return encode(x)
	case []any:
		return encode(x)
	default:
		return fmt.Sprint(x)
	}
}

func encode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
