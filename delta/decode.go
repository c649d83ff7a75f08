package delta

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	// ErrInvalidJSON reports input that is not a JSON document.
	ErrInvalidJSON = errors.New("delta: invalid json")
	// ErrNoOps reports a JSON document without an operation array.
	ErrNoOps = errors.New("delta: expected an op array or an object with an ops array")
)

// Decode parses a delta from JSON. Both {"ops": [...]} and a bare [...] are
// accepted.
//
// Decode is strict about shapes it can see locally: an op that is not an
// object, an insert that is neither a string nor a single-key object, and
// attributes that are not an object all fail with a *ParseError naming the
// op index. A missing insert is kept (Insert == nil) so the tree builder
// reports it in the same way for decoded and hand-built deltas.
func Decode(data []byte) (Delta, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidJSON
	}
	root := gjson.ParseBytes(data)
	ops := root
	if root.IsObject() {
		ops = root.Get("ops")
	}
	if !ops.IsArray() {
		return nil, ErrNoOps
	}

	items := ops.Array()
	out := make(Delta, 0, len(items))
	for i, item := range items {
		op, err := decodeOp(i, item)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

func decodeOp(index int, v gjson.Result) (Op, error) {
	if !v.IsObject() {
		return Op{}, &ParseError{Index: index, Reason: "operation is not an object"}
	}
	var op Op

	ins := v.Get("insert")
	switch {
	case !ins.Exists():
		// left nil on purpose, see Decode
	case ins.Type == gjson.String:
		op.Insert = ins.String()
	case ins.IsObject():
		embed, err := decodeEmbed(index, ins)
		if err != nil {
			return Op{}, err
		}
		op.Insert = embed
	default:
		return Op{}, &ParseError{Index: index, Field: "insert", Reason: fmt.Sprintf("unsupported insert of type %s", ins.Type)}
	}

	attrs := v.Get("attributes")
	if attrs.Exists() && attrs.Type != gjson.Null {
		if !attrs.IsObject() {
			return Op{}, &ParseError{Index: index, Field: "attributes", Reason: "attributes must be an object"}
		}
		m, _ := attrs.Value().(map[string]any)
		if len(m) > 0 {
			op.Attributes = m
		}
	}
	return op, nil
}

func decodeEmbed(index int, ins gjson.Result) (Embed, error) {
	var (
		embed Embed
		keys  int
	)
	ins.ForEach(func(key, value gjson.Result) bool {
		keys++
		embed.Type = key.String()
		embed.Value = value.Value()
		return keys < 2
	})
	if keys != 1 {
		return Embed{}, &ParseError{Index: index, Field: "insert", Reason: "embed insert must have exactly one key"}
	}
	if embed.Type == "" {
		return Embed{}, &ParseError{Index: index, Field: "insert", Reason: "embed type is empty"}
	}
	return embed, nil
}
