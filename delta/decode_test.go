package delta

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObjectAndArrayForms(t *testing.T) {
	t.Run("ops object", func(t *testing.T) {
		d, err := Decode([]byte(`{"ops":[{"insert":"Hello"},{"insert":"\n","attributes":{"header":1}}]}`))
		require.NoError(t, err)
		require.Len(t, d, 2)
		assert.Equal(t, "Hello", d[0].Insert)
		assert.Nil(t, d[0].Attributes)
		assert.Equal(t, map[string]any{"header": float64(1)}, d[1].Attributes)
	})

	t.Run("bare array", func(t *testing.T) {
		d, err := Decode([]byte(`[{"insert":"x"}]`))
		require.NoError(t, err)
		require.Len(t, d, 1)
		assert.True(t, d[0].IsText())
	})
}

func TestDecodeEmbed(t *testing.T) {
	d, err := Decode([]byte(`[{"insert":{"image":"https://example.com/a.png"},"attributes":{"width":"120"}}]`))
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.True(t, d[0].IsEmbed())
	assert.Equal(t, Embed{Type: "image", Value: "https://example.com/a.png"}, d[0].Insert)
	assert.Equal(t, "120", d[0].Attributes["width"])

	d, err = Decode([]byte(`[{"insert":{"mention":{"name":"ada","url":"/u/ada"}}}]`))
	require.NoError(t, err)
	embed := d[0].Insert.(Embed)
	assert.Equal(t, "mention", embed.Type)
	assert.Equal(t, map[string]any{"name": "ada", "url": "/u/ada"}, embed.Value)
}

func TestDecodeKeepsMissingInsert(t *testing.T) {
	d, err := Decode([]byte(`[{"insert":"a"},{"retain":3}]`))
	require.NoError(t, err)
	require.Len(t, d, 2)
	assert.Nil(t, d[1].Insert)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		index int
		field string
	}{
		{name: "op not object", input: `[{"insert":"a"},"b"]`, index: 1},
		{name: "numeric insert", input: `[{"insert":1}]`, index: 0, field: "insert"},
		{name: "multi key embed", input: `[{"insert":"a"},{"insert":"b"},{"insert":{"image":"x","video":"y"}}]`, index: 2, field: "insert"},
		{name: "attributes array", input: `[{"insert":"a","attributes":[1]}]`, index: 0, field: "attributes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected ParseError, got %v", err)
			assert.Equal(t, tt.index, perr.Index)
			assert.Equal(t, tt.field, perr.Field)
		})
	}
}

func TestDecodeRejectsNonDelta(t *testing.T) {
	_, err := Decode([]byte(`{"ops":`))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = Decode([]byte(`{"content":[]}`))
	assert.ErrorIs(t, err, ErrNoOps)
}

func TestDeltaText(t *testing.T) {
	d := Delta{
		Text("Hello ", nil),
		EmbedOp("image", "x.png", nil),
		Text("world\n", map[string]any{"bold": true}),
	}
	assert.Equal(t, "Hello world\n", d.Text())
}
