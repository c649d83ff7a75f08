package deltaf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkt.systems/deltaf/ansi"
)

// requiredGoldens must exist for every delta in testdata. Regenerate them
// with go run ./cmd/gen-golden.
var requiredGoldens = []string{"text.w40", "text.w80", "html", "commonmark"}

func TestGoldenFilesPresent(t *testing.T) {
	deltas, err := filepath.Glob(filepath.Join("testdata", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, deltas)
	for _, path := range deltas {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		for _, kind := range requiredGoldens {
			golden := filepath.Join("testdata", name+"."+kind+".golden")
			if _, err := os.Stat(golden); err != nil {
				t.Fatalf("missing golden %s: %v", golden, err)
			}
		}
	}
}

func TestGoldenOutputs(t *testing.T) {
	goldens, err := filepath.Glob(filepath.Join("testdata", "*.golden"))
	require.NoError(t, err)
	require.NotEmpty(t, goldens)
	for _, golden := range goldens {
		t.Run(filepath.Base(golden), func(t *testing.T) {
			name, format, width, err := parseGoldenName(filepath.Base(golden))
			require.NoError(t, err)
			src, err := os.ReadFile(filepath.Join("testdata", name+".json"))
			require.NoError(t, err)
			want, err := os.ReadFile(golden)
			require.NoError(t, err)

			var out bytes.Buffer
			require.NoError(t, Render(RenderRequest{
				Reader: bytes.NewReader(src),
				Writer: &out,
				Format: format,
				Width:  width,
				Theme:  ansi.BoringTheme(),
			}))
			assert.Equal(t, string(want), out.String())
		})
	}
}

// parseGoldenName splits "<name>.<format>[.w<width>].golden".
func parseGoldenName(file string) (name, format string, width int, err error) {
	parts := strings.Split(strings.TrimSuffix(file, ".golden"), ".")
	if len(parts) > 2 && strings.HasPrefix(parts[len(parts)-1], "w") {
		width, err = strconv.Atoi(parts[len(parts)-1][1:])
		if err != nil {
			return "", "", 0, fmt.Errorf("golden %s: bad width: %w", file, err)
		}
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 {
		return "", "", 0, fmt.Errorf("golden %s: want <name>.<format>.golden", file)
	}
	return strings.Join(parts[:len(parts)-1], "."), parts[len(parts)-1], width, nil
}

func TestParseGoldenName(t *testing.T) {
	name, format, width, err := parseGoldenName("basic.text.w40.golden")
	require.NoError(t, err)
	assert.Equal(t, []any{"basic", "text", 40}, []any{name, format, width})

	name, format, width, err = parseGoldenName("blocks.html.golden")
	require.NoError(t, err)
	assert.Equal(t, []any{"blocks", "html", 0}, []any{name, format, width})

	_, _, _, err = parseGoldenName("loose.golden")
	assert.Error(t, err)
}
