package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pkt.systems/deltaf"
	"pkt.systems/deltaf/ansi"
)

// goldenFormats are rendered once per delta. Width only applies to text.
var goldenFormats = []string{"text", "html", "commonmark", "markdown"}

func main() {
	widths := []int{40, 80}
	root := "testdata"
	var paths []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.HasSuffix(path, ".json") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		fatalf("walk %s: %v", root, err)
	}
	if len(paths) == 0 {
		fatalf("no delta files found under %s", root)
	}
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			fatalf("read %s: %v", path, err)
		}
		for _, format := range goldenFormats {
			useWidths := []int{0}
			if format == "text" {
				useWidths = widths
			}
			for _, width := range useWidths {
				var out bytes.Buffer
				err := deltaf.Render(deltaf.RenderRequest{
					Reader: bytes.NewReader(src),
					Writer: &out,
					Format: format,
					Width:  width,
					Theme:  ansi.BoringTheme(),
				})
				if err != nil {
					fatalf("render %s as %s: %v", path, format, err)
				}
				dst := goldenPath(root, path, format, width)
				if err := os.WriteFile(dst, out.Bytes(), 0o644); err != nil {
					fatalf("write %s: %v", dst, err)
				}
				fmt.Fprintf(os.Stdout, "wrote %s\n", dst)
			}
		}
	}
}

func goldenPath(root, deltaPath, format string, width int) string {
	rel, err := filepath.Rel(root, deltaPath)
	if err != nil {
		rel = deltaPath
	}
	name := strings.TrimSuffix(rel, ".json")
	name = strings.ReplaceAll(filepath.ToSlash(name), "/", "__")
	if width > 0 {
		return filepath.Join(root, fmt.Sprintf("%s.%s.w%d.golden", name, format, width))
	}
	return filepath.Join(root, fmt.Sprintf("%s.%s.golden", name, format))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
