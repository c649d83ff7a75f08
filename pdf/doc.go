// Package pdf renders document trees to PDF with fpdf.
//
// The tree is first flattened into styled spans (Flow), which are then laid
// out as flowing text with the PDF core fonts. Headings, code, quotes, links
// and embeds can take their colors from a terminal theme.
//
// Example:
//
//	root, _ := tree.Build(ops, tree.DefaultConfig())
//	cfg := pdf.DefaultConfig()
//	cfg.Theme = ansi.DefaultTheme()
//
//	err := pdf.Render(pdf.RenderRequest{
//		Root:   group.All(root),
//		Writer: outFile,
//		Config: cfg,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Text is encoded as cp1252; characters outside it are replaced with '?'.
package pdf
