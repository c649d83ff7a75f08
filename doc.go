// Package deltaf renders rich-text deltas: the JSON operation lists
// produced by Quill-style editors.
//
// A delta is a flat list of insert operations whose attributes describe
// formatting. Rendering runs in stages, each usable on its own:
//
//   - delta.Decode parses {"ops":[...]} or a bare op array
//   - tree.Build turns ops into a document tree of blocks and inline leaves
//   - group.Lists, group.Tables and group.CodeBlocks nest related siblings
//   - render.Renderer walks the tree with pluggable handlers
//
// The adapters in html, dom, markdown, ansi and pdf configure a renderer for
// one output. This package ties the stages together behind a format name.
//
// Example:
//
//	reader := strings.NewReader(`{"ops":[{"insert":"Hello"},{"insert":"\n","attributes":{"header":1}}]}`)
//	err := deltaf.Render(deltaf.RenderRequest{
//		Reader: reader,
//		Writer: os.Stdout,
//		Format: "html",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Rendering can be customized with RenderOptions such as WithOSC8,
// WithSanitize or WithUnknown.
package deltaf
