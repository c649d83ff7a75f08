package group

import "pkt.systems/deltaf/tree"

var codeSkip = map[string]bool{tree.TypeCodeBlockContainer: true}

// CodeBlocks merges runs of code-block lines sharing a language into one
// code-block-container. Each line becomes a code-block child holding a single
// unmarked text leaf, or no children for an empty line. The container carries
// the language in AttrCodeBlock.
func CodeBlocks(n *tree.Node) *tree.Node {
	return regroup(n, tree.TypeCodeBlock, codeSkip, buildCode)
}

func buildCode(lines []*tree.Node) []*tree.Node {
	var (
		out       []*tree.Node
		container *tree.Node
	)
	for _, l := range lines {
		lang := l.Attributes.Str(tree.AttrCodeBlock)
		if container == nil || container.Attributes.Str(tree.AttrCodeBlock) != lang {
			container = &tree.Node{
				Type:       tree.TypeCodeBlockContainer,
				Attributes: tree.Attributes{tree.AttrCodeBlock: lang},
			}
			out = append(out, container)
		}
		line := &tree.Node{Type: tree.TypeCodeBlock}
		if text := l.TextContent(); text != "" {
			line.Children = []*tree.Node{{Type: tree.TypeText, Text: text, Inline: true}}
		}
		container.Children = append(container.Children, line)
	}
	return out
}
