package render

import "pkt.systems/deltaf/tree"

// Group classifies nodes for the render hooks.
type Group int

const (
	GroupNone Group = iota
	GroupBlock
	GroupList
	GroupTable
	GroupVideo
)

func (g Group) String() string {
	switch g {
	case GroupBlock:
		return "block"
	case GroupList:
		return "list"
	case GroupTable:
		return "table"
	case GroupVideo:
		return "video"
	}
	return "none"
}

// GroupOf returns the hook classification of n. It depends on the node type
// only; inline nodes and text never classify.
func GroupOf(n *tree.Node) Group {
	if n == nil || n.Inline {
		return GroupNone
	}
	switch n.Type {
	case tree.TypeList:
		return GroupList
	case tree.TypeTable:
		return GroupTable
	case tree.TypeVideo:
		return GroupVideo
	case tree.TypeRoot, tree.TypeText, tree.TypeListItem, tree.TypeTableRow, tree.TypeTableCell:
		return GroupNone
	}
	return GroupBlock
}
