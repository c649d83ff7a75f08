package group

import "pkt.systems/deltaf/tree"

var listSkip = map[string]bool{tree.TypeList: true}

// Lists nests runs of list items into list nodes.
//
// An item's indent is its depth. A deeper item opens a list inside the last
// item of the enclosing list, however large the jump. A change of list kind
// at the same depth closes the list and opens a sibling. Ordered items are
// numbered per parent slot (parent item and depth), so an ordered list that
// resumes after a bullet list at the same depth continues its count. A list
// whose first index is above 1 records it in AttrStart.
func Lists(n *tree.Node) *tree.Node {
	return regroup(n, tree.TypeListItem, listSkip, nestList)
}

type listSlot struct {
	parent *tree.Node
	depth  int
}

type openList struct {
	node  *tree.Node
	kind  string
	depth int
	slot  listSlot
}

func nestList(items []*tree.Node) []*tree.Node {
	var (
		out      []*tree.Node
		stack    []*openList
		counters = make(map[listSlot]int)
	)

	open := func(slot listSlot, kind string, depth int) *openList {
		l := &openList{
			node:  &tree.Node{Type: tree.TypeList, Attributes: tree.Attributes{tree.AttrList: kind}},
			kind:  kind,
			depth: depth,
			slot:  slot,
		}
		if kind == tree.ListOrdered {
			if next := counters[slot] + 1; next > 1 {
				l.node.Attributes[tree.AttrStart] = next
			}
		}
		if slot.parent == nil {
			out = append(out, l.node)
		} else {
			slot.parent.Children = append(slot.parent.Children, l.node)
		}
		stack = append(stack, l)
		return l
	}

	for _, src := range items {
		depth := src.Attributes.Int(tree.AttrIndent)
		kind := tree.ListKind(src.Attributes.Str(tree.AttrList))
		item := src.Copy()

		for len(stack) > 0 && stack[len(stack)-1].depth > depth {
			stack = stack[:len(stack)-1]
		}

		var top *openList
		if len(stack) > 0 {
			top = stack[len(stack)-1]
		}
		switch {
		case top == nil:
			top = open(listSlot{depth: depth}, kind, depth)
		case top.depth < depth:
			parent := top.node.Children[len(top.node.Children)-1]
			top = open(listSlot{parent: parent, depth: depth}, kind, depth)
		case top.kind != kind:
			stack = stack[:len(stack)-1]
			top = open(top.slot, kind, depth)
		}

		if kind == tree.ListOrdered {
			counters[top.slot]++
			if item.Attributes == nil {
				item.Attributes = make(tree.Attributes)
			}
			item.Attributes[tree.AttrIndex] = counters[top.slot]
		}
		top.node.Children = append(top.node.Children, item)
	}
	return out
}
