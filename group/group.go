// Package group holds tree transformers that rebuild structure implied by
// adjacent blocks: nested lists, table rows and multi-line code regions.
//
// Transformers never modify their input. They return a new tree that shares
// untouched nodes with the old one, and applying a transformer to its own
// output returns an equal tree.
package group

import "pkt.systems/deltaf/tree"

// Transformer rewrites a tree into a new tree.
type Transformer func(*tree.Node) *tree.Node

// Chain applies ts left to right.
func Chain(ts ...Transformer) Transformer {
	return func(n *tree.Node) *tree.Node {
		for _, t := range ts {
			n = t(n)
		}
		return n
	}
}

// All applies Lists, Tables and CodeBlocks.
func All(n *tree.Node) *tree.Node {
	return Chain(Lists, Tables, CodeBlocks)(n)
}

// regroup walks n and hands every maximal run of adjacent children of type
// member to fn. Nodes whose type is in skip are returned as they are.
func regroup(n *tree.Node, member string, skip map[string]bool, fn func([]*tree.Node) []*tree.Node) *tree.Node {
	if n == nil || len(n.Children) == 0 || skip[n.Type] {
		return n
	}
	out := n.Copy()
	out.Children = make([]*tree.Node, 0, len(n.Children))
	for i := 0; i < len(n.Children); {
		c := n.Children[i]
		if c.Type != member {
			out.Children = append(out.Children, regroup(c, member, skip, fn))
			i++
			continue
		}
		j := i + 1
		for j < len(n.Children) && n.Children[j].Type == member {
			j++
		}
		out.Children = append(out.Children, fn(n.Children[i:j])...)
		i = j
	}
	return out
}
