package group

import "pkt.systems/deltaf/tree"

var tableSkip = map[string]bool{tree.TypeTable: true, tree.TypeTableRow: true}

// Tables wraps runs of table cells into a table of rows. Consecutive cells
// with the same row id share a row; a changed or missing id starts a new one.
func Tables(n *tree.Node) *tree.Node {
	return regroup(n, tree.TypeTableCell, tableSkip, buildTable)
}

func buildTable(cells []*tree.Node) []*tree.Node {
	table := &tree.Node{Type: tree.TypeTable}
	var (
		row    *tree.Node
		prevID string
	)
	for _, c := range cells {
		id := c.Attributes.Str(tree.AttrTable)
		if row == nil || id == "" || id != prevID {
			row = &tree.Node{Type: tree.TypeTableRow}
			if id != "" {
				row.Attributes = tree.Attributes{tree.AttrTable: id}
			}
			table.Children = append(table.Children, row)
		}
		row.Children = append(row.Children, c)
		prevID = id
	}
	return []*tree.Node{table}
}
