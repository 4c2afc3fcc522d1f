package menus

import "sort"

// ActiveOnly keeps active menus.
func ActiveOnly(m Menu) bool { return m.Active }

// BuildForest arranges menus into trees with siblings ordered by order_index
// then id. Menus rejected by keep never appear. With reparent set, a kept menu
// whose parent was dropped hangs off its nearest kept ancestor (or the root);
// without it, the whole subtree under a dropped menu disappears.
func BuildForest(all []Menu, keep func(Menu) bool, reparent bool) []*Node {
	byID := make(map[int64]Menu, len(all))
	for _, m := range all {
		byID[m.ID] = m
	}

	visible := make(map[int64]bool, len(all))
	var isVisible func(id int64, depth int) bool
	isVisible = func(id int64, depth int) bool {
		if v, ok := visible[id]; ok {
			return v
		}
		m := byID[id]
		v := keep(m)
		if v && !reparent && m.ParentID != nil && depth <= len(all) {
			if _, ok := byID[*m.ParentID]; ok {
				v = isVisible(*m.ParentID, depth+1)
			}
		}
		visible[id] = v
		return v
	}

	nodes := make(map[int64]*Node, len(all))
	for _, m := range all {
		if isVisible(m.ID, 0) {
			nodes[m.ID] = newNode(m)
		}
	}

	roots := []*Node{}
	for _, m := range all {
		node, ok := nodes[m.ID]
		if !ok {
			continue
		}
		if parent := nearestVisibleAncestor(m, byID, nodes, len(all)); parent != nil {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	SortNodes(roots)
	return roots
}

func nearestVisibleAncestor(m Menu, byID map[int64]Menu, nodes map[int64]*Node, limit int) *Node {
	cur := m.ParentID
	for steps := 0; cur != nil && steps <= limit; steps++ {
		if node, ok := nodes[*cur]; ok {
			return node
		}
		parent, ok := byID[*cur]
		if !ok {
			return nil
		}
		cur = parent.ParentID
	}
	return nil
}

func newNode(m Menu) *Node {
	return &Node{
		ID:          m.ID,
		Name:        m.Name,
		DisplayName: m.DisplayName,
		Route:       m.Route,
		Icon:        m.Icon,
		OrderIndex:  m.OrderIndex,
		Children:    []*Node{},
	}
}

// SortNodes orders siblings recursively.
func SortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].OrderIndex != nodes[j].OrderIndex {
			return nodes[i].OrderIndex < nodes[j].OrderIndex
		}
		return nodes[i].ID < nodes[j].ID
	})
	for _, n := range nodes {
		SortNodes(n.Children)
	}
}

// Walk visits every node depth first.
func Walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		fn(n)
		Walk(n.Children, fn)
	}
}
