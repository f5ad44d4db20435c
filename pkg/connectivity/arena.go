package connectivity

import "github.com/matzehuels/pipeview/pkg/dag"

// arena is an integer-indexed copy of a DAG's adjacency with the panel root
// removed.
type arena struct {
	ids      []string
	index    map[string]int
	children [][]int
	parents  [][]int
}

func newArena(g *dag.DAG) *arena {
	ids := g.IDs()
	a := &arena{
		ids:      ids,
		index:    make(map[string]int, len(ids)),
		children: make([][]int, len(ids)),
		parents:  make([][]int, len(ids)),
	}
	for i, id := range ids {
		a.index[id] = i
	}
	for i, id := range ids {
		a.children[i] = a.lookup(g.Children(id))
		a.parents[i] = a.lookup(g.Parents(id))
	}
	return a
}

func (a *arena) lookup(ids []string) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if i, ok := a.index[id]; ok {
			out = append(out, i)
		}
	}
	return out
}

func (a *arena) names(idx []int) []string {
	out := make([]string, len(idx))
	for i, v := range idx {
		out[i] = a.ids[v]
	}
	return out
}
