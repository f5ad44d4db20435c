package connectivity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/pipeview/pkg/dag"
)

// ErrUnknownRoot is returned when a root is not a node of the graph, or is
// the panel root itself.
var ErrUnknownRoot = errors.New("unknown root")

// Component is a set of nodes joined by parent/child links, in discovery
// order.
type Component []string

// Contains reports whether id belongs to the component.
func (c Component) Contains(id string) bool { return slices.Contains(c, id) }

// Components returns the connected components reached from roots, in the
// order their first root appears. Each component lists its nodes in
// discovery order; a root already covered by an earlier component starts no
// new one. Nodes not connected to any root are not reported.
func Components(g *dag.DAG, roots []string) ([]Component, error) {
	a := newArena(g)
	idx, err := rootIndexes(a, roots)
	if err != nil {
		return nil, err
	}
	comps, _ := a.components(idx)
	out := make([]Component, len(comps))
	for i, c := range comps {
		out[i] = a.names(c)
	}
	return out, nil
}

// components returns each component as node indexes together with the
// component number of every visited node (-1 when unvisited).
func (a *arena) components(roots []int) ([][]int, []int) {
	member := make([]int, len(a.ids))
	for i := range member {
		member[i] = -1
	}

	var comps [][]int
	for _, r := range roots {
		if member[r] >= 0 {
			continue
		}
		id := len(comps)
		var comp []int
		stack := []int{r}
		member[r] = id
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			comp = append(comp, n)
			// Push in reverse so children are explored before parents, in
			// insertion order.
			for _, list := range [][]int{a.parents[n], a.children[n]} {
				for i := len(list) - 1; i >= 0; i-- {
					m := list[i]
					if member[m] < 0 {
						member[m] = id
						stack = append(stack, m)
					}
				}
			}
		}
		comps = append(comps, comp)
	}
	return comps, member
}

func rootIndexes(a *arena, roots []string) ([]int, error) {
	idx := make([]int, 0, len(roots))
	for _, r := range roots {
		i, ok := a.index[r]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRoot, r)
		}
		idx = append(idx, i)
	}
	return idx, nil
}

// SortRoots orders roots for placement: grouped by component in component
// order, and by descending out-degree within a component. Ties keep their
// input order. Duplicate roots are dropped.
func SortRoots(g *dag.DAG, roots []string) ([]string, error) {
	a := newArena(g)
	idx, err := rootIndexes(a, roots)
	if err != nil {
		return nil, err
	}
	comps, member := a.components(idx)

	groups := make([][]int, len(comps))
	seen := make(map[int]bool, len(idx))
	for _, r := range idx {
		if seen[r] {
			continue
		}
		seen[r] = true
		groups[member[r]] = append(groups[member[r]], r)
	}

	out := make([]string, 0, len(seen))
	for _, grp := range groups {
		slices.SortStableFunc(grp, func(x, y int) int {
			return len(a.children[y]) - len(a.children[x])
		})
		out = append(out, a.names(grp)...)
	}
	return out, nil
}
