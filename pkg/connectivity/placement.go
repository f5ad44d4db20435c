package connectivity

import (
	"fmt"

	"github.com/matzehuels/pipeview/pkg/dag"
	"github.com/matzehuels/pipeview/pkg/layout"
)

// Strategy selects the grid placement algorithm.
type Strategy int

const (
	// StrategyDepth places nodes depth first with fan-out to the right.
	StrategyDepth Strategy = iota
	// StrategyRows places nodes breadth first, one row per generation.
	StrategyRows
)

// String returns the strategy name used in configuration.
func (s Strategy) String() string {
	if s == StrategyRows {
		return "rows"
	}
	return "depth"
}

// ParseStrategy returns the strategy named s ("depth" or "rows").
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "", "depth":
		return StrategyDepth, nil
	case "rows":
		return StrategyRows, nil
	default:
		return StrategyDepth, fmt.Errorf("unknown placement strategy %q", s)
	}
}

// Placement is the initial grid assignment of a graph.
type Placement struct {
	Cells      map[string]layout.Dyad // Grid cell per reachable node
	Order      []string               // Nodes in placement order
	Components []Component            // Connected components in root order
	Columns    int                    // Number of columns used
	Rows       int                    // Number of rows used
}

// Cell returns the grid cell of id.
func (p *Placement) Cell(id string) (layout.Dyad, bool) {
	d, ok := p.Cells[id]
	return d, ok
}

// Place sorts roots with SortRoots and assigns a grid cell to every node
// reachable from them through child links, using the given strategy.
// Empty roots yield an empty placement.
func Place(g *dag.DAG, roots []string, strategy Strategy) (*Placement, error) {
	sorted, err := SortRoots(g, roots)
	if err != nil {
		return nil, err
	}
	comps, err := Components(g, sorted)
	if err != nil {
		return nil, err
	}

	a := newArena(g)
	idx, _ := rootIndexes(a, sorted)
	p := &Placement{
		Cells:      make(map[string]layout.Dyad),
		Components: comps,
	}
	switch strategy {
	case StrategyRows:
		a.placeRows(idx, p)
	default:
		a.placeDepth(idx, p)
	}
	return p, nil
}

func (p *Placement) put(id string, d layout.Dyad) {
	p.Cells[id] = d
	p.Order = append(p.Order, id)
	p.Columns = max(p.Columns, d.Col+1)
	p.Rows = max(p.Rows, d.Row+1)
}

// placeDepth runs a visit-once depth-first walk from each root. Stack
// entries carry the cell the node would like; a taken cell pushes the node
// right to the next free column of its row.
func (a *arena) placeDepth(roots []int, p *Placement) {
	type entry struct {
		node int
		want layout.Dyad
	}

	placed := make([]bool, len(a.ids))
	nextFree := map[int]int{}
	for _, r := range roots {
		if placed[r] {
			continue
		}
		stack := []entry{{node: r, want: layout.Dyad{Col: p.Columns, Row: 0}}}
		for len(stack) > 0 {
			e := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if placed[e.node] {
				continue
			}
			placed[e.node] = true

			cell := layout.Dyad{Col: max(e.want.Col, nextFree[e.want.Row]), Row: e.want.Row}
			nextFree[cell.Row] = cell.Col + 1
			p.put(a.ids[e.node], cell)

			kids := a.children[e.node]
			for i := len(kids) - 1; i >= 0; i-- {
				if !placed[kids[i]] {
					stack = append(stack, entry{node: kids[i], want: layout.Dyad{Col: cell.Col, Row: cell.Row + 1}})
				}
			}
		}
	}
}

// placeRows assigns row 0 to the roots and each following row to the
// distinct children of the previous one. The walk stops after as many rows
// as there are nodes, which bounds it on cyclic input.
func (a *arena) placeRows(roots []int, p *Placement) {
	placed := make([]bool, len(a.ids))
	row := dedupe(roots)
	for depth := 0; len(row) > 0 && depth < len(a.ids); depth++ {
		for col, n := range row {
			if !placed[n] {
				placed[n] = true
				p.put(a.ids[n], layout.Dyad{Col: col, Row: depth})
			}
		}
		var next []int
		for _, n := range row {
			next = append(next, a.children[n]...)
		}
		row = dedupe(next)
	}
}

func dedupe(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := in[:0:0]
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
