package connectivity

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/matzehuels/pipeview/pkg/dag"
	"github.com/matzehuels/pipeview/pkg/layout"
)

const propNodes = 14

// randomForest turns generated integers into a graph: node i gets parent
// links[i] % (i+1), or no parent when that equals i. extra adds a second
// parent to some nodes, which joins trees.
func randomForest(links, extra []int) (*dag.DAG, []string) {
	g := dag.New(nil)
	ids := make([]string, propNodes)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%02d", i)
		_ = g.AddNode(dag.Node{ID: ids[i]})
	}
	var roots []string
	for i := range ids {
		p := links[i] % (i + 1)
		if p == i {
			roots = append(roots, ids[i])
			continue
		}
		_ = g.AddEdge(dag.Edge{From: ids[p], To: ids[i]})
	}
	for i, e := range extra {
		child := i%(propNodes-1) + 1
		parent := e % child
		if !g.IsRoot(ids[child]) {
			_ = g.AddEdge(dag.Edge{From: ids[parent], To: ids[child]})
		}
	}
	return g, roots
}

// unionFind computes undirected connectivity independently of the package.
func unionFind(g *dag.DAG) func(a, b string) bool {
	parent := map[string]string{}
	var find func(string) string
	find = func(x string) string {
		if p, ok := parent[x]; ok && p != x {
			r := find(p)
			parent[x] = r
			return r
		}
		parent[x] = x
		return x
	}
	for _, e := range g.Edges() {
		parent[find(e.From)] = find(e.To)
	}
	return func(a, b string) bool { return find(a) == find(b) }
}

func TestConnectivityProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	links := gen.SliceOfN(propNodes, gen.IntRange(0, 1000))
	extra := gen.SliceOfN(4, gen.IntRange(0, 1000))

	properties.Property("every root is in exactly one component", prop.ForAll(
		func(l, x []int) bool {
			g, roots := randomForest(l, x)
			comps, err := Components(g, roots)
			if err != nil {
				return false
			}
			for _, r := range roots {
				n := 0
				for _, c := range comps {
					if c.Contains(r) {
						n++
					}
				}
				if n != 1 {
					return false
				}
			}
			return true
		},
		links, extra,
	))

	properties.Property("same component iff connected", prop.ForAll(
		func(l, x []int) bool {
			g, roots := randomForest(l, x)
			comps, err := Components(g, roots)
			if err != nil {
				return false
			}
			connected := unionFind(g)
			member := map[string]int{}
			for i, c := range comps {
				for _, id := range c {
					if _, dup := member[id]; dup {
						return false
					}
					member[id] = i
				}
			}
			ids := g.IDs()
			for _, a := range ids {
				for _, b := range ids {
					if (member[a] == member[b]) != connected(a, b) {
						return false
					}
				}
			}
			return true
		},
		links, extra,
	))

	properties.Property("placement covers every node, depth cells are distinct", prop.ForAll(
		func(l, x []int, rows bool) bool {
			g, roots := randomForest(l, x)
			s := StrategyDepth
			if rows {
				s = StrategyRows
			}
			p, err := Place(g, roots, s)
			if err != nil || len(p.Cells) != propNodes {
				return false
			}
			if s == StrategyRows {
				return true
			}
			used := map[layout.Dyad]bool{}
			for _, d := range p.Cells {
				if used[d] {
					return false
				}
				used[d] = true
			}
			return true
		},
		links, extra, gen.Bool(),
	))

	properties.TestingRun(t)
}
