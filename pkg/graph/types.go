package graph

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/matzehuels/pipeview/pkg/dag"
)

// =============================================================================
// Graph - Dependency Graph Serialization
// =============================================================================

// Graph is the JSON serialization format for pipeline dependency graphs.
//
// Roots lists the steps placed directly on the pipeline panel. When it is
// non-empty, ToDAG synthesizes the [dag.PanelRootID] node with an edge to
// each root; when it is empty the roots are the nodes without parents.
type Graph struct {
	Roots []string `json:"roots,omitempty" bson:"roots,omitempty"`
	Nodes []Node   `json:"nodes" bson:"nodes"`
	Edges []Edge   `json:"edges" bson:"edges"`
}

// Node is one pipeline step.
type Node struct {
	ID   string         `json:"id" bson:"id"`
	Meta map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Edge is a parent→child dependency.
type Edge struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
}

// =============================================================================
// DAG ↔ Graph Conversion
// =============================================================================

// FromDAG converts a DAG to its serialization format, keeping insertion order.
// The panel root is folded back into Roots.
func FromDAG(g *dag.DAG) Graph {
	out := Graph{
		Nodes: []Node{},
		Edges: []Edge{},
	}
	if g.HasPanelRoot() {
		out.Roots = g.Roots()
	}
	for _, n := range g.Nodes() {
		if n.IsPanelRoot() {
			continue
		}
		out.Nodes = append(out.Nodes, Node{ID: n.ID, Meta: copyMeta(n.Meta)})
	}
	for _, e := range g.Edges() {
		if e.From == dag.PanelRootID {
			continue
		}
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	return out
}

// ToDAG converts a Graph to a DAG.
// Returns an error for duplicate or empty IDs, for edges or roots that
// reference unknown nodes, and for an explicit node using the reserved
// panel root ID.
func ToDAG(gj Graph) (*dag.DAG, error) {
	d := dag.New(nil)

	if len(gj.Roots) > 0 {
		if err := d.AddNode(dag.Node{ID: dag.PanelRootID}); err != nil {
			return nil, err
		}
	}
	for _, nj := range gj.Nodes {
		if nj.ID == dag.PanelRootID {
			return nil, fmt.Errorf("add node %s: reserved ID", nj.ID)
		}
		if err := d.AddNode(dag.Node{ID: nj.ID, Meta: copyMeta(nj.Meta)}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}
	for _, r := range gj.Roots {
		if err := d.AddEdge(dag.Edge{From: dag.PanelRootID, To: r}); err != nil {
			return nil, fmt.Errorf("add root %s: %w", r, err)
		}
	}
	for _, ej := range gj.Edges {
		if err := d.AddEdge(dag.Edge{From: ej.From, To: ej.To}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}

	return d, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// copyMeta creates a shallow copy of metadata to avoid mutation.
func copyMeta(m map[string]any) map[string]any {
	if len(m) == 0 {
		return nil
	}
	return maps.Clone(m)
}
