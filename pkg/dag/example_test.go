package dag_test

import (
	"fmt"

	"github.com/matzehuels/pipeview/pkg/dag"
)

func ExampleDAG_basic() {
	// A pipeline: Select feeds Histogram and Fit
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: "Select"})
	_ = g.AddNode(dag.Node{ID: "Histogram"})
	_ = g.AddNode(dag.Node{ID: "Fit"})
	_ = g.AddEdge(dag.Edge{From: "Select", To: "Histogram"})
	_ = g.AddEdge(dag.Edge{From: "Select", To: "Fit"})

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Children of Select:", g.Children("Select"))
	// Output:
	// Nodes: 3
	// Edges: 2
	// Children of Select: [Histogram Fit]
}

func ExampleDAG_Roots() {
	// Roots are the children of the panel root when there is one
	g := dag.New(nil)
	_ = g.AddNode(dag.Node{ID: dag.PanelRootID})
	_ = g.AddNode(dag.Node{ID: "Load"})
	_ = g.AddNode(dag.Node{ID: "Calibrate"})
	_ = g.AddNode(dag.Node{ID: "Plot"})
	_ = g.AddEdge(dag.Edge{From: dag.PanelRootID, To: "Load"})
	_ = g.AddEdge(dag.Edge{From: dag.PanelRootID, To: "Calibrate"})
	_ = g.AddEdge(dag.Edge{From: "Load", To: "Plot"})

	fmt.Println(g.Roots())
	// Output:
	// [Load Calibrate]
}

func ExampleDAG_Ancestors() {
	g := dag.New(nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "b"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "d"})
	_ = g.AddEdge(dag.Edge{From: "c", To: "d"})

	fmt.Println(g.Ancestors("d"))
	// Output:
	// [b c a]
}
