// Package dag provides the dependency graph that pipeview lays out.
//
// # Overview
//
// A pipeline is a set of analysis steps (nodes) linked by dependency
// relations (edges from parent to child). The steps a user placed directly on
// the pipeline panel are the children of a synthetic [PanelRootID] node. That
// node exists only to name the layout roots: it is excluded from every
// traversal that assigns positions.
//
// # Basic Usage
//
// Create a new graph with [New], add nodes with [DAG.AddNode], and edges with
// [DAG.AddEdge]:
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: dag.PanelRootID})
//	g.AddNode(dag.Node{ID: "Select"})
//	g.AddNode(dag.Node{ID: "Histogram"})
//	g.AddEdge(dag.Edge{From: dag.PanelRootID, To: "Select"})
//	g.AddEdge(dag.Edge{From: "Select", To: "Histogram"})
//
// Query the structure with [DAG.Children], [DAG.Parents], [DAG.Roots] and
// [DAG.Ancestors]. Use [DAG.Validate] to verify structural integrity before
// a layout run.
//
// # Ordering
//
// Nodes, edges and adjacency lists keep insertion order, so two runs over the
// same input visit nodes in the same order.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. Callers must synchronize access
// if multiple goroutines read or modify the same graph.
package dag
