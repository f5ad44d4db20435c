// Package graph provides serialization types for pipeline graphs and
// computed layouts.
//
// This package defines the wire format used for JSON files, API bodies and
// cached layout results.
//
// # Core Types
//
//   - [Graph]: Node-link format for a pipeline's dependency graph
//   - [Layout]: The published positions of a finished layout run
//   - [Node], [Edge], [Position]: Shared structural types
//
// Use [ToDAG] and [FromDAG] to convert between [Graph] and the internal
// [dag.DAG]. A graph lists its panel steps in Roots:
//
//	{
//	  "roots": ["Select"],
//	  "nodes": [{"id": "Select"}, {"id": "Histogram"}],
//	  "edges": [{"from": "Select", "to": "Histogram"}]
//	}
//
// [dag.DAG]: github.com/matzehuels/pipeview/pkg/dag.DAG
package graph
