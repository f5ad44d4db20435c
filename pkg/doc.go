// Package pkg provides the libraries behind pipeview, a layout engine for
// pipeline dependency graphs.
//
// # Overview
//
// pipeview gives every step of a pipeline a 2D position. Steps start on a
// grid derived from the graph's connected components, a force-directed
// simulation relaxes them, and the final positions are saved so the next
// run starts where the last one ended. The pkg directory is organized into:
//
//  1. [dag] and [graph] - The input graph and its JSON wire format
//  2. [connectivity] - Components, root ordering, initial grid placement
//  3. [layout] - The force-directed simulation and the incremental controller
//  4. [position] - The position codec and position stores (file, Redis, MongoDB)
//  5. [config] - Layout configuration loading and validation
//  6. [pipeline] - Orchestration (restore → seed → relax → save)
//  7. [cache], [errors], [observability], [api], [buildinfo] - Supporting infrastructure
//
// # Architecture
//
// The typical data flow through pipeview:
//
//	graph.json
//	     ↓
//	[graph] package (decode into a [dag.DAG])
//	     ↓
//	[connectivity] package (components + grid cells)
//	     ↓
//	[layout] package (relax in batches, publish positions)
//	     ↓
//	[position] package (encode "x y w h" and save by layout name)
//
// # Quick Start
//
//	g, _ := graph.ReadGraphFile("graph.json")
//	runner := pipeline.NewRunner(nil, nil, store, logger)
//	result, err := runner.Execute(ctx, g, pipeline.Options{Config: config.Defaults()})
package pkg
