// Package connectivity partitions a pipeline graph into connected components
// and computes the initial grid placement that seeds a layout run.
//
// Connectivity treats parent and child links alike and ignores the
// synthetic panel root, so two steps are connected when a chain of
// dependencies joins them in either direction.
//
// # Root Ordering
//
// [SortRoots] groups roots by component, in the order each component's first
// root was supplied, and orders the roots inside a component by descending
// out-degree so high fan-out trees are placed first.
//
// # Placement
//
// [Place] assigns every reachable node a [layout.Dyad]. Two strategies exist:
//
//   - [StrategyDepth] walks each root's descendants depth first. A child goes
//     one row below the node that discovered it, in that node's column or
//     the first free column to its right. Each root starts right of
//     everything placed so far. No two nodes share a cell.
//   - [StrategyRows] fills the grid row by row: row 0 holds the roots, each
//     further row the distinct children of the row above, column being the
//     position in that row. A node keeps the first cell it is given.
//
// All traversals use explicit stacks or queues and visit each node once, so
// deep pipelines and cycles are handled without recursion.
//
// [layout.Dyad]: github.com/matzehuels/pipeview/pkg/layout.Dyad
package connectivity
