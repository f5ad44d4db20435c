// Package layout implements the force-directed layout of a pipeline graph
// and the controller that advances it in batches.
//
// # Model
//
// A [Simulation] owns the [Node] slice, the [Edge] slice and the canvas
// bounds of one layout run. Edges reference nodes by index. Each node carries
// a continuous position and an accumulated delta (DX, DY) that persists across
// iterations and is halved at the end of each one, which damps the motion.
//
// # Iteration
//
// [Simulation.Relax] runs a fixed number of iterations. Every iteration:
//
//  1. pulls edge endpoints toward the edge's rest length
//  2. applies gravity to every node's vertical delta
//  3. pushes each node away from all others (inverse squared distance,
//     normalized to a fixed magnitude)
//  4. moves every free node by its delta clamped to the movement limit,
//     keeps it on the canvas, then halves every delta
//
// Fixed nodes never move, but their deltas still accumulate and decay.
//
// Coincident nodes are separated by random jitter drawn from a seeded
// source, so two simulations built with the same seed and inputs produce
// identical positions.
//
// # Controller
//
// A [Controller] splits a run into batches. Each [Controller.Advance] relaxes
// one batch, checks the result is finite, and publishes truncated integer
// positions to a [Display]. [Controller.Run] drives Advance from a ticker.
package layout
