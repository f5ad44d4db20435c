package layout

import "fmt"

// Node is a positioned element of the simulation.
type Node struct {
	Label  string  // Display label, unique within a simulation
	X, Y   float64 // Current position
	DX, DY float64 // Accumulated delta, halved every iteration
	Fixed  bool    // Fixed nodes never change position
}

// Edge is a spring between two nodes, referenced by index.
type Edge struct {
	From       int     // Parent node index
	To         int     // Child node index
	RestLength float64 // Natural spring length
}

// Dyad is a discrete grid cell used for initial placement.
type Dyad struct {
	Col int
	Row int
}

// String returns the cell as "(col,row)".
func (d Dyad) String() string { return fmt.Sprintf("(%d,%d)", d.Col, d.Row) }

// Params are the force parameters of a relaxation run.
type Params struct {
	MovementLimit       float64 // Maximum per-axis move per iteration
	Gravity             float64 // Subtracted from every node's DY per iteration
	RepulsionMultiplier float64 // Magnitude of the normalized repulsion push
}
