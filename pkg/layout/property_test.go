package layout

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const (
	propWidth  = 400.0
	propHeight = 300.0
	propNodes  = 6
)

// buildPropSim places propNodes nodes from the generated coordinates and
// links them in a chain. Every other node is fixed when fixEven is set.
func buildPropSim(xs, ys []float64, fixEven bool, b Boundary) (*Simulation, error) {
	nodes := make([]Node, propNodes)
	for i := range nodes {
		nodes[i] = Node{
			Label: fmt.Sprintf("n%d", i),
			X:     xs[i],
			Y:     ys[i],
			Fixed: fixEven && i%2 == 0,
		}
	}
	edges := make([]Edge, 0, propNodes-1)
	for i := 1; i < propNodes; i++ {
		edges = append(edges, Edge{From: i - 1, To: i, RestLength: 80})
	}
	return NewSimulation(nodes, edges, propWidth, propHeight, WithBoundary(b))
}

func TestSimulationProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	coords := func(hi float64) gopter.Gen { return gen.SliceOfN(propNodes, gen.Float64Range(0, hi)) }
	params := func(limit, gravity, mult int) Params {
		return Params{MovementLimit: float64(limit), Gravity: float64(gravity), RepulsionMultiplier: float64(mult)}
	}

	properties.Property("fixed nodes never move", prop.ForAll(
		func(xs, ys []float64, iterates, limit, gravity, mult int) bool {
			s, err := buildPropSim(xs, ys, true, BoundaryReflect)
			if err != nil {
				return false
			}
			before := s.Nodes()
			s.Relax(iterates, params(limit, gravity, mult))
			for i, n := range s.Nodes() {
				if n.Fixed && (n.X != before[i].X || n.Y != before[i].Y) {
					return false
				}
			}
			return true
		},
		coords(propWidth), coords(propHeight),
		gen.IntRange(0, 30), gen.IntRange(1, 50), gen.IntRange(-5, 5), gen.IntRange(0, 20),
	))

	properties.Property("free nodes stay on the canvas", prop.ForAll(
		func(xs, ys []float64, iterates, limit, gravity, mult int, clampPolicy bool) bool {
			b := BoundaryReflect
			if clampPolicy {
				b = BoundaryClamp
			}
			s, err := buildPropSim(xs, ys, false, b)
			if err != nil {
				return false
			}
			p := params(limit, gravity, mult)
			for range iterates {
				s.Relax(1, p)
				for _, n := range s.Nodes() {
					if n.X < 0 || n.X > propWidth || n.Y < 0 || n.Y > propHeight {
						return false
					}
				}
			}
			return true
		},
		coords(propWidth), coords(propHeight),
		gen.IntRange(1, 30), gen.IntRange(1, 500), gen.IntRange(-20, 20), gen.IntRange(0, 50), gen.Bool(),
	))

	properties.Property("a step moves no node further than the limit", prop.ForAll(
		func(xs, ys []float64, limit, gravity, mult int) bool {
			// Clamping only ever moves a node back toward where it started.
			s, err := buildPropSim(xs, ys, false, BoundaryClamp)
			if err != nil {
				return false
			}
			before := s.Nodes()
			s.Relax(1, params(limit, gravity, mult))
			for i, n := range s.Nodes() {
				if math.Abs(n.X-before[i].X) > float64(limit)+1e-9 || math.Abs(n.Y-before[i].Y) > float64(limit)+1e-9 {
					return false
				}
			}
			return true
		},
		coords(propWidth), coords(propHeight),
		gen.IntRange(0, 40), gen.IntRange(-20, 20), gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
