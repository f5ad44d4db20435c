package layout

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// DefaultSeed seeds the jitter source when no WithSeed option is given.
const DefaultSeed uint64 = 42

// minSpringLength is the distance below which an edge exerts no force.
// Without it a zero-length edge divides by zero and poisons both endpoints.
const minSpringLength = 1e-9

var (
	// ErrInvalidEdgeEndpoint is returned by [NewSimulation] when an edge
	// references a node index outside the node slice.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrDuplicateLabel is returned by [NewSimulation] when two nodes share a label.
	ErrDuplicateLabel = errors.New("duplicate node label")

	// ErrInvalidCanvas is returned by [NewSimulation] for a negative or
	// non-finite canvas size.
	ErrInvalidCanvas = errors.New("invalid canvas size")
)

// Boundary selects how a node that leaves the canvas is brought back.
type Boundary int

const (
	// BoundaryReflect places a node that crossed the low edge at the magnitude
	// of its delta, and a node that crossed the high edge on that edge.
	BoundaryReflect Boundary = iota
	// BoundaryClamp clamps a node to the canvas on both edges.
	BoundaryClamp
)

// String returns the policy name used in configuration.
func (b Boundary) String() string {
	switch b {
	case BoundaryClamp:
		return "clamp"
	default:
		return "reflect"
	}
}

// ParseBoundary returns the policy named s ("reflect" or "clamp").
func ParseBoundary(s string) (Boundary, error) {
	switch s {
	case "", "reflect":
		return BoundaryReflect, nil
	case "clamp":
		return BoundaryClamp, nil
	default:
		return BoundaryReflect, fmt.Errorf("unknown boundary policy %q", s)
	}
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithSeed seeds the jitter source used to separate coincident nodes.
func WithSeed(seed uint64) Option {
	return func(s *Simulation) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// WithBoundary selects the boundary policy.
func WithBoundary(b Boundary) Option {
	return func(s *Simulation) { s.boundary = b }
}

// Simulation is the state of one force-directed layout run. It owns its
// node and edge slices; a new run needs a new Simulation.
//
// Simulation is not safe for concurrent use.
type Simulation struct {
	nodes    []Node
	edges    []Edge
	width    float64
	height   float64
	rng      *rand.Rand
	boundary Boundary
	steps    int
}

// NewSimulation validates nodes and edges and returns a Simulation over a
// width × height canvas. The slices are copied.
func NewSimulation(nodes []Node, edges []Edge, width, height float64, opts ...Option) (*Simulation, error) {
	if width < 0 || height < 0 || !isFinite(width) || !isFinite(height) {
		return nil, fmt.Errorf("%w: %gx%g", ErrInvalidCanvas, width, height)
	}
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.Label] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, n.Label)
		}
		seen[n.Label] = true
	}
	for i, e := range edges {
		if e.From < 0 || e.From >= len(nodes) || e.To < 0 || e.To >= len(nodes) {
			return nil, fmt.Errorf("%w: edge %d (%d→%d) with %d nodes", ErrInvalidEdgeEndpoint, i, e.From, e.To, len(nodes))
		}
	}

	s := &Simulation{
		nodes:  append([]Node(nil), nodes...),
		edges:  append([]Edge(nil), edges...),
		width:  width,
		height: height,
	}
	WithSeed(DefaultSeed)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Nodes returns a copy of the current node states.
func (s *Simulation) Nodes() []Node { return append([]Node(nil), s.nodes...) }

// Edges returns a copy of the edges.
func (s *Simulation) Edges() []Edge { return append([]Edge(nil), s.edges...) }

// Node returns the state of node i.
func (s *Simulation) Node(i int) Node { return s.nodes[i] }

// Len returns the number of nodes.
func (s *Simulation) Len() int { return len(s.nodes) }

// Bounds returns the canvas size.
func (s *Simulation) Bounds() (width, height float64) { return s.width, s.height }

// Steps returns the number of iterations relaxed so far.
func (s *Simulation) Steps() int { return s.steps }

// Relax runs iterates force iterations with the given parameters.
// A non-positive iterates leaves the simulation unchanged.
func (s *Simulation) Relax(iterates int, p Params) {
	for range max(iterates, 0) {
		s.attract()
		s.gravitate(p.Gravity)
		s.repel(p.RepulsionMultiplier)
		s.apply(p.MovementLimit)
		s.steps++
	}
}

func (s *Simulation) attract() {
	for _, e := range s.edges {
		from, to := &s.nodes[e.From], &s.nodes[e.To]
		vx := to.X - from.X
		vy := to.Y - from.Y
		l := math.Sqrt(vx*vx + vy*vy)
		if l < minSpringLength {
			continue
		}
		f := (e.RestLength - l) / (l * 3)
		dx, dy := f*vx, f*vy
		to.DX += dx
		to.DY += dy
		from.DX -= dx
		from.DY -= dy
	}
}

func (s *Simulation) gravitate(g float64) {
	if g == 0 {
		return
	}
	for i := range s.nodes {
		s.nodes[i].DY -= g
	}
}

func (s *Simulation) repel(multiplier float64) {
	area := s.width * s.height
	for i := range s.nodes {
		n1 := &s.nodes[i]
		var dx, dy float64
		for j := range s.nodes {
			if i == j {
				continue
			}
			n2 := &s.nodes[j]
			vx := n1.X - n2.X
			vy := n1.Y - n2.Y
			l := vx*vx + vy*vy
			switch {
			case l == 0:
				dx += s.rng.Float64()
				dy += s.rng.Float64()
			case l < area:
				dx += vx / l
				dy += vy / l
			}
		}
		if dl := dx*dx + dy*dy; dl > 0 {
			dl = math.Sqrt(dl) / 2
			n1.DX += multiplier * dx / dl
			n1.DY += multiplier * dy / dl
		}
	}
}

func (s *Simulation) apply(limit float64) {
	for i := range s.nodes {
		n := &s.nodes[i]
		if !n.Fixed {
			n.X += clamp(n.DX, -limit, limit)
			n.Y += clamp(n.DY, -limit, limit)
			n.X = s.boundary.confine(n.X, n.DX, s.width)
			n.Y = s.boundary.confine(n.Y, n.DY, s.height)
		}
		n.DX /= 2
		n.DY /= 2
	}
}

// confine brings coordinate v back onto [0, extent]. d is the delta that
// produced v.
func (b Boundary) confine(v, d, extent float64) float64 {
	switch {
	case v < 0:
		if b == BoundaryClamp {
			return 0
		}
		return min(math.Abs(d), extent)
	case v > extent:
		return extent
	default:
		return v
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
