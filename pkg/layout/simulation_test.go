package layout

import (
	"errors"
	"math"
	"testing"
)

func mustSim(t *testing.T, nodes []Node, edges []Edge, w, h float64, opts ...Option) *Simulation {
	t.Helper()
	s, err := NewSimulation(nodes, edges, w, h, opts...)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	return s
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestNewSimulationValidation(t *testing.T) {
	nodes := []Node{{Label: "a"}, {Label: "b"}}
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
		w, h  float64
		want  error
	}{
		{"valid", nodes, []Edge{{From: 0, To: 1}}, 100, 100, nil},
		{"empty", nil, nil, 0, 0, nil},
		{"edge to missing node", nodes, []Edge{{From: 0, To: 2}}, 100, 100, ErrInvalidEdgeEndpoint},
		{"negative edge index", nodes, []Edge{{From: -1, To: 1}}, 100, 100, ErrInvalidEdgeEndpoint},
		{"duplicate label", []Node{{Label: "a"}, {Label: "a"}}, nil, 100, 100, ErrDuplicateLabel},
		{"negative canvas", nodes, nil, -1, 100, ErrInvalidCanvas},
		{"infinite canvas", nodes, nil, math.Inf(1), 100, ErrInvalidCanvas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSimulation(tt.nodes, tt.edges, tt.w, tt.h)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewSimulation() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewSimulationCopiesInput(t *testing.T) {
	nodes := []Node{{Label: "a", X: 10, Y: 10}}
	s := mustSim(t, nodes, nil, 100, 100)
	nodes[0].X = 99
	if s.Node(0).X != 10 {
		t.Errorf("simulation shares caller's slice: X = %v", s.Node(0).X)
	}
}

func TestTriangleAttraction(t *testing.T) {
	s := mustSim(t,
		[]Node{{Label: "from", X: 0, Y: 0}, {Label: "to", X: 100, Y: 0}},
		[]Edge{{From: 0, To: 1, RestLength: 50}},
		200, 200,
	)
	p := Params{MovementLimit: 1000}

	s.Relax(1, p)

	// f = (50-100)/(100*3) = -1/6, so the pull is 100/6 on each endpoint.
	pull := 100.0 / 6
	from, to := s.Node(0), s.Node(1)
	if !approx(to.X, 100-pull) {
		t.Errorf("to.X = %v, want %v", to.X, 100-pull)
	}
	if !approx(from.X, pull) {
		t.Errorf("from.X = %v, want %v", from.X, pull)
	}
	if !approx(to.DX, -pull/2) || !approx(from.DX, pull/2) {
		t.Errorf("deltas not halved: from.DX = %v, to.DX = %v", from.DX, to.DX)
	}
	if from.Y != 0 || to.Y != 0 {
		t.Errorf("y moved: from.Y = %v, to.Y = %v", from.Y, to.Y)
	}
}

func TestZeroLengthEdgeIsInert(t *testing.T) {
	s := mustSim(t,
		[]Node{{Label: "a", X: 40, Y: 40}, {Label: "b", X: 40, Y: 40, Fixed: true}},
		[]Edge{{From: 0, To: 1, RestLength: 50}},
		100, 100,
	)
	s.Relax(3, Params{MovementLimit: 10})
	for _, n := range s.Nodes() {
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			t.Fatalf("node %q became NaN", n.Label)
		}
	}
}

func TestRepulsionSeparatesCoincidentNodes(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		s := mustSim(t,
			[]Node{{Label: "a", X: 50, Y: 50}, {Label: "b", X: 50, Y: 50}},
			nil, 100, 100, WithSeed(seed),
		)
		s.Relax(1, Params{MovementLimit: 1000, RepulsionMultiplier: 10})

		a, b := s.Node(0), s.Node(1)
		if a.X == 50 && a.Y == 50 {
			t.Errorf("seed %d: a did not move", seed)
		}
		if b.X == 50 && b.Y == 50 {
			t.Errorf("seed %d: b did not move", seed)
		}
		if a.X == b.X && a.Y == b.Y {
			t.Errorf("seed %d: nodes still coincident at (%v, %v)", seed, a.X, a.Y)
		}
	}
}

func TestRepulsionCutoff(t *testing.T) {
	// Squared distance 100² exceeds the 10×10 canvas area, so no push.
	s := mustSim(t,
		[]Node{{Label: "a", X: 0, Y: 0}, {Label: "b", X: 100, Y: 0}},
		nil, 10, 10,
	)
	s.Relax(1, Params{MovementLimit: 1000, RepulsionMultiplier: 10})
	if s.Node(0).DX != 0 || s.Node(1).DX != 0 {
		t.Errorf("pair beyond cutoff repelled: %v, %v", s.Node(0).DX, s.Node(1).DX)
	}
}

func TestGravity(t *testing.T) {
	s := mustSim(t, []Node{{Label: "a", X: 50, Y: 50}}, nil, 100, 100)
	s.Relax(1, Params{MovementLimit: 100, Gravity: 4})
	n := s.Node(0)
	if n.Y != 46 {
		t.Errorf("Y = %v, want 46", n.Y)
	}
	if n.DY != -2 {
		t.Errorf("DY = %v, want -2", n.DY)
	}
}

func TestMovementLimit(t *testing.T) {
	s := mustSim(t, []Node{{Label: "a", X: 50, Y: 50, DX: 500, DY: -500}}, nil, 1000, 1000)
	s.Relax(1, Params{MovementLimit: 7})
	n := s.Node(0)
	if n.X != 57 || n.Y != 43 {
		t.Errorf("position = (%v, %v), want (57, 43)", n.X, n.Y)
	}
}

func TestFixedNodesDoNotMoveButDecay(t *testing.T) {
	s := mustSim(t,
		[]Node{{Label: "root", X: 10, Y: 10, DX: 8, Fixed: true}, {Label: "child", X: 10, Y: 60}},
		[]Edge{{From: 0, To: 1, RestLength: 200}},
		300, 300,
	)
	s.Relax(25, Params{MovementLimit: 30, Gravity: 1, RepulsionMultiplier: 5})

	root := s.Node(0)
	if root.X != 10 || root.Y != 10 {
		t.Errorf("fixed node moved to (%v, %v)", root.X, root.Y)
	}
	if s.Node(1).Y == 60 {
		t.Error("free node did not move")
	}
}

func TestFixedNodeDeltaHalves(t *testing.T) {
	s := mustSim(t, []Node{{Label: "root", X: 10, Y: 10, DX: 8, DY: -4, Fixed: true}}, nil, 100, 100)
	s.Relax(1, Params{MovementLimit: 30})
	if n := s.Node(0); n.DX != 4 || n.DY != -2 {
		t.Errorf("delta = (%v, %v), want (4, -2)", n.DX, n.DY)
	}
}

// The default policy takes the new coordinate from the delta that pushed the
// node off the canvas rather than mirroring the overshoot. A node at x=5
// pushed by -100 with a limit of 30 lands at 100, not at 25.
func TestBoundaryReflectUsesDelta(t *testing.T) {
	tests := []struct {
		name     string
		boundary Boundary
		wantX    float64
	}{
		{"reflect", BoundaryReflect, 100},
		{"clamp", BoundaryClamp, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustSim(t, []Node{{Label: "a", X: 5, Y: 50, DX: -100}}, nil, 200, 200, WithBoundary(tt.boundary))
			s.Relax(1, Params{MovementLimit: 30})
			if got := s.Node(0).X; got != tt.wantX {
				t.Errorf("X = %v, want %v", got, tt.wantX)
			}
		})
	}
}

func TestBoundaryReflectCapsAtCanvas(t *testing.T) {
	s := mustSim(t, []Node{{Label: "a", X: 5, Y: 5, DX: -900, DY: -900}}, nil, 100, 50)
	s.Relax(1, Params{MovementLimit: 30})
	if n := s.Node(0); n.X != 100 || n.Y != 50 {
		t.Errorf("position = (%v, %v), want (100, 50)", n.X, n.Y)
	}
}

func TestBoundaryHighEdge(t *testing.T) {
	s := mustSim(t, []Node{{Label: "a", X: 95, Y: 45, DX: 20, DY: 20}}, nil, 100, 50)
	s.Relax(1, Params{MovementLimit: 30})
	if n := s.Node(0); n.X != 100 || n.Y != 50 {
		t.Errorf("position = (%v, %v), want (100, 50)", n.X, n.Y)
	}
}

func TestDeterminism(t *testing.T) {
	nodes := []Node{
		{Label: "a", X: 10, Y: 10, Fixed: true},
		{Label: "b", X: 40, Y: 110},
		{Label: "c", X: 70, Y: 110},
		{Label: "d", X: 70, Y: 110},
	}
	edges := []Edge{{From: 0, To: 1, RestLength: 100}, {From: 0, To: 2, RestLength: 100}, {From: 2, To: 3, RestLength: 100}}
	p := Params{MovementLimit: 30, Gravity: 1, RepulsionMultiplier: 10}

	s1 := mustSim(t, nodes, edges, 300, 1000, WithSeed(7))
	s2 := mustSim(t, nodes, edges, 300, 1000, WithSeed(7))
	for range 50 {
		s1.Relax(1, p)
		s2.Relax(1, p)
		for i := range nodes {
			if s1.Node(i) != s2.Node(i) {
				t.Fatalf("step %d: node %d diverged: %+v vs %+v", s1.Steps(), i, s1.Node(i), s2.Node(i))
			}
		}
	}
}

func TestRelaxNonPositive(t *testing.T) {
	s := mustSim(t, []Node{{Label: "a", X: 1, Y: 1, DX: 4}}, nil, 10, 10)
	s.Relax(0, Params{MovementLimit: 5})
	s.Relax(-3, Params{MovementLimit: 5})
	if n := s.Node(0); n.X != 1 || n.DX != 4 || s.Steps() != 0 {
		t.Errorf("Relax(<=0) changed state: %+v steps=%d", n, s.Steps())
	}
}

func TestParseBoundary(t *testing.T) {
	for _, tt := range []struct {
		in      string
		want    Boundary
		wantErr bool
	}{
		{"", BoundaryReflect, false},
		{"reflect", BoundaryReflect, false},
		{"clamp", BoundaryClamp, false},
		{"bounce", BoundaryReflect, true},
	} {
		got, err := ParseBoundary(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBoundary(%q) = %v, %v", tt.in, got, err)
		}
		if err == nil && tt.in != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
