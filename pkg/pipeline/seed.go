package pipeline

import (
	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/connectivity"
	"github.com/matzehuels/pipeview/pkg/dag"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/layout"
	"github.com/matzehuels/pipeview/pkg/position"
)

// Seed is a simulation ready to run together with how it was derived.
type Seed struct {
	Simulation *layout.Simulation
	Placement  *connectivity.Placement
	Roots      []string         // Sorted layout roots
	Index      map[string]int   // Node label → simulation index
	Rejected   map[string]error // Labels whose stored position was unusable
	Restored   int              // Nodes seeded from a stored position
}

// NewSeed builds the starting simulation for g.
//
// Every node starts at its grid cell, (hspacing*col + 10, vspacing*row + 10).
// Nodes the placement does not reach get columns to the right of the grid.
// A node with a decodable stored position starts there instead; undecodable
// entries are reported in Rejected and the node keeps its grid position.
// Roots are fixed when cfg.FixRoots is set. Every parent→child edge whose
// parent is not the panel root becomes a spring of the natural length. The
// canvas is roots × hspacing wide and cfg.CanvasHeight high.
func NewSeed(g *dag.DAG, cfg config.Layout, stored position.Map) (*Seed, error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid graph")
	}

	p, err := connectivity.Place(g, g.Roots(), cfg.Strategy())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "place graph")
	}
	roots, _ := connectivity.SortRoots(g, g.Roots())

	points, rejected := position.DecodeAll(stored)
	s := &Seed{
		Placement: p,
		Roots:     roots,
		Index:     make(map[string]int),
	}

	ids := g.IDs()
	nodes := make([]layout.Node, 0, len(ids))
	extra := 0
	for _, id := range ids {
		cell, ok := p.Cell(id)
		if !ok {
			cell = layout.Dyad{Col: p.Columns + extra}
			extra++
		}
		n := layout.Node{
			Label: id,
			X:     float64(cfg.HorizontalSpacing*cell.Col + GridOffset),
			Y:     float64(cfg.VerticalSpacing*cell.Row + GridOffset),
			Fixed: cfg.FixRoots && g.IsRoot(id),
		}
		if pt, ok := points[id]; ok {
			n.X, n.Y = float64(pt.X), float64(pt.Y)
			s.Restored++
		} else if err, ok := rejected[id]; ok {
			if s.Rejected == nil {
				s.Rejected = make(map[string]error)
			}
			s.Rejected[id] = err
		}
		s.Index[id] = len(nodes)
		nodes = append(nodes, n)
	}

	var edges []layout.Edge
	for _, e := range g.Edges() {
		if e.From == dag.PanelRootID {
			continue
		}
		edges = append(edges, layout.Edge{
			From:       s.Index[e.From],
			To:         s.Index[e.To],
			RestLength: cfg.SpringNaturalLength,
		})
	}

	width := float64(len(roots) * cfg.HorizontalSpacing)
	sim, err := layout.NewSimulation(nodes, edges, width, float64(cfg.CanvasHeight),
		layout.WithSeed(cfg.Seed),
		layout.WithBoundary(cfg.BoundaryPolicy()),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidGraph, err, "build simulation")
	}
	s.Simulation = sim
	return s, nil
}
