package dag

import (
	"errors"
	"slices"
)

// PanelRootID is the ID of the synthetic node that owns the pipeline's
// top-level steps. Its children are the layout roots. It never takes part in
// connectivity or placement, and it never gets a position.
const PanelRootID = "__panel__"

var (
	// ErrInvalidNodeID is returned by [DAG.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [DAG.AddNode] when a node with the
	// same ID already exists. Node IDs double as display labels, so they must
	// be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [DAG.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [DAG.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [DAG.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrPanelRootHasParent is returned by [DAG.Validate] when the synthetic
	// panel root appears as the target of an edge.
	ErrPanelRootHasParent = errors.New("panel root cannot have parents")

	// ErrGraphHasCycle is returned by [DAG.Validate] when a directed cycle is
	// detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Metadata stores arbitrary key-value pairs attached to nodes or the graph,
// for example the job detail shown next to a step. Metadata maps are never
// nil after they have been added to a DAG.
type Metadata map[string]any

// Node is one analysis step of the pipeline.
type Node struct {
	ID   string   // Unique identifier, also used as the display label
	Meta Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// IsPanelRoot reports whether the node is the synthetic panel root.
func (n Node) IsPanelRoot() bool { return n.ID == PanelRootID }

// Edge is a dependency relation: From is the parent, To the child.
type Edge struct {
	From string   // Parent node ID
	To   string   // Child node ID
	Meta Metadata // Arbitrary key-value metadata (never nil after AddEdge)
}

// DAG is the dependency graph of a pipeline. It keeps insertion order for
// nodes and adjacency lists so every traversal over it is deterministic.
//
// The zero value is not usable - use New to create a valid DAG instance.
// DAG is not safe for concurrent use without external synchronization.
type DAG struct {
	nodes    map[string]*Node
	order    []string
	edges    []Edge
	outgoing map[string][]string // nodeID -> children IDs
	incoming map[string][]string // nodeID -> parent IDs
	meta     Metadata
}

// New creates an empty DAG with optional graph-level metadata.
// The metadata parameter can be nil, in which case an empty map is created.
func New(meta Metadata) *DAG {
	if meta == nil {
		meta = Metadata{}
	}
	return &DAG{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (d *DAG) Meta() Metadata { return d.meta }

// AddNode adds a node to the graph.
// Returns ErrInvalidNodeID if the node ID is empty, or ErrDuplicateNodeID
// if a node with the same ID already exists.
func (d *DAG) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := d.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	d.nodes[n.ID] = &n
	d.order = append(d.order, n.ID)
	return nil
}

// AddEdge adds a directed parent→child edge between two existing nodes.
// Returns ErrUnknownSourceNode if the From node doesn't exist, or
// ErrUnknownTargetNode if the To node doesn't exist. Adding the same edge
// twice is a no-op.
func (d *DAG) AddEdge(e Edge) error {
	if _, ok := d.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := d.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if slices.Contains(d.outgoing[e.From], e.To) {
		return nil
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}
	d.edges = append(d.edges, e)
	d.outgoing[e.From] = append(d.outgoing[e.From], e.To)
	d.incoming[e.To] = append(d.incoming[e.To], e.From)
	return nil
}

// Nodes returns all nodes in insertion order. The returned slice contains
// pointers to the actual node structs, so modifications affect the graph.
func (d *DAG) Nodes() []*Node {
	nodes := make([]*Node, 0, len(d.order))
	for _, id := range d.order {
		nodes = append(nodes, d.nodes[id])
	}
	return nodes
}

// IDs returns the IDs of all nodes except the panel root, in insertion order.
func (d *DAG) IDs() []string {
	ids := make([]string, 0, len(d.order))
	for _, id := range d.order {
		if id != PanelRootID {
			ids = append(ids, id)
		}
	}
	return ids
}

// Edges returns a copy of all edges in insertion order.
func (d *DAG) Edges() []Edge { return slices.Clone(d.edges) }

// NodeCount returns the number of nodes in the graph, panel root included.
func (d *DAG) NodeCount() int { return len(d.nodes) }

// EdgeCount returns the number of edges in the graph.
func (d *DAG) EdgeCount() int { return len(d.edges) }

// HasPanelRoot reports whether the graph contains the synthetic panel root.
func (d *DAG) HasPanelRoot() bool {
	_, ok := d.nodes[PanelRootID]
	return ok
}

// Children returns the IDs of the node's children in insertion order.
// Returns nil if the node has no children or doesn't exist. The returned
// slice should not be modified.
func (d *DAG) Children(id string) []string { return d.outgoing[id] }

// Parents returns the IDs of the node's parents in insertion order.
// Returns nil if the node has no parents or doesn't exist. The returned
// slice should not be modified.
func (d *DAG) Parents(id string) []string { return d.incoming[id] }

// OutDegree returns the number of children of the node.
func (d *DAG) OutDegree(id string) int { return len(d.outgoing[id]) }

// InDegree returns the number of parents of the node.
func (d *DAG) InDegree(id string) int { return len(d.incoming[id]) }

// Node returns the node with the given ID and true, or nil and false if not found.
func (d *DAG) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Sources returns the nodes without parents, in insertion order, excluding
// the panel root.
func (d *DAG) Sources() []*Node {
	var sources []*Node
	for _, id := range d.order {
		if id != PanelRootID && len(d.incoming[id]) == 0 {
			sources = append(sources, d.nodes[id])
		}
	}
	return sources
}

// Roots returns the layout roots: the children of the panel root when the
// graph has one, otherwise the IDs of [DAG.Sources].
func (d *DAG) Roots() []string {
	if d.HasPanelRoot() {
		return slices.Clone(d.outgoing[PanelRootID])
	}
	return NodeIDs(d.Sources())
}

// IsRoot reports whether id is one of [DAG.Roots].
func (d *DAG) IsRoot(id string) bool {
	if d.HasPanelRoot() {
		return slices.Contains(d.incoming[id], PanelRootID)
	}
	_, ok := d.nodes[id]
	return ok && id != PanelRootID && len(d.incoming[id]) == 0
}

// Ancestors returns every node reachable from id by following parent links,
// nearest first, excluding the panel root and id itself.
func (d *DAG) Ancestors(id string) []string {
	seen := map[string]bool{id: true, PanelRootID: true}
	var out []string
	queue := slices.Clone(d.incoming[id])
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		queue = append(queue, d.incoming[p]...)
	}
	return out
}

// Validate checks graph integrity and returns nil if valid.
// It verifies that:
//
//  1. All edges connect existing nodes
//  2. The panel root, if present, has no parents
//  3. The graph is acyclic (no directed cycles exist)
//
// Cycle detection runs in O(N+E) time using an iterative depth-first search.
func (d *DAG) Validate() error {
	if err := d.validateEdgeConsistency(); err != nil {
		return err
	}
	return d.detectCycles()
}

func (d *DAG) validateEdgeConsistency() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if e.To == PanelRootID {
			return ErrPanelRootHasParent
		}
	}
	return nil
}

// detectCycles walks the graph depth-first with an explicit stack so deep
// chains cannot exhaust the goroutine stack.
func (d *DAG) detectCycles() error {
	const (
		white = iota
		gray
		black
	)
	type frame struct {
		id   string
		next int
	}

	color := make(map[string]int, len(d.nodes))
	var stack []frame
	for _, root := range d.order {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack = append(stack[:0], frame{id: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := d.outgoing[top.id]
			if top.next == len(children) {
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch color[child] {
			case gray:
				return ErrGraphHasCycle
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			}
		}
	}
	return nil
}

// NodeIDs extracts the ID from each node in a slice.
// Returns a new slice containing the IDs in the same order as the input.
func NodeIDs(nodes []*Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}
