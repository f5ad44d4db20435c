package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/matzehuels/pipeview/pkg/cache"
	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/dag"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/graph"
	"github.com/matzehuels/pipeview/pkg/layout"
	"github.com/matzehuels/pipeview/pkg/position"
)

func buildDAG(t *testing.T, ids []string, edges [][2]string) *dag.DAG {
	t.Helper()
	g := dag.New(nil)
	for _, id := range ids {
		if err := g.AddNode(dag.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%q): %v", id, err)
		}
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatalf("AddEdge(%q, %q): %v", e[0], e[1], err)
		}
	}
	return g
}

// fanOut is a → b, a → c plus an isolated d.
func fanOut(t *testing.T) *dag.DAG {
	return buildDAG(t, []string{"a", "b", "c", "d"}, [][2]string{{"a", "b"}, {"a", "c"}})
}

func testConfig() config.Layout {
	c := config.Defaults()
	c.HorizontalSpacing = 150
	c.VerticalSpacing = 100
	c.Iterates = 5
	return c
}

func TestNewSeedGrid(t *testing.T) {
	seed, err := NewSeed(fanOut(t), testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}

	want := map[string][2]float64{
		"a": {10, 10},
		"b": {10, 110},
		"c": {160, 110},
		"d": {310, 10},
	}
	for label, xy := range want {
		n := seed.Simulation.Node(seed.Index[label])
		if n.X != xy[0] || n.Y != xy[1] {
			t.Errorf("%s at (%g, %g), want (%g, %g)", label, n.X, n.Y, xy[0], xy[1])
		}
	}

	if w, h := seed.Simulation.Bounds(); w != 300 || h != 1000 {
		t.Errorf("canvas = %gx%g, want 300x1000", w, h)
	}
	for _, label := range []string{"a", "d"} {
		if !seed.Simulation.Node(seed.Index[label]).Fixed {
			t.Errorf("root %s should be fixed", label)
		}
	}
	if seed.Simulation.Node(seed.Index["b"]).Fixed {
		t.Error("b should be free")
	}

	edges := seed.Simulation.Edges()
	if len(edges) != 2 {
		t.Fatalf("edges = %v", edges)
	}
	for _, e := range edges {
		if e.From != seed.Index["a"] || e.RestLength != config.DefaultSpringNaturalLength {
			t.Errorf("edge %+v", e)
		}
	}
}

func TestNewSeedFixRootsOff(t *testing.T) {
	cfg := testConfig()
	cfg.FixRoots = false
	seed, err := NewSeed(fanOut(t), cfg, nil)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	for _, n := range seed.Simulation.Nodes() {
		if n.Fixed {
			t.Errorf("%s fixed with fix_roots off", n.Label)
		}
	}
}

func TestNewSeedPanelRoot(t *testing.T) {
	g := buildDAG(t, []string{dag.PanelRootID, "a", "b"}, [][2]string{{dag.PanelRootID, "a"}, {"a", "b"}})
	seed, err := NewSeed(g, testConfig(), nil)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if seed.Simulation.Len() != 2 {
		t.Errorf("Len = %d, want panel root excluded", seed.Simulation.Len())
	}
	if len(seed.Simulation.Edges()) != 1 {
		t.Errorf("edges = %v, want only a→b", seed.Simulation.Edges())
	}
	if len(seed.Roots) != 1 || seed.Roots[0] != "a" {
		t.Errorf("Roots = %v", seed.Roots)
	}
}

func TestNewSeedStoredPositions(t *testing.T) {
	stored := position.Map{
		"b":     "50 60 92 18",
		"c":     "bogus",
		"stray": "1 2",
	}
	seed, err := NewSeed(fanOut(t), testConfig(), stored)
	if err != nil {
		t.Fatalf("NewSeed: %v", err)
	}
	if b := seed.Simulation.Node(seed.Index["b"]); b.X != 50 || b.Y != 60 {
		t.Errorf("b at (%g, %g), want stored (50, 60)", b.X, b.Y)
	}
	if c := seed.Simulation.Node(seed.Index["c"]); c.X != 160 || c.Y != 110 {
		t.Errorf("c at (%g, %g), want grid fallback", c.X, c.Y)
	}
	if seed.Restored != 1 {
		t.Errorf("Restored = %d", seed.Restored)
	}
	if len(seed.Rejected) != 1 || !errors.Is(seed.Rejected["c"], errors.ErrCodeInvalidPosition) {
		t.Errorf("Rejected = %v", seed.Rejected)
	}
}

func TestNewSeedRejectsCycle(t *testing.T) {
	g := buildDAG(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
	_, err := NewSeed(g, testConfig(), nil)
	if !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("err = %v, want INVALID_GRAPH", err)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	store, err := position.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(nil, nil, store, nil)
	defer r.Close()

	g := fanOut(t)
	display := layout.NewMapDisplay(g.IDs()...)
	batches := 0
	res, err := r.Execute(ctx, g, Options{
		Config:  testConfig(),
		Display: display,
		OnBatch: func(int, time.Duration) { batches++ },
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if res.Stats.Batches != 6 || res.Layout.Batches != 6 || batches != 6 {
		t.Errorf("batches = %d/%d/%d, want 6", res.Stats.Batches, res.Layout.Batches, batches)
	}
	if display.Moves() != 6*4 {
		t.Errorf("Moves = %d, want %d", display.Moves(), 6*4)
	}
	if len(res.Layout.Positions) != 4 || len(res.Layout.Edges) != 2 {
		t.Fatalf("layout = %+v", res.Layout)
	}
	a, _ := res.Layout.Position("a")
	if a.X != 10 || a.Y != 10 || !a.Fixed {
		t.Errorf("fixed root moved: %+v", a)
	}
	for _, p := range res.Layout.Positions {
		got, ok := display.Position(p.ID)
		if !ok || got.X != p.X || got.Y != p.Y {
			t.Errorf("%s: display %v, layout (%d, %d)", p.ID, got, p.X, p.Y)
		}
	}

	saved, err := store.Load(ctx, position.DefaultName)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(saved) != 4 {
		t.Fatalf("saved = %v", saved)
	}
	if want := position.Encode(position.LabelBounds("a", 10, 10, false)); saved["a"] != want {
		t.Errorf("saved a = %q, want %q", saved["a"], want)
	}

	// A second run restores every node from the saved map.
	res2, err := r.Execute(ctx, g, Options{Config: testConfig()})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if res2.Restored != 4 || len(res2.Rejected) != 0 {
		t.Errorf("Restored = %d, Rejected = %v", res2.Restored, res2.Rejected)
	}

	fresh, err := r.Execute(ctx, g, Options{Config: testConfig(), Fresh: true, NoSave: true})
	if err != nil {
		t.Fatalf("fresh Execute: %v", err)
	}
	if fresh.Restored != 0 {
		t.Errorf("fresh run restored %d nodes", fresh.Restored)
	}
}

func TestExecuteDeterministic(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil, nil)
	cfg := testConfig()
	cfg.FixRoots = false
	cfg.Iterates = 50

	first, err := r.Execute(ctx, fanOut(t), Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Execute(ctx, fanOut(t), Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	for i, p := range first.Layout.Positions {
		if second.Layout.Positions[i] != p {
			t.Errorf("run differs at %s: %+v vs %+v", p.ID, p, second.Layout.Positions[i])
		}
	}
}

func TestExecuteCache(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, nil, nil)
	g := fanOut(t)

	first, err := r.Execute(ctx, g, Options{Config: testConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit {
		t.Error("first run should miss")
	}

	second, err := r.Execute(ctx, g, Options{Config: testConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit")
	}
	if len(second.Layout.Positions) != len(first.Layout.Positions) {
		t.Errorf("cached layout = %+v", second.Layout)
	}

	cfg := testConfig()
	cfg.Iterates++
	third, err := r.Execute(ctx, g, Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("changed config should miss")
	}

	refreshed, err := r.Execute(ctx, g, Options{Config: testConfig(), Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LayoutHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteCacheHitSavesUnderRequestedName(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store, err := position.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(c, nil, store, nil)
	defer r.Close()
	g := fanOut(t)

	if _, err := r.Execute(ctx, g, Options{Config: testConfig(), Name: "alpha", Fresh: true}); err != nil {
		t.Fatal(err)
	}
	res, err := r.Execute(ctx, g, Options{Config: testConfig(), Name: "beta", Fresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if !res.CacheInfo.LayoutHit {
		t.Fatal("second run should hit the shared cache entry")
	}
	if res.Layout.Name != "beta" {
		t.Errorf("Layout.Name = %q, want beta", res.Layout.Name)
	}

	alpha, err := store.Load(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	beta, err := store.Load(ctx, "beta")
	if err != nil {
		t.Fatal(err)
	}
	if len(beta) != 4 {
		t.Fatalf("saved under beta = %v, want 4 entries", beta)
	}
	for label, v := range alpha {
		if beta[label] != v {
			t.Errorf("%s: beta %q, alpha %q", label, beta[label], v)
		}
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil, nil, nil, nil)

	tests := []struct {
		name string
		opts func() Options
		ctx  func() context.Context
		code errors.Code
	}{
		{
			name: "invalid config",
			opts: func() Options {
				c := testConfig()
				c.ShowInterval = 0
				return Options{Config: c}
			},
			code: errors.ErrCodeInvalidConfig,
		},
		{
			name: "invalid name",
			opts: func() Options { return Options{Config: testConfig(), Name: "../x"} },
			code: errors.ErrCodeInvalidName,
		},
		{
			name: "non-finite",
			opts: func() Options {
				c := testConfig()
				c.FixRoots = false
				c.Gravity = math.NaN()
				return Options{Config: c}
			},
			code: errors.ErrCodeNonFinite,
		},
		{
			name: "cancelled",
			opts: func() Options { return Options{Config: testConfig()} },
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(ctx)
				cancel()
				return ctx
			},
			code: errors.ErrCodeCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runCtx := ctx
			if tt.ctx != nil {
				runCtx = tt.ctx()
			}
			_, err := r.Execute(runCtx, fanOut(t), tt.opts())
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSavePositionsWithoutStore(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil)
	err := r.SavePositions(context.Background(), "x", graphLayoutFixture())
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v", err)
	}
}

func graphLayoutFixture() graph.Layout {
	return graph.Layout{Positions: []graph.Position{{ID: "a", X: 1, Y: 2, Width: 92, Height: 18}}}
}
