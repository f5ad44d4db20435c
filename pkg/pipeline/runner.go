package pipeline

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipeview/pkg/cache"
	"github.com/matzehuels/pipeview/pkg/dag"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/graph"
	"github.com/matzehuels/pipeview/pkg/layout"
	"github.com/matzehuels/pipeview/pkg/observability"
	"github.com/matzehuels/pipeview/pkg/position"
)

// Runner encapsulates layout runs with caching and position storage.
// Both CLI and API use it.
//
// The Runner is stateless except for its cache, store and logger. Multiple
// goroutines can safely use the same Runner; every run builds its own
// simulation.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  position.Store
	Logger *log.Logger
}

// NewRunner creates a runner.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If store is nil, runs neither restore nor save positions.
func NewRunner(c cache.Cache, keyer cache.Keyer, store position.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  store,
		Logger: logger,
	}
}

// Execute seeds, relaxes and saves a layout of g.
func (r *Runner) Execute(ctx context.Context, g *dag.DAG, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	result := &Result{}
	result.Stats.NodeCount = len(g.IDs())
	result.Stats.EdgeCount = g.EdgeCount()
	if data, err := graph.MarshalGraph(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	stored, err := r.LoadPositions(ctx, opts)
	if err != nil {
		return nil, err
	}

	cacheKey := r.Keyer.LayoutKey(result.GraphHash, opts.LayoutKeyOpts(positionsHash(stored)))
	hit := false
	if opts.cacheable() {
		if l, ok := r.cachedLayout(ctx, cacheKey); ok {
			// Cache keys ignore the name, so stamp the requested one.
			l.Name = opts.Name
			result.Layout = l
			result.Stats.Batches = l.Batches
			result.CacheInfo.LayoutHit = true
			hit = true
			logger.Debug("layout cache hit", "name", opts.Name)
		}
	}
	if !hit {
		if err := r.compute(ctx, g, stored, cacheKey, opts, result); err != nil {
			return nil, err
		}
	}

	// Stage 3: Save
	if !opts.NoSave && r.Store != nil {
		saveStart := time.Now()
		if err := r.SavePositions(ctx, opts.Name, result.Layout); err != nil {
			return nil, err
		}
		result.Stats.SaveTime = time.Since(saveStart)
		logger.Debug("saved positions", "name", opts.Name, "entries", len(result.Layout.Positions))
	}

	return result, nil
}

// compute runs the seed and relax stages and caches the resulting layout.
func (r *Runner) compute(ctx context.Context, g *dag.DAG, stored position.Map, cacheKey string, opts Options, result *Result) error {
	logger := opts.Logger
	hooks := observability.Layout()

	// Stage 1: Seed
	seedStart := time.Now()
	seed, err := NewSeed(g, opts.Config, stored)
	if err != nil {
		return err
	}
	result.Stats.SeedTime = time.Since(seedStart)
	result.Rejected = seed.Rejected
	result.Restored = seed.Restored
	for label, rerr := range seed.Rejected {
		logger.Warn("ignoring stored position", "node", label, "error", rerr)
		hooks.OnPositionRejected(ctx, opts.Name, label, rerr)
	}
	logger.Info("seeded layout",
		"nodes", seed.Simulation.Len(),
		"roots", len(seed.Roots),
		"restored", seed.Restored,
		"strategy", opts.Config.Strategy())

	// Stage 2: Relax
	layoutStart := time.Now()
	ctrl, err := r.run(ctx, seed, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.Stats.Batches = ctrl.Batches()
	if err != nil {
		return err
	}
	result.Layout = BuildLayout(g, seed.Simulation, ctrl.Batches(), opts)
	logger.Info("computed layout",
		"batches", ctrl.Batches(),
		"iterations", seed.Simulation.Steps(),
		"duration", result.Stats.LayoutTime)

	if data, err := graph.MarshalLayout(result.Layout); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, TTLLayout); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}
	return nil
}

// run drives the controller to completion and reports the run to the hooks.
func (r *Runner) run(ctx context.Context, seed *Seed, opts Options) (*layout.Controller, error) {
	hooks := observability.Layout()
	cfg := opts.Config
	ctrl := layout.NewController(seed.Simulation, cfg.Params(), cfg.Iterates, cfg.ShowInterval, opts.Display)
	ctrl.OnBatch(func(batch int, elapsed time.Duration) {
		hooks.OnBatch(ctx, opts.Name, cfg.ShowInterval, elapsed)
		if opts.OnBatch != nil {
			opts.OnBatch(batch, elapsed)
		}
	})

	interval := time.Duration(0)
	if opts.Paced {
		interval = cfg.Tick()
	}

	start := time.Now()
	hooks.OnRunStart(ctx, opts.Name, seed.Simulation.Len(), len(seed.Simulation.Edges()))
	err := ctrl.Run(ctx, interval)
	hooks.OnRunComplete(ctx, opts.Name, ctrl.Batches(), time.Since(start), err)
	return ctrl, runError(err)
}

// runError maps controller errors to coded errors.
func runError(err error) error {
	switch {
	case err == nil:
		return nil
	case stderrors.Is(err, layout.ErrNonFinite):
		return errors.Wrap(errors.ErrCodeNonFinite, err, "layout diverged")
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeCancelled, err, "layout run stopped")
	default:
		return errors.Wrap(errors.ErrCodeInternal, err, "layout run failed")
	}
}

func (r *Runner) cachedLayout(ctx context.Context, key string) (graph.Layout, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false
	}
	l, err := graph.UnmarshalLayout(data)
	if err != nil {
		// Undecodable entries count as a miss and get overwritten.
		observability.Cache().OnCacheMiss(ctx, "layout")
		return graph.Layout{}, false
	}
	observability.Cache().OnCacheHit(ctx, "layout")
	return l, true
}

// LoadPositions returns the stored positions the run would seed from. It
// returns nil when the run is fresh or there is no store.
func (r *Runner) LoadPositions(ctx context.Context, opts Options) (position.Map, error) {
	if opts.Fresh || r.Store == nil {
		return nil, nil
	}
	name := opts.Name
	if name == "" {
		name = position.DefaultName
	}
	return r.Store.Load(ctx, name)
}

// SavePositions encodes the bounds of every node of l and saves them under
// name, replacing the previous map.
func (r *Runner) SavePositions(ctx context.Context, name string, l graph.Layout) error {
	if r.Store == nil {
		return errors.New(errors.ErrCodeUnsupported, "no position store configured")
	}
	bounds := make(map[string]position.Bounds, len(l.Positions))
	for _, p := range l.Positions {
		bounds[p.ID] = position.Bounds{X: p.X, Y: p.Y, Width: p.Width, Height: p.Height}
	}
	return r.Store.Save(ctx, name, position.EncodeAll(bounds))
}

// Close releases the cache and the store.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return stderrors.Join(errs...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// BuildLayout converts the final simulation state into the serialized
// layout. Positions are truncated the same way published positions are.
func BuildLayout(g *dag.DAG, sim *layout.Simulation, batches int, opts Options) graph.Layout {
	width, height := sim.Bounds()
	l := graph.Layout{
		Name:    opts.Name,
		Width:   width,
		Height:  height,
		Batches: batches,
	}
	for _, n := range sim.Nodes() {
		b := position.LabelBounds(n.Label, int(n.X), int(n.Y), opts.Config.ShowJobDetail)
		l.Positions = append(l.Positions, graph.Position{
			ID:     n.Label,
			X:      b.X,
			Y:      b.Y,
			Width:  b.Width,
			Height: b.Height,
			Fixed:  n.Fixed,
		})
	}
	for _, e := range g.Edges() {
		if e.From != dag.PanelRootID {
			l.Edges = append(l.Edges, graph.Edge{From: e.From, To: e.To})
		}
	}
	return l
}

// positionsHash hashes a position map independent of iteration order.
func positionsHash(m position.Map) string {
	if len(m) == 0 {
		return ""
	}
	var buf []byte
	for _, label := range m.Labels() {
		buf = append(buf, label...)
		buf = append(buf, 0)
		buf = append(buf, m[label]...)
		buf = append(buf, 0)
	}
	return cache.Hash(buf)
}
