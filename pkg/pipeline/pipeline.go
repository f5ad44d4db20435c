// Package pipeline runs a complete pipeview layout: it seeds a force-directed
// simulation from a dependency graph, its configuration and any persisted
// positions, drives the incremental controller and saves the result.
//
// This package centralizes the run so the CLI, the interactive watcher and
// the HTTP API behave the same way.
//
// # Stages
//
//  1. Seed: place the graph on a grid ([connectivity.Place]), convert cells
//     to canvas coordinates and override them with decoded stored positions.
//  2. Relax: advance a [layout.Controller] batch by batch, publishing to an
//     optional display.
//  3. Save: encode every node's bounds and write them to the position store.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	result, err := runner.Execute(ctx, g, pipeline.Options{
//	    Config: config.Defaults(),
//	    Name:   "graphlayout",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range result.Layout.Positions {
//	    fmt.Println(p.ID, p.X, p.Y)
//	}
//
// Seed a simulation without running it:
//
//	seed, err := pipeline.NewSeed(g, cfg, stored)
//	ctrl := layout.NewController(seed.Simulation, cfg.Params(), cfg.Iterates, cfg.ShowInterval, display)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipeview/pkg/cache"
	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/errors"
	"github.com/matzehuels/pipeview/pkg/graph"
	"github.com/matzehuels/pipeview/pkg/layout"
	"github.com/matzehuels/pipeview/pkg/position"
)

// GridOffset is added to both grid coordinates when a cell becomes a canvas
// position.
const GridOffset = 10

// TTLLayout is how long a computed layout stays cached.
const TTLLayout = 24 * time.Hour

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures one layout run. It supports JSON for API requests.
type Options struct {
	// Config holds the layout parameters.
	Config config.Layout `json:"config"`

	// Name is the position map the run restores from and saves to.
	Name string `json:"name,omitempty"`

	// Fresh ignores stored positions and seeds from the grid only.
	Fresh bool `json:"fresh,omitempty"`

	// NoSave skips writing positions after the run.
	NoSave bool `json:"no_save,omitempty"`

	// Refresh bypasses the layout cache.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)

	// Logger receives run progress. Defaults to the runner's logger.
	Logger *log.Logger `json:"-"`

	// Display receives every published batch. Setting it disables the cache.
	Display layout.Display `json:"-"`

	// OnBatch is called after each batch. Setting it disables the cache.
	OnBatch layout.BatchFunc `json:"-"`

	// Paced waits Config.TickMS between batches instead of running them
	// back to back.
	Paced bool `json:"-"`
}

// ValidateAndSetDefaults fills the layout name and logger and validates the
// configuration.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Name == "" {
		o.Name = position.DefaultName
	}
	if err := errors.ValidateLayoutName(o.Name); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o.Config.Validate()
}

// cacheable reports whether the run may be answered from the cache.
func (o *Options) cacheable() bool {
	return !o.Refresh && o.Display == nil && o.OnBatch == nil
}

// LayoutKeyOpts returns cache key options for the run, given the hash of the
// stored positions it seeds from.
func (o *Options) LayoutKeyOpts(positionsHash string) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		ConfigHash:    o.Config.Hash(),
		PositionsHash: positionsHash,
		Seed:          o.Config.Seed,
	}
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a layout run.
type Result struct {
	// Layout holds the final published positions.
	Layout graph.Layout

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Rejected maps labels whose stored position could not be decoded to
	// the decode error. Those nodes started from their grid cell.
	Rejected map[string]error

	// Restored counts nodes seeded from a stored position.
	Restored int

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the layout came from the cache.
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	Batches    int
	SeedTime   time.Duration
	LayoutTime time.Duration
	SaveTime   time.Duration
}

// CacheInfo tracks cache use.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from the cache
}
