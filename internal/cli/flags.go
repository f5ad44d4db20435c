package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipeview/pkg/config"
	"github.com/matzehuels/pipeview/pkg/pipeline"
)

// configFlags binds a config file path and per-key overrides. Flags the user
// sets win over the file, which wins over the defaults.
type configFlags struct {
	path   string
	values config.Layout
}

func (f *configFlags) register(cmd *cobra.Command) {
	f.values = config.Defaults()
	fs := cmd.Flags()
	fs.StringVarP(&f.path, "config", "c", "", "layout config file (.toml, .yaml or .properties)")
	fs.IntVar(&f.values.Iterates, "iterates", f.values.Iterates, "relaxation iterations")
	fs.IntVar(&f.values.HorizontalSpacing, "hspacing", f.values.HorizontalSpacing, "grid column spacing")
	fs.IntVar(&f.values.VerticalSpacing, "vspacing", f.values.VerticalSpacing, "grid row spacing")
	fs.Float64Var(&f.values.SpringNaturalLength, "spring", f.values.SpringNaturalLength, "spring natural length")
	fs.Float64Var(&f.values.RepulsionMultiplier, "repulsion", f.values.RepulsionMultiplier, "repulsion multiplier")
	fs.Float64Var(&f.values.MovementLimit, "movement-limit", f.values.MovementLimit, "maximum move per axis per iteration")
	fs.Float64Var(&f.values.Gravity, "gravity", f.values.Gravity, "upward pull per iteration")
	fs.BoolVar(&f.values.FixRoots, "fix-roots", f.values.FixRoots, "keep root nodes in place")
	fs.BoolVar(&f.values.ShowJobDetail, "job-detail", f.values.ShowJobDetail, "size nodes for the job detail panel")
	fs.IntVar(&f.values.ShowInterval, "show-interval", f.values.ShowInterval, "iterations per published batch")
	fs.IntVar(&f.values.TickMS, "tick", f.values.TickMS, "milliseconds between batches")
	fs.StringVar(&f.values.Placement, "placement", f.values.Placement, "initial placement: depth, rows")
	fs.StringVar(&f.values.Boundary, "boundary", f.values.Boundary, "canvas edge policy: reflect, clamp")
	fs.Uint64Var(&f.values.Seed, "seed", f.values.Seed, "jitter seed")
}

// loadFile returns the configuration file at path, or the defaults when no
// path is set.
func (f *configFlags) loadFile() (config.Layout, error) {
	if f.path == "" {
		return config.Defaults(), nil
	}
	return config.Load(f.path)
}

// load returns the file configuration with set flags applied, validated.
func (f *configFlags) load(cmd *cobra.Command) (config.Layout, error) {
	cfg, err := f.loadFile()
	if err != nil {
		return config.Layout{}, err
	}

	fs := cmd.Flags()
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"iterates", func() { cfg.Iterates = f.values.Iterates }},
		{"hspacing", func() { cfg.HorizontalSpacing = f.values.HorizontalSpacing }},
		{"vspacing", func() { cfg.VerticalSpacing = f.values.VerticalSpacing }},
		{"spring", func() { cfg.SpringNaturalLength = f.values.SpringNaturalLength }},
		{"repulsion", func() { cfg.RepulsionMultiplier = f.values.RepulsionMultiplier }},
		{"movement-limit", func() { cfg.MovementLimit = f.values.MovementLimit }},
		{"gravity", func() { cfg.Gravity = f.values.Gravity }},
		{"fix-roots", func() { cfg.FixRoots = f.values.FixRoots }},
		{"job-detail", func() { cfg.ShowJobDetail = f.values.ShowJobDetail }},
		{"show-interval", func() { cfg.ShowInterval = f.values.ShowInterval }},
		{"tick", func() { cfg.TickMS = f.values.TickMS }},
		{"placement", func() { cfg.Placement = f.values.Placement }},
		{"boundary", func() { cfg.Boundary = f.values.Boundary }},
		{"seed", func() { cfg.Seed = f.values.Seed }},
	}
	for _, o := range overrides {
		if fs.Changed(o.flag) {
			o.apply()
		}
	}
	return cfg, cfg.Validate()
}

// runFlags are the persistence flags shared by layout and watch.
type runFlags struct {
	store   string
	name    string
	noCache bool
	fresh   bool
	noSave  bool
	refresh bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.store, "store", "", "position store: directory, redis:// or mongodb:// URL (default: $"+envStore+" or the data dir)")
	fs.StringVarP(&f.name, "name", "n", "", "layout name to restore from and save to")
	fs.BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
	fs.BoolVar(&f.fresh, "fresh", false, "ignore stored positions")
	fs.BoolVar(&f.noSave, "no-save", false, "do not save positions after the run")
	fs.BoolVar(&f.refresh, "refresh", false, "recompute even if the layout is cached")
}

// options returns pipeline options for cfg.
func (f *runFlags) options(cfg config.Layout) pipeline.Options {
	return pipeline.Options{
		Config:  cfg,
		Name:    f.name,
		Fresh:   f.fresh,
		NoSave:  f.noSave,
		Refresh: f.refresh,
	}
}
