package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipeview/pkg/graph"
	"github.com/matzehuels/pipeview/pkg/pipeline"
)

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output   string
		progress bool
		cf       configFlags
		rf       runFlags
	)

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute node positions for a pipeline graph",
		Long: `Compute node positions for a pipeline graph.

The layout command seeds every node on a grid (or at its stored position),
relaxes the graph with a force-directed simulation and writes the final
positions as layout.json. Positions are saved under --name so the next run
starts where this one ended.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cf.load(cmd)
			if err != nil {
				return err
			}
			opts := rf.options(cfg)
			return c.runLayout(cmd.Context(), args[0], output, progress, rf, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&progress, "progress", false, "report every batch (bypasses the cache)")
	cf.register(cmd)
	rf.register(cmd)

	return cmd
}

// runLayout loads the graph, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input, output string, progress bool, rf runFlags, opts pipeline.Options) error {
	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return fmt.Errorf("load graph %s: %w", input, err)
	}

	runner, err := c.newRunner(ctx, rf.noCache, rf.store)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if opts.Name == "" {
		opts.Name = layoutName(input)
	}

	spinner := newSpinnerWithContext(ctx, "Relaxing layout...")
	if progress {
		total := opts.Config.Iterates/max(opts.Config.ShowInterval, 1) + 1
		opts.OnBatch = func(batch int, _ time.Duration) {
			spinner.SetMessage(fmt.Sprintf("Relaxing layout... batch %d/%d", batch, total))
		}
	}
	spinner.Start()

	sw := startStopwatch(c.Logger)
	result, err := runner.Execute(ctx, g, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()
	sw.done(fmt.Sprintf("Laid out %d nodes in %d batches", result.Stats.NodeCount, result.Stats.Batches))

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "-" {
		return graph.WriteLayout(result.Layout, os.Stdout)
	}
	outputPath := output
	if outputPath == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		outputPath = base + ".layout.json"
	}
	if err := graph.WriteLayoutFile(result.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	printRejected(result.Rejected)
	if result.Restored > 0 {
		printDetail("restored %d stored positions from %q", result.Restored, opts.Name)
	}
	printNewline()
	printNextStep("Watch it relax", appName+" watch "+input)

	return nil
}

// layoutName derives a position map name from the graph file name.
func layoutName(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	name := b.String()
	if len(name) > 64 {
		name = name[:64]
	}
	return name
}

// printRejected warns about stored positions that could not be decoded.
func printRejected(rejected map[string]error) {
	if len(rejected) == 0 {
		return
	}
	labels := make([]string, 0, len(rejected))
	for l := range rejected {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	printWarning("%d stored positions were ignored", len(labels))
	for _, l := range labels {
		printDetail("%s: %v", l, rejected[l])
	}
}
