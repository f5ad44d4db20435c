package layout

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNonFinite is returned by [Controller.Advance] when a batch leaves a
// node with a NaN or infinite coordinate.
var ErrNonFinite = errors.New("non-finite node position")

// relaxChunk is how many iterations run between context checks within one
// batch.
const relaxChunk = 256

// BatchFunc is called by [Controller.Run] after every published batch.
type BatchFunc func(batch int, elapsed time.Duration)

// Controller advances a Simulation in batches and publishes positions after
// every batch. It owns the Simulation for the lifetime of the run.
//
// Controller is not safe for concurrent use.
type Controller struct {
	sim       *Simulation
	params    Params
	batch     int
	remaining int
	batches   int
	display   Display
	onBatch   BatchFunc
	done      bool
	err       error
}

// NewController returns a controller that relaxes sim for iterates
// iterations in batches of batch, publishing to d. A batch below 1 is
// treated as 1. d may be nil.
func NewController(sim *Simulation, p Params, iterates, batch int, d Display) *Controller {
	return &Controller{
		sim:       sim,
		params:    p,
		batch:     max(batch, 1),
		remaining: iterates,
		display:   d,
	}
}

// OnBatch registers a callback invoked by Run after each batch.
func (c *Controller) OnBatch(f BatchFunc) { c.onBatch = f }

// Simulation returns the controlled simulation.
func (c *Controller) Simulation() *Simulation { return c.sim }

// Remaining returns the iteration budget left. It goes negative on the
// final batch.
func (c *Controller) Remaining() int { return c.remaining }

// Batches returns the number of batches run so far.
func (c *Controller) Batches() int { return c.batches }

// Done reports whether the run has finished or failed.
func (c *Controller) Done() bool { return c.done }

// Err returns the error that stopped the run, if any.
func (c *Controller) Err() error { return c.err }

// Advance runs one batch of the configured size.
func (c *Controller) Advance() (bool, error) {
	return c.AdvanceBy(c.batch)
}

// AdvanceContext runs one batch of the configured size, giving up between
// chunks of iterations once ctx is done. A cancelled batch publishes nothing
// and fails the run with ctx.Err().
func (c *Controller) AdvanceContext(ctx context.Context) (bool, error) {
	return c.advance(ctx, c.batch)
}

// AdvanceBy relaxes the simulation for batch iterations, publishes every
// node's truncated position and subtracts batch from the remaining budget.
// It reports done once the budget drops below zero, so a budget of N in
// batches of 1 runs N+1 batches. Calling it after done is a no-op.
func (c *Controller) AdvanceBy(batch int) (bool, error) {
	return c.advance(context.Background(), batch)
}

func (c *Controller) advance(ctx context.Context, batch int) (bool, error) {
	if c.done {
		return true, c.err
	}
	batch = max(batch, 1)

	for left := batch; left > 0; left -= relaxChunk {
		if err := ctx.Err(); err != nil {
			return c.fail(err)
		}
		c.sim.Relax(min(left, relaxChunk), c.params)
	}
	c.batches++

	for i := range c.sim.nodes {
		n := &c.sim.nodes[i]
		if !isFinite(n.X) || !isFinite(n.Y) {
			return c.fail(fmt.Errorf("%w: %q at (%g, %g) after %d iterations", ErrNonFinite, n.Label, n.X, n.Y, c.sim.steps))
		}
	}
	if c.display != nil {
		for i := range c.sim.nodes {
			n := &c.sim.nodes[i]
			if err := c.display.Move(n.Label, int(n.X), int(n.Y)); err != nil {
				return c.fail(fmt.Errorf("publish %q: %w", n.Label, err))
			}
		}
	}

	c.remaining -= batch
	if c.remaining < 0 {
		c.done = true
	}
	return c.done, nil
}

// Run advances the controller once per interval until it is done, fails or
// ctx is cancelled. An interval of zero runs batches back to back.
// Cancellation is noticed within a batch too and returns ctx.Err().
func (c *Controller) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			done, err := c.step(ctx)
			if err != nil || done {
				return err
			}
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			done, err := c.step(ctx)
			if err != nil || done {
				return err
			}
		}
	}
}

func (c *Controller) step(ctx context.Context) (bool, error) {
	start := time.Now()
	done, err := c.AdvanceContext(ctx)
	if err == nil && c.onBatch != nil {
		c.onBatch(c.batches, time.Since(start))
	}
	return done, err
}

func (c *Controller) fail(err error) (bool, error) {
	c.done = true
	c.err = err
	return true, err
}
