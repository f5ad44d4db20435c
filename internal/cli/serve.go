package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipeview/pkg/api"
	"github.com/matzehuels/pipeview/pkg/cache"
	"github.com/matzehuels/pipeview/pkg/observability"
	"github.com/matzehuels/pipeview/pkg/pipeline"
)

const (
	defaultAddr      = ":8080"
	shutdownTimeout  = 30 * time.Second
	redisCachePrefix = "pipeview:layout:"
)

type serveFlags struct {
	addr       string
	store      string
	config     string
	redisCache string
	noCache    bool
	runTimeout time.Duration
}

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API over HTTP",
		Long: `Serve the layout API over HTTP.

Routes:
  POST   /v1/layouts                   compute a layout
  GET    /v1/layouts/{name}/positions  read a stored position map
  PUT    /v1/layouts/{name}/positions  replace a stored position map
  DELETE /v1/layouts/{name}/positions  delete a stored position map
  GET    /healthz                      liveness
  GET    /metrics                      Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVar(&f.store, "store", "", "position store: directory, redis:// or mongodb:// URL (default: $"+envStore+" or the data dir)")
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "default layout config for requests")
	cmd.Flags().StringVar(&f.redisCache, "redis-cache", "", "redis:// URL for a shared layout cache")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the layout cache")
	cmd.Flags().DurationVar(&f.runTimeout, "run-timeout", api.DefaultRunTimeout, "maximum duration of one layout run")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, f serveFlags) error {
	cf := configFlags{path: f.config}
	defaults, err := cf.loadFile()
	if err != nil {
		return err
	}

	runner, err := c.newServeRunner(ctx, f)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	hooks := observability.NewPrometheusHooks(nil)
	hooks.Register()
	defer observability.Reset()

	srv := api.NewServer(runner,
		api.WithLogger(c.Logger),
		api.WithDefaults(defaults),
		api.WithMetrics(hooks.Registry()),
		api.WithRunTimeout(f.runTimeout),
	)

	httpServer := &http.Server{
		Addr:              f.addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("api server starting", "addr", f.addr, "store", storeLabel(runner))
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	c.Logger.Info("api server exited")
	return nil
}

// newServeRunner builds the API runner. With --redis-cache the layout cache
// is shared through Redis instead of the local cache directory.
func (c *CLI) newServeRunner(ctx context.Context, f serveFlags) (*pipeline.Runner, error) {
	if f.redisCache == "" || f.noCache {
		return c.newRunner(ctx, f.noCache, f.store)
	}
	rc, err := cache.NewRedisCacheFromURL(ctx, f.redisCache, redisCachePrefix)
	if err != nil {
		return nil, fmt.Errorf("connect layout cache: %w", err)
	}
	store, err := openStore(ctx, f.store)
	if err != nil {
		rc.Close()
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "api:")
	return pipeline.NewRunner(rc, keyer, store, c.Logger), nil
}

// storeLabel describes the runner's position store for logs.
func storeLabel(r *pipeline.Runner) string {
	if s, ok := r.Store.(fmt.Stringer); ok {
		return s.String()
	}
	return "none"
}
