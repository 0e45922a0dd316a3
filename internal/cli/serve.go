package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/crateview/pkg/api"
	"github.com/matzehuels/crateview/pkg/navigator"
	"github.com/matzehuels/crateview/pkg/observability"
	"github.com/matzehuels/crateview/pkg/session"
)

const shutdownTimeout = 10 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		ttl       time.Duration
		noMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the navigation API over HTTP",
		Long: `Start an HTTP JSON API. Each client gets its own navigation session,
identified by the X-Crate-Session header, with its own package cache,
breadcrumb trail and search index. Idle sessions expire.

Prometheus metrics are served at /metrics unless --no-metrics is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.config()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("session-ttl") {
				cfg.Server.SessionTTL.Duration = ttl
			}
			ln, err := net.Listen("tcp", cfg.Server.Addr)
			if err != nil {
				return err
			}
			return c.serve(cmd.Context(), ln, !noMetrics)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", DefaultAddr, "listen address")
	cmd.Flags().DurationVar(&ttl, "session-ttl", DefaultSessionTTL, "idle time before a session expires")
	cmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	return cmd
}

// serve runs the API on ln until ctx is cancelled.
func (c *CLI) serve(ctx context.Context, ln net.Listener, metrics bool) error {
	logger := loggerFromContext(ctx)
	cfg := c.config()

	fetcher := c.newFetcher(logger)
	expander := c.newExpander(logger)
	store := session.NewMemoryStore(cfg.Server.SessionTTL.Duration, func() *navigator.Navigator {
		return c.newNavigator(logger, fetcher, expander)
	})

	opts := api.Options{Texts: fetcher, SearchLimit: cfg.Search.Limit}
	if metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		observability.Install(observability.NewPrometheus(reg))
		defer observability.Reset()
		opts.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go store.Run(ctx, cfg.Server.SessionTTL.Duration/2)

	srv := &http.Server{
		Handler:      api.NewServer(store, logger, opts),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	printSuccess("Serving on %s", StyleLink.Render("http://"+ln.Addr().String()))
	logger.Info("server started", "addr", ln.Addr().String(), "session_ttl", cfg.Server.SessionTTL.Duration, "metrics", metrics)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
