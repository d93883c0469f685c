package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/pagecache/internal/config"
	"github.com/Sternrassler/pagecache/pkg/cache"
	"github.com/Sternrassler/pagecache/pkg/client"
	"github.com/Sternrassler/pagecache/pkg/logging"
	"github.com/Sternrassler/pagecache/pkg/prefetch"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the caching page proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Setup(cfg.LoggingConfig())
	logger := logging.NewLogger("server")

	store, err := cache.New(cfg.StoreConfig(), cache.WithLogger(logging.NewLogger("response-store")))
	if err != nil {
		return err
	}
	defer store.StopAutoPrune()

	transport, err := client.NewHTTPTransport(cfg.TransportConfig())
	if err != nil {
		return err
	}
	fetcher := client.NewFetcher(store, transport, client.WithFetcherLogger(logging.NewLogger("fetcher")))

	srv := newServer(fetcher, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Runs before the deferred StopAutoPrune.
	stopWarmUp := startWarmUp(ctx, fetcher, cfg.WarmerConfig(), cfg.Warm.Paths)
	defer stopWarmUp()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("listen", cfg.Listen).
			Str("origin", cfg.OriginURL).
			Int("max_entries", store.Config().MaxEntries).
			Dur("max_age", store.Config().MaxAge).
			Msg("Starting page cache server")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	srv.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}

	stats := store.Stats()
	logger.Info().
		Int("entries", stats.TotalEntries).
		Int("size", stats.TotalSize).
		Msg("Server stopped")
	return nil
}

// startWarmUp fetches paths in the background. The returned stop cancels the
// run and blocks until no warm-up fetch is in flight.
func startWarmUp(ctx context.Context, fetcher prefetch.PageFetcher, cfg prefetch.Config, paths []string) (stop func()) {
	if len(paths) == 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		prefetch.NewWarmer(fetcher, cfg).Warm(ctx, prefetch.Paths(paths...))
	}()

	return func() {
		cancel()
		<-done
	}
}
