package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/star/isstrack/internal/api"
	"github.com/star/isstrack/internal/chart"
	"github.com/star/isstrack/internal/display"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/poller"
	"github.com/star/isstrack/internal/series"
	"github.com/star/isstrack/internal/stream"
	"github.com/star/isstrack/internal/tle"
	"github.com/star/isstrack/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tracker and serve the live page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	logger.Info("starting isstrack", cfg.LogAttrs()...)

	source, store := newSource(cfg, logger)
	board := display.NewBoard()
	record := series.NewRecord(series.Config{Capacity: cfg.Series.Capacity})
	charts := chart.NewSVGRenderer(cfg.Charts)

	overlap, _ := poller.ParseOverlap(cfg.Poll.Overlap)
	p := poller.New(source, board, record, charts, poller.Config{
		Interval: cfg.Poll.Interval,
		Timeout:  cfg.Poll.Timeout,
		Overlap:  overlap,
	}, logger)

	clock := display.NewClock()
	streamHandler := stream.NewHandler(p, source.Name(), record.Capacity(), stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		KeepaliveInterval:  cfg.Stream.KeepaliveInterval,
		TrustProxy:         cfg.Stream.TrustProxy,
	}, logger)
	p.Subscribe(streamHandler.OnUpdate)
	clock.OnTick(streamHandler.OnClock)

	srv := api.NewServer(cfg.HTTP.Addr, logger, api.Deps{
		Board:  board,
		Record: record,
		Clock:  clock,
		Charts: charts,
		Poller: p,
		Stream: streamHandler,
		Static: web.Content,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Request contexts end with ctx so open event streams close on shutdown.
	srv.HTTPServer().BaseContext = func(net.Listener) context.Context { return ctx }

	go p.Run(ctx)
	go clock.Run(ctx)
	if store != nil {
		go reportTLEAge(ctx, store)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Error("server listen error", "error", err)
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}

// reportTLEAge publishes the element set age every 10 seconds.
func reportTLEAge(ctx context.Context, store *tle.Store) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if age := store.Age(time.Now()); age >= 0 {
				metrics.SetTLEDatasetAge(age.Seconds())
			}
		case <-ctx.Done():
			return
		}
	}
}
