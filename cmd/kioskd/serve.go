package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/repairboard/kioskd/internal/api"
	"github.com/repairboard/kioskd/internal/board"
	"github.com/repairboard/kioskd/internal/config"
	"github.com/repairboard/kioskd/internal/db"
	"github.com/repairboard/kioskd/internal/display"
	"github.com/repairboard/kioskd/internal/logging"
	"github.com/repairboard/kioskd/internal/repair"
	"github.com/repairboard/kioskd/internal/seed"
	"github.com/repairboard/kioskd/internal/summary"
	"github.com/repairboard/kioskd/internal/telemetry"
	"github.com/repairboard/kioskd/internal/ws"
)

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the board, its REST API and the display hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer logger.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("KIOSKD_CONFIG"), "Path to YAML config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	logger.Infof("Starting board: %s", cfg.BoardID)
	logger.Infof("HTTP port: %d, store: %s", cfg.HTTPPort, cfg.Store.Backend)

	metrics := telemetry.New()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	metrics.WatchStoreSize(store.Len)

	displays := display.NewManager(logger.Named("display"), metrics)
	hub := ws.NewServer(displays, ws.Options{
		BoardID:      cfg.BoardID,
		MaskPlates:   cfg.Board.MaskPlates,
		SendQueue:    cfg.Display.SendQueue,
		WriteTimeout: cfg.Display.WriteTimeout,
	}, logger.Named("ws"))

	boardOpts := []board.Option{
		board.WithPageSize(cfg.Board.PageSize),
		board.WithLogger(logger.Named("board")),
		board.WithMetrics(metrics),
	}
	if cfg.Seed.Enabled {
		records := seed.Defaults()
		if cfg.Seed.File != "" {
			if records, err = seed.LoadFile(cfg.Seed.File); err != nil {
				return err
			}
		}
		seeder := seed.New(store, records, logger.Named("seed"))
		boardOpts = append(boardOpts, board.WithRotationHook(seeder.Hook()))
	}
	sched, err := board.NewScheduler(store, hub, cfg.Board.Interval, boardOpts...)
	if err != nil {
		return err
	}

	var monitor *summary.Monitor
	if cfg.Monitor.Enabled {
		sinks := summary.MultiSink{hub}
		if cfg.Monitor.Console {
			sinks = append(sinks, summary.NewConsoleSink(os.Stdout))
		}
		monitor, err = summary.NewMonitor(sched, sinks, cfg.Monitor.Interval,
			summary.WithLogger(logger.Named("monitor")),
			summary.WithMetrics(metrics),
		)
		if err != nil {
			return err
		}
	}

	router := api.NewRouter(api.Deps{
		Config:   cfg,
		Store:    store,
		Board:    sched,
		Displays: displays,
		Monitor:  monitor,
		WS:       hub,
		Metrics:  metrics,
		Logger:   logger.Named("api"),
	})

	// Websocket connections are hijacked and long-lived, so only the
	// header read is bounded.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("Server listening on %s", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sched.Run(gctx)
	})
	if monitor != nil {
		g.Go(func() error {
			return monitor.Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		sched.Stop()
		if monitor != nil {
			monitor.Stop()
		}
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("Server stopped")
		return nil
	})

	return g.Wait()
}

func openStore(cfg *config.Config, logger *zap.SugaredLogger) (repair.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendBadger:
		kv, err := db.NewStore()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open badger store: %w", err)
		}
		closeFn := func() {
			if err := kv.Close(); err != nil {
				logger.Warnf("Failed to close badger store: %v", err)
			}
		}
		return repair.NewKVStore(kv, logger.Named("store")), closeFn, nil
	default:
		return repair.NewStore(), func() {}, nil
	}
}
