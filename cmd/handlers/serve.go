package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pheye/internal/cache"
	"pheye/internal/config"
	"pheye/internal/logger"
	"pheye/internal/ml"
	"pheye/internal/runlog"
	"pheye/internal/scrape"
	"pheye/internal/server"
	"pheye/internal/trends"
)

// NewServeCmd creates the serve command
func NewServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

The server exposes scrape and analysis triggers, run logs, stored
articles, and aggregated trend views. Scrape and analysis work is
queued to Redis; run 'pheye worker' alongside to execute it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8000)")
	return cmd
}

func runServe(ctx context.Context, addr string) error {
	log := logger.Get()

	db, cfg, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, rdb, err := openQueue(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	loader, err := ml.NewLoader(cfg.ML.LexiconPath)
	if err != nil {
		return fmt.Errorf("loading lexicon: %w", err)
	}

	if addr == "" {
		addr = cfg.API.Addr
	}

	api := server.New(db, server.Options{
		Addr:            addr,
		AdminToken:      cfg.API.AdminToken,
		EntityAnalytics: cfg.ML.UseEntityAnalytics,
		Tasks:           tasks,
		Registry:        scrape.DefaultRegistry(sourcesOptions(cfg)),
		Trends:          trends.NewService(db),
		Cache:           cache.New(rdb, config.CacheTTL(), cfg.Cache.Enabled),
		Lexicon:         loader,
		Classifier:      buildClassifier(cfg),
		Recorder:        runlog.NewRecorder(db),
	})

	ctx, cancel := signalContext(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := api.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
