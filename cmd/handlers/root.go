/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"pheye/internal/config"
	"pheye/internal/funds"
	"pheye/internal/persistence"
	"pheye/internal/queue"
	"pheye/internal/scrape"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pheye",
		Short: "pheye collects and analyzes Philippine news coverage.",
		Long: `pheye is the news intelligence pipeline for Philippine online media.

It scrapes the supported news sites on a schedule, stores deduplicated
articles in Postgres, runs sentiment and political-bias analysis over
them, and serves the results over an HTTP API.`,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pheye.yaml)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewWorkerCmd())
	rootCmd.AddCommand(NewSchedulerCmd())
	rootCmd.AddCommand(NewScrapeCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewMigrateCmd())
	rootCmd.AddCommand(NewMaintenanceCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openDatabase loads config and connects to Postgres.
func openDatabase(ctx context.Context) (persistence.Database, *config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := persistence.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database ping failed: %w\n\n"+
			"Make sure PostgreSQL is running and DATABASE_URL is correct.\n"+
			"Run 'pheye migrate' to initialize the schema.", err)
	}
	return db, cfg, nil
}

// openQueue connects to the Redis broker and wraps it in a task client.
func openQueue(ctx context.Context, cfg *config.Config) (*queue.Client, *redis.Client, error) {
	rdb, err := queue.Connect(ctx, cfg.Redis.BrokerURL)
	if err != nil {
		return nil, nil, err
	}
	ttl, err := time.ParseDuration(cfg.Queue.ResultTTL)
	if err != nil {
		ttl = time.Hour
	}
	return queue.NewClient(rdb, cfg.Queue.TaskList, ttl), rdb, nil
}

// sourcesOptions maps scrape config onto source discovery options.
func sourcesOptions(cfg *config.Config) scrape.SourcesOptions {
	return scrape.SourcesOptions{
		RapplerLatestMaxPages: cfg.Scrape.RapplerLatestMaxPages,
		UseURLFilter:          cfg.Scrape.UseURLFilter,
	}
}

// buildClassifier picks the rule or entity-augmented funds classifier.
func buildClassifier(cfg *config.Config) *funds.Classifier {
	if cfg.ML.UseEntityFunds {
		return funds.NewAugmentedClassifier(funds.NewRegexExtractor())
	}
	return funds.NewClassifier()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}
