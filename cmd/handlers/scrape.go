package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pheye/internal/scrape"
)

// NewScrapeCmd creates the scrape command
func NewScrapeCmd() *cobra.Command {
	var (
		source string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run a scrape synchronously for one source or all",
		Long: `Run a scrape synchronously for one source or all enabled sources.

Unlike queued scrapes this runs in the foreground and prints a summary
per source. Analysis tasks for freshly stored articles are still
enqueued to Redis for the worker pool.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if source == "" && !all {
				return fmt.Errorf("either --source or --all is required")
			}
			return runScrape(cmd.Context(), source, all)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source to scrape (e.g. rappler)")
	cmd.Flags().BoolVar(&all, "all", false, "scrape all enabled sources")
	return cmd
}

func runScrape(ctx context.Context, source string, all bool) error {
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

	registry := scrape.DefaultRegistry(sourcesOptions(cfg))
	runner := buildScrapeRunner(db, cfg, registry, tasks)

	ctx, cancel := signalContext(ctx)
	defer cancel()

	sources := []string{source}
	if all {
		sources = sources[:0]
		for _, name := range registry.Sources() {
			if adapter, ok := registry.Get(name); ok && !adapter.Disabled() {
				sources = append(sources, name)
			}
		}
	}

	var failed bool
	for _, name := range sources {
		summary, err := runner.RunSource(ctx, name)
		if err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "scrape %s failed: %v\n", name, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		printJSON(summary)
	}
	if failed {
		return fmt.Errorf("one or more scrapes failed")
	}
	return nil
}

// printJSON writes an indented JSON value to stdout.
func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encoding output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
