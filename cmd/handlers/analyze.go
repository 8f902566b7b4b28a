package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pheye/internal/ml"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var (
		ids   []string
		since string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run sentiment and bias analysis synchronously",
		Long: `Run sentiment and bias analysis synchronously.

Targets either explicit article IDs or everything stored since a
cutoff. With neither flag, articles from the last 24 hours are
analyzed. Re-running is safe: rows are upserted by article, model
version, and model type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), ids, since)
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "article IDs to analyze")
	cmd.Flags().StringVar(&since, "since", "", "analyze articles stored since this RFC 3339 time")
	return cmd
}

func runAnalyze(ctx context.Context, ids []string, since string) error {
	db, cfg, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	loader, err := ml.NewLoader(cfg.ML.LexiconPath)
	if err != nil {
		return fmt.Errorf("loading lexicon: %w", err)
	}
	runner := ml.NewRunner(db, loader)

	ctx, cancel := signalContext(ctx)
	defer cancel()

	var report ml.Report
	if len(ids) > 0 {
		report, err = runner.AnalyzeArticles(ctx, ids)
	} else {
		cutoff := time.Now().UTC().Add(-24 * time.Hour)
		if since != "" {
			cutoff, err = time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("--since must be RFC 3339: %w", err)
			}
		}
		report, err = runner.AnalyzeSince(ctx, cutoff)
	}
	if err != nil {
		return err
	}

	printJSON(report)
	return nil
}
