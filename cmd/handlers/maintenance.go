package handlers

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pheye/internal/config"
	"pheye/internal/funds"
	"pheye/internal/logger"
	"pheye/internal/ml"
	"pheye/internal/persistence"
)

// NewMaintenanceCmd creates the maintenance command group
func NewMaintenanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "One-off maintenance passes over stored data",
	}

	cmd.AddCommand(newRecomputeFundsCmd())
	cmd.AddCommand(newBackfillFundsCmd())
	cmd.AddCommand(newApplySuggestionsCmd())
	return cmd
}

func newRecomputeFundsCmd() *cobra.Command {
	var offset, limit int

	cmd := &cobra.Command{
		Use:   "recompute-funds",
		Short: "Re-run the funds classifier over one page of articles",
		Long: `Re-run the funds classifier over one page of articles.

Rows whose stored is_funds flag disagrees with the current classifier
are updated. Use --offset to continue where a previous page ended.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := recomputePage(cmd.Context(), db, buildClassifier(cfg), offset, limit)
			if err != nil {
				return err
			}
			printJSON(stats)
			return nil
		},
	}

	cmd.Flags().IntVar(&offset, "offset", 0, "row offset to start from")
	cmd.Flags().IntVar(&limit, "limit", 200, "page size (max 1000)")
	return cmd
}

func newBackfillFundsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "backfill-funds",
		Short: "Re-run the funds classifier over the whole articles table",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, cfg, err := openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			classifier := buildClassifier(cfg)
			log := logger.Get()

			total := fundsStats{Limit: limit}
			for offset := 0; ; {
				stats, err := recomputePage(cmd.Context(), db, classifier, offset, limit)
				if err != nil {
					return err
				}
				total.Checked += stats.Checked
				total.FlippedTrue += stats.FlippedTrue
				total.FlippedFalse += stats.FlippedFalse
				log.Info("backfill page done",
					"offset", offset,
					"checked", stats.Checked,
					"flipped", stats.FlippedTrue+stats.FlippedFalse)
				if !stats.MoreAvailable {
					break
				}
				offset = stats.NextOffset
			}
			printJSON(total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 500, "page size per pass (max 1000)")
	return cmd
}

func newApplySuggestionsCmd() *cobra.Command {
	var (
		category string
		terms    []string
		apply    bool
	)

	cmd := &cobra.Command{
		Use:   "apply-suggestions",
		Short: "Merge mined term suggestions into a lexicon category",
		Long: `Merge mined term suggestions into a lexicon category.

Without --apply this is a dry run: it reports which terms are new
without touching the lexicon file. With --apply the merged lexicon is
written back with a bumped version.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.ML.LexiconPath == "" {
				return fmt.Errorf("ml.lexicon_path must be set to apply suggestions")
			}

			loader, err := ml.NewLoader(cfg.ML.LexiconPath)
			if err != nil {
				return fmt.Errorf("loading lexicon: %w", err)
			}
			report, err := loader.ApplySuggestions(category, terms, apply)
			if err != nil {
				return err
			}
			printJSON(report)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "lexicon category to extend")
	cmd.Flags().StringSliceVar(&terms, "terms", nil, "terms to suggest")
	cmd.Flags().BoolVar(&apply, "apply", false, "persist the merged lexicon")
	cmd.MarkFlagRequired("category")
	return cmd
}

// fundsStats summarizes one recompute pass.
type fundsStats struct {
	Checked       int  `json:"checked"`
	FlippedTrue   int  `json:"flipped_true"`
	FlippedFalse  int  `json:"flipped_false"`
	Offset        int  `json:"offset"`
	Limit         int  `json:"limit"`
	NextOffset    int  `json:"next_offset"`
	MoreAvailable bool `json:"more_available"`
}

// recomputePage reclassifies one page of articles and persists flips.
func recomputePage(ctx context.Context, db persistence.Database, classifier *funds.Classifier, offset, limit int) (fundsStats, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	stats := fundsStats{Offset: offset, Limit: limit}

	articles, err := db.Articles().Page(ctx, offset, limit)
	if err != nil {
		return stats, fmt.Errorf("loading articles: %w", err)
	}

	var toTrue, toFalse []string
	for _, a := range articles {
		want := classifier.Classify(a.Title, a.Content)
		if want == a.IsFunds {
			continue
		}
		if want {
			toTrue = append(toTrue, a.ID)
		} else {
			toFalse = append(toFalse, a.ID)
		}
	}
	// Both flip directions commit together; a failure mid-page must not
	// leave half the page reclassified.
	if len(toTrue) > 0 || len(toFalse) > 0 {
		tx, err := db.BeginTx(ctx)
		if err != nil {
			return stats, fmt.Errorf("starting transaction: %w", err)
		}
		if err := tx.Articles().SetIsFunds(ctx, toTrue, true); err != nil {
			tx.Rollback()
			return stats, fmt.Errorf("updating is_funds: %w", err)
		}
		if err := tx.Articles().SetIsFunds(ctx, toFalse, false); err != nil {
			tx.Rollback()
			return stats, fmt.Errorf("updating is_funds: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return stats, fmt.Errorf("committing is_funds updates: %w", err)
		}
	}

	stats.Checked = len(articles)
	stats.FlippedTrue = len(toTrue)
	stats.FlippedFalse = len(toFalse)
	stats.NextOffset = offset + len(articles)
	stats.MoreAvailable = len(articles) == limit
	return stats, nil
}
