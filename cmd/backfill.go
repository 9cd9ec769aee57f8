package cmd

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/backfill"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"github.com/theapemachine/atlas-demos/pkg/provider"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
)

var backfillCmd = &cobra.Command{
	Use:       "backfill <movies|comments|memory|plots>",
	Short:     "Embed the records of a dataset that have no embedding yet",
	Long:      longBackfill,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"movies", "comments", "memory", "plots"},
	RunE:      runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

/*
backfillTarget resolves where a dataset lives and which field receives
its embedding.
*/
func backfillTarget(cfg *config.Config, dataset string) (database, collection, field string) {
	collections := cfg.Collections

	switch dataset {
	case "comments":
		return collections.CommentsDB, collections.CommentsCollection, collections.EmbeddingField
	case "memory":
		return collections.MemoryDB, collections.MemoryCollection, collections.MemoryEmbeddingField
	case "plots":
		return cfg.Search.Database, cfg.Search.Collection, cfg.Search.VectorPath
	}

	return collections.MoviesDB, collections.MoviesCollection, collections.EmbeddingField
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dataset, known := backfill.Datasets[args[0]]

	if !known {
		names := slices.Sorted(maps.Keys(backfill.Datasets))

		return errors.Config("backfill", fmt.Sprintf("unknown dataset %q (want one of %s)", args[0], strings.Join(names, ", ")))
	}

	cfg, err := config.Load(
		config.GroupMongo | config.GroupProviders | config.GroupCollections |
			config.GroupAgent | config.GroupBackfill | config.GroupSearch,
	)

	if err != nil {
		return err
	}

	embedder, err := provider.NewEmbedder(cfg)

	if err != nil {
		return err
	}

	client, disconnect, err := connectMongo(ctx, cfg)

	if err != nil {
		return err
	}

	defer disconnect()

	database, collection, field := backfillTarget(cfg, dataset.Name)
	target := mongostore.NewCollection(client, database, collection)

	info("backfilling %s into %s.%s (field=%s, batch=%d, dryRun=%t)",
		dataset.Name, database, collection, field, cfg.Backfill.BatchSize, cfg.Backfill.DryRun)

	job := &backfill.Job{
		Collection:   target,
		Embedder:     embedder,
		Dataset:      dataset,
		Field:        field,
		BatchSize:    cfg.Backfill.BatchSize,
		MaxDocs:      cfg.Backfill.MaxDocs,
		Force:        cfg.Backfill.Force,
		StoreText:    cfg.Backfill.StoreDerivedText,
		DerivedField: cfg.Backfill.DerivedTextField,
		DryRun:       cfg.Backfill.DryRun,
		Retry:        errors.DefaultRetryConfig(),
	}

	result, err := job.Run(ctx)

	if err != nil {
		return fmt.Errorf("backfill %s stopped (%s): %w", dataset.Name, result, err)
	}

	if cfg.Backfill.DryRun {
		warn("dry run, nothing written: %s", result)
		return nil
	}

	ok("backfill %s done: %s", dataset.Name, result)

	return nil
}

var longBackfill = `
Compute embeddings for the records of a dataset that do not carry one yet,
and store them in place. Running it twice is safe: the second run finds
nothing to do unless FORCE=true.

Datasets:
  movies    sample_mflix.movies, title + genres + plot
  comments  sample_mflix.comments, comment text
  memory    the agent memory collection
  plots     the plot_embedding field used by the search demos

Examples:
  # Embed the first 100 movies and keep the embedded text
  MAX_DOCS=100 STORE_DERIVED_TEXT=true atlas-demos backfill movies
`
