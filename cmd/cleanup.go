package cmd

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/indexes"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Remove the agent demo indexes, embeddings and memory database",
		Long:  longCleanup,
		RunE:  runCleanup,
	}

	cleanupPlotsCmd = &cobra.Command{
		Use:   "plots",
		Short: "Remove the plot embeddings of the search demos",
		RunE:  runCleanupPlots,
	}
)

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.AddCommand(cleanupPlotsCmd)
}

func dropIndex(ctx context.Context, collection *mongostore.Collection, name string) error {
	dropped, err := indexes.NewManager(collection).Drop(ctx, name)

	if err != nil {
		return err
	}

	if dropped {
		ok("dropped search index %s on %s", name, collection.Name())
	} else {
		warn("search index %s on %s not found, skipped", name, collection.Name())
	}

	return nil
}

func unsetField(ctx context.Context, collection *mongostore.Collection, field string) error {
	modified, err := collection.Unset(ctx, field)

	if err != nil {
		return err
	}

	ok("removed %s from %d documents in %s", field, modified, collection.Name())

	return nil
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	return withMongo(cmd, config.GroupCollections,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			collections := cfg.Collections

			comments := mongostore.NewCollection(client, collections.CommentsDB, collections.CommentsCollection)
			movies := mongostore.NewCollection(client, collections.MoviesDB, collections.MoviesCollection)
			memory := mongostore.NewCollection(client, collections.MemoryDB, collections.MemoryCollection)

			steps := []func() error{
				func() error { return dropIndex(ctx, comments, collections.CommentsIndex) },
				func() error { return dropIndex(ctx, movies, collections.MoviesIndex) },
				func() error { return dropIndex(ctx, memory, collections.MemoryIndex) },
				func() error { return unsetField(ctx, comments, collections.EmbeddingField) },
				func() error { return unsetField(ctx, movies, collections.EmbeddingField) },
				func() error {
					if err := memory.DropDatabase(ctx); err != nil {
						return err
					}

					ok("dropped database %s", collections.MemoryDB)

					return nil
				},
			}

			for _, step := range steps {
				if err := step(); err != nil {
					return err
				}
			}

			log.Info("cleanup complete")

			return nil
		})
}

func runCleanupPlots(cmd *cobra.Command, _ []string) error {
	return withMongo(cmd, config.GroupSearch,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			movies := mongostore.NewCollection(client, cfg.Search.Database, cfg.Search.Collection)
			return unsetField(ctx, movies, cfg.Search.VectorPath)
		})
}

var longCleanup = `
Undo what the agent demo set up: drop the comments, movies and memory
vector indexes, remove the embedding field from comments and movies, and
drop the memory database. Missing indexes are skipped.

Examples:
  atlas-demos cleanup
  atlas-demos cleanup plots
`
