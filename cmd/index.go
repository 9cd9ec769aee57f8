package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/indexes"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	noWaitFlag       bool
	indexTimeoutFlag time.Duration

	indexCmd = &cobra.Command{
		Use:   "index",
		Short: "Create the vector and full-text search indexes",
		Long:  longIndex,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	indexCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "Create the comments, movies and memory vector indexes",
		RunE:  runIndexCreate,
	}

	indexPlotsCmd = &cobra.Command{
		Use:   "plots",
		Short: "Create the plot text index and the plot vector index",
		RunE:  runIndexPlots,
	}

	indexFTSCmd = &cobra.Command{
		Use:   "fts",
		Short: "Create the title full-text index",
		RunE:  runIndexFTS,
	}
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexCreateCmd, indexPlotsCmd, indexFTSCmd)

	indexCmd.PersistentFlags().BoolVar(&noWaitFlag, "no-wait", false, "do not wait for new indexes to become queryable")
	indexCmd.PersistentFlags().DurationVar(&indexTimeoutFlag, "timeout", 60*time.Second, "how long to wait for an index to become queryable")
}

type indexPlan struct {
	database   string
	collection string
	descriptor indexes.Descriptor
}

func applyIndexes(ctx context.Context, client *mongo.Client, plans ...indexPlan) error {
	for _, plan := range plans {
		manager := indexes.NewManager(mongostore.NewCollection(client, plan.database, plan.collection))
		manager.Timeout = indexTimeoutFlag

		outcome, err := manager.Ensure(ctx, plan.descriptor, !noWaitFlag)

		if err != nil {
			return err
		}

		namespace := plan.database + "." + plan.collection

		switch outcome {
		case indexes.TimedOut:
			warn("%s on %s is still building after %s", plan.descriptor.Name, namespace, indexTimeoutFlag)
		default:
			ok("%s on %s: %s", plan.descriptor.Name, namespace, outcome)
		}
	}

	return nil
}

func withMongo(
	cmd *cobra.Command, groups config.Group, fn func(context.Context, *config.Config, *mongo.Client) error,
) error {
	ctx := cmd.Context()

	cfg, err := config.Load(config.GroupMongo | groups)

	if err != nil {
		return err
	}

	client, disconnect, err := connectMongo(ctx, cfg)

	if err != nil {
		return err
	}

	defer disconnect()

	return fn(ctx, cfg, client)
}

func runIndexCreate(cmd *cobra.Command, _ []string) error {
	return withMongo(cmd, config.GroupProviders|config.GroupCollections,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			collections := cfg.Collections
			dims := cfg.Voyage.Dimensions

			return applyIndexes(ctx, client,
				indexPlan{collections.CommentsDB, collections.CommentsCollection,
					indexes.Vector(collections.CommentsIndex, collections.EmbeddingField, dims)},
				indexPlan{collections.MoviesDB, collections.MoviesCollection,
					indexes.Vector(collections.MoviesIndex, collections.EmbeddingField, dims)},
				indexPlan{collections.MemoryDB, collections.MemoryCollection,
					indexes.Vector(collections.MemoryIndex, collections.MemoryEmbeddingField, dims)},
			)
		})
}

func runIndexPlots(cmd *cobra.Command, _ []string) error {
	return withMongo(cmd, config.GroupProviders|config.GroupSearch,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			search := cfg.Search

			return applyIndexes(ctx, client,
				indexPlan{search.Database, search.Collection,
					indexes.Text(search.TextIndex, true, map[string]string{"fullplot": ""})},
				indexPlan{search.Database, search.Collection,
					indexes.Vector(search.VectorIndex, search.VectorPath, cfg.Voyage.Dimensions, "year")},
			)
		})
}

func runIndexFTS(cmd *cobra.Command, _ []string) error {
	return withMongo(cmd, config.GroupSearch,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			search := cfg.Search

			return applyIndexes(ctx, client,
				indexPlan{search.Database, search.Collection,
					indexes.Text(search.FTSIndex, false, map[string]string{"title": "lucene.standard"})},
			)
		})
}

var longIndex = `
Create the Atlas Search and Vector Search indexes the demos query. Indexes
that already exist are left alone; new ones are polled until queryable.

Examples:
  # Vector indexes for the agent (comments, movies, memory)
  atlas-demos index create

  # Plot indexes for the semantic and hybrid search demos
  atlas-demos index plots

  # Title index for the regex vs full-text comparison
  atlas-demos index fts --timeout 3m
`
