package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/provider"
	"github.com/theapemachine/atlas-demos/pkg/search"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const defaultSemanticQuery = "A movie about superheroes with great powers"

var (
	limitFlag int
	askFlag   bool

	searchCmd = &cobra.Command{
		Use:   "search",
		Short: "Run the full-text, semantic and hybrid search demos",
		Long:  longSearch,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	searchFTSCmd = &cobra.Command{
		Use:   "fts <term>",
		Short: "Compare a regex title match with a fuzzy full-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchFTS,
	}

	searchTextCmd = &cobra.Command{
		Use:   "text <query>",
		Short: "Full-text search over title and plot",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchText,
	}

	searchSemanticCmd = &cobra.Command{
		Use:   "semantic [query]",
		Short: "Vector search over plot embeddings",
		RunE:  runSearchSemantic,
	}

	searchHybridCmd = &cobra.Command{
		Use:   "hybrid <query>",
		Short: "Reciprocal-rank fusion of vector and full-text search",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSearchHybrid,
	}
)

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.AddCommand(searchFTSCmd, searchTextCmd, searchSemanticCmd, searchHybridCmd)

	searchCmd.PersistentFlags().IntVarP(&limitFlag, "limit", "n", 0, "number of results (QUERY_LIMIT, default 10)")
	searchSemanticCmd.Flags().BoolVar(&askFlag, "ask", false, "answer the query with the reasoner, using the plots found as context")
}

func resultLimit(cfg *config.Config) int {
	if limitFlag > 0 {
		return limitFlag
	}

	return cfg.Search.Limit
}

/*
timed runs a pipeline and reports how long the round trip took.
*/
func timed(
	ctx context.Context, movies *mongostore.Collection, label string, pipeline mongo.Pipeline,
) ([]bson.M, error) {
	started := time.Now()
	docs, err := movies.Aggregate(ctx, pipeline)

	if err != nil {
		return nil, err
	}

	info("%s: %d results in %s", label, len(docs), time.Since(started).Round(time.Millisecond))

	return docs, nil
}

func printResults(docs []bson.M) {
	for i, doc := range docs {
		line := fmt.Sprintf("%2d. %v", i+1, doc["title"])

		if year, ok := doc["year"]; ok {
			line += fmt.Sprintf(" (%v)", year)
		}

		if score, ok := doc["score"].(float64); ok {
			line += fmt.Sprintf("  score=%.4f", score)
		}

		fmt.Fprintln(stdout, line)
	}
}

func searchMovies(cfg *config.Config, client *mongo.Client) *mongostore.Collection {
	return mongostore.NewCollection(client, cfg.Search.Database, cfg.Search.Collection)
}

func runSearchFTS(cmd *cobra.Command, args []string) error {
	term := strings.Join(args, " ")

	return withMongo(cmd, config.GroupSearch,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			movies := searchMovies(cfg, client)
			limit := resultLimit(cfg)

			regexDocs, err := timed(ctx, movies, "regex", search.RegexTitle(term, limit))

			if err != nil {
				return err
			}

			printResults(regexDocs)

			fuzzyDocs, err := timed(ctx, movies, "full-text", search.FuzzyTitle(cfg.Search.FTSIndex, term, 2, limit))

			if err != nil {
				return err
			}

			printResults(fuzzyDocs)

			return nil
		})
}

func runSearchText(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	return withMongo(cmd, config.GroupSearch,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			docs, err := timed(ctx, searchMovies(cfg, client), "text",
				search.Text(cfg.Search.TextIndex, query, []string{"title", "plot"}, resultLimit(cfg)))

			if err != nil {
				return err
			}

			printResults(docs)

			return nil
		})
}

func runSearchSemantic(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if query == "" {
		query = defaultSemanticQuery
	}

	groups := config.GroupProviders | config.GroupAgent | config.GroupSearch

	return withMongo(cmd, groups,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			embedder, err := provider.NewEmbedder(cfg)

			if err != nil {
				return err
			}

			vector, err := embedder.Embed(ctx, query)

			if err != nil {
				return err
			}

			docs, err := timed(ctx, searchMovies(cfg, client), "semantic",
				search.Semantic(cfg.Search.VectorIndex, cfg.Search.VectorPath, vector, resultLimit(cfg)))

			if err != nil {
				return err
			}

			printResults(docs)

			if !askFlag {
				return nil
			}

			reasoner, err := provider.NewReasoner(cfg)

			if err != nil {
				return err
			}

			passages := make([]string, 0, len(docs))

			for _, doc := range docs {
				if plot, ok := doc["plot"].(string); ok && plot != "" {
					passages = append(passages, fmt.Sprintf("%v: %s", doc["title"], plot))
				}
			}

			answer, err := reasoner.Complete(ctx, query, passages...)

			if err != nil {
				return err
			}

			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, strings.TrimSpace(answer))

			return nil
		})
}

func runSearchHybrid(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	groups := config.GroupProviders | config.GroupAgent | config.GroupSearch

	return withMongo(cmd, groups,
		func(ctx context.Context, cfg *config.Config, client *mongo.Client) error {
			embedder, err := provider.NewEmbedder(cfg)

			if err != nil {
				return err
			}

			vector, err := embedder.Embed(ctx, query)

			if err != nil {
				return err
			}

			hybrid := search.Hybrid{
				Collection:     cfg.Search.Collection,
				VectorIndex:    cfg.Search.VectorIndex,
				VectorPath:     cfg.Search.VectorPath,
				TextIndex:      cfg.Search.TextIndex,
				TextPath:       "plot",
				Query:          query,
				Vector:         vector,
				VectorPriority: cfg.Search.VectorPriority,
				TextPriority:   cfg.Search.TextPriority,
				Limit:          resultLimit(cfg),
			}

			docs, err := timed(ctx, searchMovies(cfg, client), "hybrid", hybrid.Pipeline())

			if err != nil {
				return err
			}

			printResults(docs)

			return nil
		})
}

var longSearch = `
Query sample_mflix.movies the ways Atlas supports: a regex baseline against
fuzzy full-text search, full-text search over title and plot, vector search
over plot embeddings, and a hybrid of the last two.

The text and vector indexes come from "atlas-demos index plots" and
"atlas-demos index fts"; plot embeddings from "atlas-demos backfill plots".

Examples:
  atlas-demos search fts "star wars"
  atlas-demos search text "time travel" --limit 5
  atlas-demos search semantic --ask "a heist that goes wrong"
  atlas-demos search hybrid "space exploration"
`
