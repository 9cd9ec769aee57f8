package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/philippgille/chromem-go"
	"github.com/spf13/cobra"
	"github.com/theapemachine/atlas-demos/pkg/agent"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/provider"
	"github.com/theapemachine/atlas-demos/pkg/stores"
	"github.com/theapemachine/atlas-demos/pkg/stores/local"
	"github.com/theapemachine/atlas-demos/pkg/stores/mcpstore"
	mongostore "github.com/theapemachine/atlas-demos/pkg/stores/mongo"
	"github.com/theapemachine/atlas-demos/pkg/tools"
)

var (
	backendFlag   string
	localPathFlag string

	agentCmd = &cobra.Command{
		Use:   "agent",
		Short: "Run the interactive memory agent",
		Long:  longAgent,
		RunE:  runAgent,
	}
)

func init() {
	rootCmd.AddCommand(agentCmd)

	agentCmd.Flags().StringVarP(&backendFlag, "backend", "b", "mcp", "database backend: mcp, mongo or local (AGENT_BACKEND)")
	agentCmd.Flags().StringVar(&localPathFlag, "local-path", "", "persist the local backend to this directory")
}

func memoryTarget(collections *config.Collections) stores.Target {
	return stores.Target{
		Database:   collections.MemoryDB,
		Collection: collections.MemoryCollection,
		Index:      collections.MemoryIndex,
		Path:       collections.MemoryEmbeddingField,
		Project:    []string{"text"},
	}
}

func moviesTarget(collections *config.Collections) stores.Target {
	return stores.Target{
		Database:      collections.MoviesDB,
		Collection:    collections.MoviesCollection,
		Index:         collections.MoviesIndex,
		Path:          collections.EmbeddingField,
		NumCandidates: 200,
		Project:       []string{"title", "genres", "fullplot"},
	}
}

func embedderName(cfg *config.Config) string {
	switch cfg.Agent.Embedder {
	case "openai":
		return "openai/" + cfg.OpenAI.EmbeddingModel
	case "cohere":
		return "cohere/" + cfg.Cohere.EmbeddingModel
	case "ollama":
		return "ollama/" + cfg.Ollama.EmbeddingModel
	}

	return fmt.Sprintf("voyage/%s (dim=%d)", cfg.Voyage.Model, cfg.Voyage.Dimensions)
}

func describeTarget(target stores.Target) string {
	return fmt.Sprintf("%s.%s (index=%s, field=%s)", target.Database, target.Collection, target.Index, target.Path)
}

func runAgent(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if cmd.Flags().Changed("backend") {
		_ = os.Setenv("AGENT_BACKEND", backendFlag)
	}

	groups := config.GroupProviders | config.GroupCollections | config.GroupAgent

	if os.Getenv("AGENT_BACKEND") == "mongo" {
		groups |= config.GroupMongo
	}

	cfg, err := config.Load(groups)

	if err != nil {
		return err
	}

	embedder, err := provider.NewEmbedder(cfg)

	if err != nil {
		return err
	}

	if closer, ok := embedder.(interface{ Close() }); ok {
		defer closer.Close()
	}

	reasoner, err := provider.NewReasoner(cfg)

	if err != nil {
		return err
	}

	memory := memoryTarget(cfg.Collections)
	movies := moviesTarget(cfg.Collections)

	banner := agent.Banner{
		Backend:  cfg.Agent.Backend,
		Reasoner: cfg.Agent.Reasoner + "/" + provider.ModelName(cfg),
		Embedder: embedderName(cfg),
		Content:  describeTarget(movies),
		Memory:   describeTarget(memory),
	}

	dispatcher := &agent.Dispatcher{
		Embedder:    embedder,
		Reasoner:    reasoner,
		MemoryK:     cfg.Agent.MemoryTopK,
		ContentK:    cfg.Agent.ContentTopK,
		ContentMode: cfg.Agent.ContentSearch,
		ShowMemory:  cfg.Agent.ShowMemory,
		Out:         os.Stdout,
		Err:         os.Stderr,
	}

	switch cfg.Agent.Backend {
	case "mcp":
		opts := []tools.ClientOption{tools.WithDebug(cfg.Agent.DebugMCP)}

		if cfg.Agent.ShowTools {
			opts = append(opts, tools.WithTrace(os.Stderr, cfg.Agent.DumpToolResult))
		}

		client, err := tools.NewClient(cfg.Agent.MCPURL, opts...)

		if err != nil {
			return err
		}

		defer client.Close()
		defer logToolMetrics(client)

		if banner.ToolCount, err = client.Connect(ctx); err != nil {
			return err
		}

		banner.MCPURL = client.URL()
		dispatcher.Memory = mcpstore.New(client, memory)
		dispatcher.Content = mcpstore.New(client, movies)
	case "mongo":
		client, disconnect, err := connectMongo(ctx, cfg)

		if err != nil {
			return err
		}

		defer disconnect()

		dispatcher.Memory = mongostore.NewStore(client, memory)
		dispatcher.Content = mongostore.NewStore(client, movies)
	case "local":
		db, err := openLocal(localPathFlag)

		if err != nil {
			return err
		}

		if dispatcher.Memory, err = local.New(db, memory); err != nil {
			return err
		}

		if dispatcher.Content, err = local.New(db, movies); err != nil {
			return err
		}
	}

	fmt.Fprintln(os.Stdout, banner)
	log.Debug("agent ready", "backend", cfg.Agent.Backend, "contentSearch", cfg.Agent.ContentSearch)

	return dispatcher.Run(ctx, os.Stdin)
}

func logToolMetrics(client *tools.Client) {
	for _, summary := range client.Metrics() {
		log.Info(
			"tool calls",
			"tool", summary.Name,
			"calls", summary.Calls,
			"failures", summary.Failures,
			"avg", summary.Average().Round(time.Millisecond),
			"slowest", summary.Slowest.Round(time.Millisecond),
		)
	}
}

func openLocal(path string) (*chromem.DB, error) {
	if path == "" {
		return chromem.NewDB(), nil
	}

	db, err := chromem.NewPersistentDB(path, false)

	if err != nil {
		return nil, fmt.Errorf("open local store %s: %w", path, err)
	}

	return db, nil
}

var longAgent = `
Run the interactive memory agent.

Commands inside the agent:
  remember <text>   embed and store a memory record
  clear             delete every memory record
  exit              quit (also: quit, q)

Anything else is a question, answered from the retrieved memory and
the movie candidates.

Examples:
  # Talk to the database through an MCP server
  atlas-demos agent --backend mcp --show-tools

  # Talk to the database directly
  atlas-demos agent --backend mongo

  # Run without a database
  atlas-demos agent --backend local
`
