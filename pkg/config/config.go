/*
Package config loads the flat key-value environment every command runs from.
Values come from the process environment, optionally seeded from a .env file,
and end up in a single Config that is passed by reference to each component.
*/
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

type Mongo struct {
	URI string `envconfig:"MONGODB_URI" required:"true"`
}

type Voyage struct {
	APIKey     string `envconfig:"VOYAGE_API_KEY"`
	MCPAPIKey  string `envconfig:"MDB_MCP_VOYAGE_API_KEY"`
	Model      string `envconfig:"VOYAGE_MODEL" default:"voyage-4"`
	Dimensions int    `envconfig:"VOYAGE_OUTPUT_DIM" default:"1024"`
	BaseURL    string `envconfig:"VOYAGE_BASE_URL" default:"https://api.voyageai.com/v1"`
}

/*
Key resolves the VoyageAI key, preferring VOYAGE_API_KEY and falling
back to the key the MCP server is configured with.
*/
func (voyage Voyage) Key() (string, error) {
	if voyage.APIKey != "" {
		return voyage.APIKey, nil
	}

	if voyage.MCPAPIKey != "" {
		return voyage.MCPAPIKey, nil
	}

	return "", errors.Config("config", "required key VOYAGE_API_KEY (or MDB_MCP_VOYAGE_API_KEY) missing value")
}

type OpenAI struct {
	APIKey         string `envconfig:"OPENAI_API_KEY"`
	Model          string `envconfig:"OPENAI_MODEL" default:"gpt-5"`
	EmbeddingModel string `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`
	BaseURL        string `envconfig:"OPENAI_BASE_URL"`
}

type Anthropic struct {
	APIKey    string `envconfig:"ANTHROPIC_API_KEY"`
	Model     string `envconfig:"ANTHROPIC_MODEL" default:"claude-sonnet-4-20250514"`
	MaxTokens int64  `envconfig:"ANTHROPIC_MAX_TOKENS" default:"1024"`
	BaseURL   string `envconfig:"ANTHROPIC_BASE_URL"`
}

type Cohere struct {
	APIKey         string `envconfig:"COHERE_API_KEY"`
	Model          string `envconfig:"COHERE_MODEL" default:"command-r-plus"`
	EmbeddingModel string `envconfig:"COHERE_EMBEDDING_MODEL" default:"embed-english-v3.0"`
	BaseURL        string `envconfig:"COHERE_BASE_URL"`
}

type DeepSeek struct {
	APIKey  string `envconfig:"DEEPSEEK_API_KEY"`
	Model   string `envconfig:"DEEPSEEK_MODEL" default:"deepseek-chat"`
	BaseURL string `envconfig:"DEEPSEEK_BASE_URL"`
}

type Google struct {
	APIKey  string `envconfig:"GOOGLE_API_KEY"`
	Model   string `envconfig:"GOOGLE_MODEL" default:"gemini-2.5-flash"`
	BaseURL string `envconfig:"GOOGLE_BASE_URL"`
}

type Ollama struct {
	Model          string `envconfig:"OLLAMA_MODEL" default:"llama3.1"`
	EmbeddingModel string `envconfig:"OLLAMA_EMBEDDING_MODEL" default:"nomic-embed-text"`
}

/*
Collections names the databases, collections, vector indexes and embedding
fields of the three searchable datasets.
*/
type Collections struct {
	MoviesDB             string `envconfig:"MOVIES_DB" default:"sample_mflix"`
	MoviesCollection     string `envconfig:"MOVIES_COLLECTION" default:"movies"`
	MoviesIndex          string `envconfig:"MOVIES_VECTOR_INDEX" default:"movies_voyage_v4"`
	CommentsDB           string `envconfig:"COMMENTS_DB" default:"sample_mflix"`
	CommentsCollection   string `envconfig:"COMMENTS_COLLECTION" default:"comments"`
	CommentsIndex        string `envconfig:"COMMENTS_VECTOR_INDEX" default:"comments_voyage_v4"`
	MemoryDB             string `envconfig:"MEMORY_DB" default:"mcp_config"`
	MemoryCollection     string `envconfig:"MEMORY_COLLECTION" default:"agent_memory"`
	MemoryIndex          string `envconfig:"MEMORY_VECTOR_INDEX" default:"memory_voyage_v4"`
	EmbeddingField       string `envconfig:"EMBEDDING_FIELD" default:"embedding_voyage_v4"`
	MemoryEmbeddingField string `envconfig:"MEMORY_EMBED_FIELD" default:"embedding_voyage_v4"`
}

/*
Agent configures the interactive dispatcher.
*/
type Agent struct {
	MCPURL         string `envconfig:"MDB_MCP_SERVER_URL" default:"http://127.0.0.1:3000/mcp"`
	Backend        string `envconfig:"AGENT_BACKEND" default:"mcp"`
	Reasoner       string `envconfig:"REASONING_PROVIDER" default:"openai"`
	Embedder       string `envconfig:"EMBEDDING_PROVIDER" default:"voyage"`
	MemoryTopK     int    `envconfig:"MEMORY_TOP_K" default:"3"`
	ContentTopK    int    `envconfig:"CONTENT_TOP_K" default:"5"`
	ContentSearch  string `envconfig:"CONTENT_SEARCH" default:"always"`
	EmbedCacheSize int64  `envconfig:"EMBED_CACHE_SIZE" default:"0"`
	ShowTools      bool   `envconfig:"SHOW_TOOLS"`
	ShowMemory     bool   `envconfig:"SHOW_MEMORY"`
	DumpToolResult bool   `envconfig:"DUMP_TOOL_RESULT"`
	DebugMCP       bool   `envconfig:"DEBUG_MCP"`
}

type Backfill struct {
	BatchSize        int    `envconfig:"BATCH_SIZE" default:"32"`
	MaxDocs          int    `envconfig:"MAX_DOCS" default:"0"`
	Force            bool   `envconfig:"FORCE"`
	StoreDerivedText bool   `envconfig:"STORE_DERIVED_TEXT"`
	DerivedTextField string `envconfig:"DERIVED_TEXT_FIELD" default:"embedding_text_voyage_v4"`
	DryRun           bool   `envconfig:"DRY_RUN"`
}

/*
Search configures the full-text, semantic and hybrid search demos.
*/
type Search struct {
	Database       string `envconfig:"DB_NAME" default:"sample_mflix"`
	Collection     string `envconfig:"COLLECTION_NAME" default:"movies"`
	FTSIndex       string `envconfig:"FTS_INDEX_NAME" default:"title_fts"`
	TextIndex      string `envconfig:"SEARCH_INDEX" default:"plot_text_index"`
	VectorIndex    string `envconfig:"PLOT_VECTOR_INDEX" default:"plot_embedding_index"`
	VectorPath     string `envconfig:"PLOT_EMBEDDING_FIELD" default:"plot_embedding"`
	VectorPriority int    `envconfig:"VECTOR_PRIORITY" default:"1"`
	TextPriority   int    `envconfig:"TEXT_PRIORITY" default:"1"`
	Limit          int    `envconfig:"QUERY_LIMIT" default:"10"`
}

type Atlas struct {
	PublicKey     string `envconfig:"ATLAS_PUBLIC_KEY" required:"true"`
	PrivateKey    string `envconfig:"ATLAS_PRIVATE_KEY" required:"true"`
	ProjectID     string `envconfig:"ATLAS_PROJECT_ID" required:"true"`
	ClusterName   string `envconfig:"ATLAS_CLUSTER_NAME" required:"true"`
	BaseURL       string `envconfig:"ATLAS_BASE_URL" default:"https://cloud.mongodb.com/api/atlas/v2"`
	ScaleUpTier   string `envconfig:"SCALE_UP_TIER"`
	ScaleDownTier string `envconfig:"SCALE_DOWN_TIER"`
}

type Server struct {
	Addr string `envconfig:"MCP_SERVER_ADDR" default:":3000"`
}

/*
Config is the populated-once configuration structure. Groups a command
does not need stay nil, so a missing MONGODB_URI does not break the
in-memory agent backend, and missing Atlas keys do not break anything
but the scale command.
*/
type Config struct {
	Mongo       *Mongo
	Voyage      *Voyage
	OpenAI      *OpenAI
	Anthropic   *Anthropic
	Cohere      *Cohere
	DeepSeek    *DeepSeek
	Google      *Google
	Ollama      *Ollama
	Collections *Collections
	Agent       *Agent
	Backfill    *Backfill
	Search      *Search
	Atlas       *Atlas
	Server      *Server
}

/*
Group selects which parts of the configuration a command loads.
*/
type Group int

const (
	GroupMongo Group = 1 << iota
	GroupProviders
	GroupCollections
	GroupAgent
	GroupBackfill
	GroupSearch
	GroupAtlas
	GroupServer
)

/*
LoadEnvFile seeds the process environment from a .env file. Variables
that are already set win over the file, and a missing file is not an error.
*/
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Config("env file", fmt.Sprintf("failed to load %s", path), err)
	}

	return nil
}

/*
Load reads the requested groups from the environment. Any missing
required key fails with a configuration error naming the key.
*/
func Load(groups Group) (*Config, error) {
	cfg := &Config{}

	steps := []struct {
		group  Group
		target func() any
	}{
		{GroupMongo, func() any { cfg.Mongo = &Mongo{}; return cfg.Mongo }},
		{GroupProviders, func() any { cfg.Voyage = &Voyage{}; return cfg.Voyage }},
		{GroupProviders, func() any { cfg.OpenAI = &OpenAI{}; return cfg.OpenAI }},
		{GroupProviders, func() any { cfg.Anthropic = &Anthropic{}; return cfg.Anthropic }},
		{GroupProviders, func() any { cfg.Cohere = &Cohere{}; return cfg.Cohere }},
		{GroupProviders, func() any { cfg.DeepSeek = &DeepSeek{}; return cfg.DeepSeek }},
		{GroupProviders, func() any { cfg.Google = &Google{}; return cfg.Google }},
		{GroupProviders, func() any { cfg.Ollama = &Ollama{}; return cfg.Ollama }},
		{GroupCollections, func() any { cfg.Collections = &Collections{}; return cfg.Collections }},
		{GroupAgent, func() any { cfg.Agent = &Agent{}; return cfg.Agent }},
		{GroupBackfill, func() any { cfg.Backfill = &Backfill{}; return cfg.Backfill }},
		{GroupSearch, func() any { cfg.Search = &Search{}; return cfg.Search }},
		{GroupAtlas, func() any { cfg.Atlas = &Atlas{}; return cfg.Atlas }},
		{GroupServer, func() any { cfg.Server = &Server{}; return cfg.Server }},
	}

	for _, step := range steps {
		if groups&step.group == 0 {
			continue
		}

		if err := envconfig.Process("", step.target()); err != nil {
			return nil, errors.Config("config", cleanEnvconfigError(err))
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

/*
cleanEnvconfigError turns envconfig's messages into "required key X
missing value" or "invalid value for X" without its Go field path.
*/
func cleanEnvconfigError(err error) string {
	var parseErr *envconfig.ParseError

	if errors.As(err, &parseErr) {
		return fmt.Sprintf("invalid value %q for key %s", parseErr.Value, parseErr.KeyName)
	}

	return strings.TrimPrefix(err.Error(), "envconfig.Process: ")
}
