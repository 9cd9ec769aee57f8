package config

import (
	"fmt"
	"slices"

	"github.com/theapemachine/atlas-demos/pkg/errors"
)

var (
	Backends       = []string{"mcp", "mongo", "local"}
	Reasoners      = []string{"openai", "anthropic", "cohere", "deepseek", "google", "ollama"}
	Embedders      = []string{"voyage", "openai", "cohere", "ollama"}
	ContentSearchs = []string{"always", "keywords"}
)

/*
Validate checks the enumerations and sizes of every loaded group.
*/
func (cfg *Config) Validate() error {
	var problems []any

	oneOf := func(key, value string, allowed []string) {
		if !slices.Contains(allowed, value) {
			problems = append(problems, fmt.Sprintf("invalid value %q for key %s (want one of %v)", value, key, allowed))
		}
	}

	positive := func(key string, value int) {
		if value <= 0 {
			problems = append(problems, fmt.Sprintf("invalid value %d for key %s (must be positive)", value, key))
		}
	}

	if cfg.Agent != nil {
		oneOf("AGENT_BACKEND", cfg.Agent.Backend, Backends)
		oneOf("REASONING_PROVIDER", cfg.Agent.Reasoner, Reasoners)
		oneOf("EMBEDDING_PROVIDER", cfg.Agent.Embedder, Embedders)
		oneOf("CONTENT_SEARCH", cfg.Agent.ContentSearch, ContentSearchs)
		positive("MEMORY_TOP_K", cfg.Agent.MemoryTopK)
		positive("CONTENT_TOP_K", cfg.Agent.ContentTopK)
	}

	if cfg.Voyage != nil {
		positive("VOYAGE_OUTPUT_DIM", cfg.Voyage.Dimensions)
	}

	if cfg.Backfill != nil {
		positive("BATCH_SIZE", cfg.Backfill.BatchSize)

		if cfg.Backfill.MaxDocs < 0 {
			problems = append(problems, "invalid value for key MAX_DOCS (must not be negative)")
		}
	}

	if cfg.Search != nil {
		positive("QUERY_LIMIT", cfg.Search.Limit)
	}

	if len(problems) > 0 {
		return errors.Config("config", problems...)
	}

	return nil
}

/*
RequireKey fails with a configuration error naming key when value is empty.
*/
func RequireKey(key, value string) error {
	if value == "" {
		return errors.Config("config", fmt.Sprintf("required key %s missing value", key))
	}

	return nil
}

/*
ScaleTier returns the tier configured for the given direction.
*/
func (atlas *Atlas) ScaleTier(direction string) (string, error) {
	switch direction {
	case "up":
		return atlas.ScaleUpTier, RequireKey("SCALE_UP_TIER", atlas.ScaleUpTier)
	case "down":
		return atlas.ScaleDownTier, RequireKey("SCALE_DOWN_TIER", atlas.ScaleDownTier)
	}

	return "", errors.Config("config", fmt.Sprintf("unknown scale direction %q", direction))
}
