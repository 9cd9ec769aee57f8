package provider

import (
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

/*
NewEmbedder builds the embedder selected by EMBEDDING_PROVIDER, wrapped
in a cache when EMBED_CACHE_SIZE is set. Provider keys are only required
for the provider that is actually selected.
*/
func NewEmbedder(cfg *config.Config) (Embedder, error) {
	var (
		embedder Embedder
		name     = "voyage"
	)

	if cfg.Agent != nil {
		name = cfg.Agent.Embedder
	}

	switch name {
	case "voyage":
		key, err := cfg.Voyage.Key()

		if err != nil {
			return nil, err
		}

		embedder = NewVoyageEmbedder(
			WithVoyageBaseURL(cfg.Voyage.BaseURL),
			WithVoyageAPIKey(key),
			WithVoyageModel(cfg.Voyage.Model, cfg.Voyage.Dimensions),
		)
	case "openai":
		if err := config.RequireKey("OPENAI_API_KEY", cfg.OpenAI.APIKey); err != nil {
			return nil, err
		}

		embedder = NewOpenAIEmbedder(
			WithOpenAIEmbedderClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL),
			WithOpenAIEmbedderModel(cfg.OpenAI.EmbeddingModel),
		)
	case "cohere":
		if err := config.RequireKey("COHERE_API_KEY", cfg.Cohere.APIKey); err != nil {
			return nil, err
		}

		embedder = NewCohereEmbedder(
			WithCohereEmbedderClient(cfg.Cohere.APIKey, cfg.Cohere.BaseURL),
			WithCohereEmbedderModel(cfg.Cohere.EmbeddingModel),
		)
	case "ollama":
		client, err := newOllamaClient()

		if err != nil {
			return nil, err
		}

		embedder = NewOllamaEmbedder(
			WithOllamaEmbedderClient(client),
			WithOllamaEmbedderModel(cfg.Ollama.EmbeddingModel),
		)
	default:
		return nil, errors.Config("provider", "unknown embedding provider "+name)
	}

	if cfg.Agent != nil && cfg.Agent.EmbedCacheSize > 0 {
		return NewCachedEmbedder(embedder, cfg.Agent.EmbedCacheSize)
	}

	return embedder, nil
}

/*
NewReasoner builds the reasoner selected by REASONING_PROVIDER.
*/
func NewReasoner(cfg *config.Config) (Reasoner, error) {
	name := "openai"

	if cfg.Agent != nil {
		name = cfg.Agent.Reasoner
	}

	switch name {
	case "openai":
		if err := config.RequireKey("OPENAI_API_KEY", cfg.OpenAI.APIKey); err != nil {
			return nil, err
		}

		return NewOpenAIReasoner(
			WithOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL),
			WithOpenAIModel(cfg.OpenAI.Model),
		), nil
	case "anthropic":
		if err := config.RequireKey("ANTHROPIC_API_KEY", cfg.Anthropic.APIKey); err != nil {
			return nil, err
		}

		return NewAnthropicReasoner(
			WithAnthropicClient(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL),
			WithAnthropicModel(cfg.Anthropic.Model, cfg.Anthropic.MaxTokens),
		), nil
	case "cohere":
		if err := config.RequireKey("COHERE_API_KEY", cfg.Cohere.APIKey); err != nil {
			return nil, err
		}

		return NewCohereReasoner(
			WithCohereClient(cfg.Cohere.APIKey, cfg.Cohere.BaseURL),
			WithCohereModel(cfg.Cohere.Model),
		), nil
	case "deepseek":
		if err := config.RequireKey("DEEPSEEK_API_KEY", cfg.DeepSeek.APIKey); err != nil {
			return nil, err
		}

		return NewDeepseekReasoner(
			WithDeepseekClient(cfg.DeepSeek.APIKey, cfg.DeepSeek.BaseURL),
			WithDeepseekModel(cfg.DeepSeek.Model),
		), nil
	case "google":
		if err := config.RequireKey("GOOGLE_API_KEY", cfg.Google.APIKey); err != nil {
			return nil, err
		}

		client, err := newGoogleClient(cfg.Google.APIKey, cfg.Google.BaseURL)

		if err != nil {
			return nil, err
		}

		return NewGoogleReasoner(
			WithGoogleClient(client),
			WithGoogleModel(cfg.Google.Model),
		), nil
	case "ollama":
		client, err := newOllamaClient()

		if err != nil {
			return nil, err
		}

		return NewOllamaReasoner(
			WithOllamaClient(client),
			WithOllamaModel(cfg.Ollama.Model),
		), nil
	}

	return nil, errors.Config("provider", "unknown reasoning provider "+name)
}

/*
ModelName reports the model behind the selected reasoner, for banners.
*/
func ModelName(cfg *config.Config) string {
	if cfg.Agent == nil {
		return cfg.OpenAI.Model
	}

	switch cfg.Agent.Reasoner {
	case "anthropic":
		return cfg.Anthropic.Model
	case "cohere":
		return cfg.Cohere.Model
	case "deepseek":
		return cfg.DeepSeek.Model
	case "google":
		return cfg.Google.Model
	case "ollama":
		return cfg.Ollama.Model
	}

	return cfg.OpenAI.Model
}
