package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

func TestLoad(t *testing.T) {
	Convey("Given an environment without MONGODB_URI", t, func() {
		t.Setenv("MONGODB_URI", "")
		os.Unsetenv("MONGODB_URI")

		cfg, err := Load(GroupMongo)

		Convey("Then loading fails with a configuration error naming the key", func() {
			So(cfg, ShouldBeNil)
			So(errors.Is(err, errors.ErrConfig), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "MONGODB_URI")
		})
	})

	Convey("Given only the required keys", t, func() {
		t.Setenv("MONGODB_URI", "mongodb://localhost:27017")

		cfg, err := Load(GroupMongo | GroupCollections | GroupAgent | GroupProviders)

		Convey("Then optional keys get their defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.Mongo.URI, ShouldEqual, "mongodb://localhost:27017")
			So(cfg.Agent.MCPURL, ShouldEqual, "http://127.0.0.1:3000/mcp")
			So(cfg.Agent.MemoryTopK, ShouldEqual, 3)
			So(cfg.Agent.ContentSearch, ShouldEqual, "always")
			So(cfg.OpenAI.Model, ShouldEqual, "gpt-5")
			So(cfg.Voyage.Model, ShouldEqual, "voyage-4")
			So(cfg.Voyage.Dimensions, ShouldEqual, 1024)
			So(cfg.Cohere.EmbeddingModel, ShouldEqual, "embed-english-v3.0")
			So(cfg.DeepSeek.Model, ShouldEqual, "deepseek-chat")
			So(cfg.Google.Model, ShouldEqual, "gemini-2.5-flash")
			So(cfg.Collections.MemoryDB, ShouldEqual, "mcp_config")
			So(cfg.Collections.MemoryCollection, ShouldEqual, "agent_memory")
			So(cfg.Collections.MoviesIndex, ShouldEqual, "movies_voyage_v4")
			So(cfg.Collections.EmbeddingField, ShouldEqual, "embedding_voyage_v4")
			So(cfg.Atlas, ShouldBeNil)
		})
	})

	Convey("Given a toggle set to 1", t, func() {
		t.Setenv("SHOW_TOOLS", "1")

		cfg, err := Load(GroupAgent)

		So(err, ShouldBeNil)
		So(cfg.Agent.ShowTools, ShouldBeTrue)
	})

	Convey("Given an unknown backend", t, func() {
		t.Setenv("AGENT_BACKEND", "redis")

		_, err := Load(GroupAgent)

		So(errors.Is(err, errors.ErrConfig), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "AGENT_BACKEND")
	})
}

func TestProviderChoices(t *testing.T) {
	Convey("Given Cohere for embeddings and Gemini for reasoning", t, func() {
		t.Setenv("EMBEDDING_PROVIDER", "cohere")
		t.Setenv("REASONING_PROVIDER", "google")

		cfg, err := Load(GroupAgent)

		So(err, ShouldBeNil)
		So(cfg.Agent.Embedder, ShouldEqual, "cohere")
		So(cfg.Agent.Reasoner, ShouldEqual, "google")
	})

	Convey("Given DeepSeek as the embedding provider", t, func() {
		t.Setenv("EMBEDDING_PROVIDER", "deepseek")

		_, err := Load(GroupAgent)

		Convey("Then it is rejected since DeepSeek only reasons", func() {
			So(errors.Is(err, errors.ErrConfig), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "EMBEDDING_PROVIDER")
		})
	})
}

func TestAtlasRequiredKeys(t *testing.T) {
	for _, key := range []string{"ATLAS_PUBLIC_KEY", "ATLAS_PRIVATE_KEY", "ATLAS_PROJECT_ID", "ATLAS_CLUSTER_NAME"} {
		t.Run(key, func(t *testing.T) {
			for _, k := range []string{"ATLAS_PUBLIC_KEY", "ATLAS_PRIVATE_KEY", "ATLAS_PROJECT_ID", "ATLAS_CLUSTER_NAME"} {
				t.Setenv(k, "x")
			}

			os.Unsetenv(key)

			_, err := Load(GroupAtlas)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestVoyageKey(t *testing.T) {
	Convey("Given the MCP server's VoyageAI key only", t, func() {
		voyage := Voyage{MCPAPIKey: "pa-mcp"}

		key, err := voyage.Key()

		So(err, ShouldBeNil)
		So(key, ShouldEqual, "pa-mcp")
	})

	Convey("Given both keys", t, func() {
		key, err := Voyage{APIKey: "pa-direct", MCPAPIKey: "pa-mcp"}.Key()

		So(err, ShouldBeNil)
		So(key, ShouldEqual, "pa-direct")
	})

	Convey("Given neither key", t, func() {
		_, err := Voyage{}.Key()

		So(errors.Is(err, errors.ErrConfig), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "VOYAGE_API_KEY")
	})
}

func TestScaleTier(t *testing.T) {
	atlas := &Atlas{ScaleUpTier: "M30"}

	tier, err := atlas.ScaleTier("up")
	assert.NoError(t, err)
	assert.Equal(t, "M30", tier)

	_, err = atlas.ScaleTier("down")
	assert.ErrorContains(t, err, "SCALE_DOWN_TIER")

	_, err = atlas.ScaleTier("sideways")
	assert.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	Convey("Given a .env file and a variable already set in the process", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, ".env")

		So(os.WriteFile(path, []byte("OPENAI_MODEL=gpt-4o\nMEMORY_DB=from_file\n"), 0o600), ShouldBeNil)

		t.Setenv("MEMORY_DB", "from_process")
		t.Setenv("OPENAI_MODEL", "")
		os.Unsetenv("OPENAI_MODEL")

		So(LoadEnvFile(path), ShouldBeNil)

		Convey("Then file values fill the gaps but never override", func() {
			So(os.Getenv("OPENAI_MODEL"), ShouldEqual, "gpt-4o")
			So(os.Getenv("MEMORY_DB"), ShouldEqual, "from_process")
		})
	})

	Convey("Given a missing file", t, func() {
		So(LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")), ShouldBeNil)
	})
}
