package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ollama/ollama/api"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/theapemachine/atlas-demos/pkg/config"
	"github.com/theapemachine/atlas-demos/pkg/errors"
)

func TestVoyageEmbedder(t *testing.T) {
	Convey("Given a VoyageAI endpoint", t, func() {
		var (
			received voyageRequest
			path     string
			auth     string
		)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			auth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&received)

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"data":[{"embedding":[0,1],"index":1},{"embedding":[1,0],"index":0}],"usage":{"total_tokens":4}}`)
		}))
		defer ts.Close()

		embedder := NewVoyageEmbedder(
			WithVoyageBaseURL(ts.URL),
			WithVoyageAPIKey("pa-test"),
			WithVoyageModel("voyage-4", 2),
		)

		Convey("When embedding a batch of documents", func() {
			vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})

			Convey("Then vectors come back in input order", func() {
				So(err, ShouldBeNil)
				So(path, ShouldEqual, "/embeddings")
				So(auth, ShouldEqual, "Bearer pa-test")
				So(vectors, ShouldResemble, [][]float32{{1, 0}, {0, 1}})
				So(received.InputType, ShouldEqual, InputDocument)
				So(received.OutputDimension, ShouldEqual, 2)
				So(received.Truncation, ShouldBeTrue)
			})
		})
	})

	Convey("Given a VoyageAI endpoint rejecting the key", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"detail":"Provided API key is invalid."}`)
		}))
		defer ts.Close()

		embedder := NewVoyageEmbedder(WithVoyageBaseURL(ts.URL), WithVoyageAPIKey("bad"))
		_, err := embedder.Embed(context.Background(), "hello")

		Convey("Then the failure is an auth error carrying the message verbatim", func() {
			So(errors.Is(err, errors.ErrAuth), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Provided API key is invalid.")
		})
	})

	Convey("Given a VoyageAI endpoint that is rate limiting", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer ts.Close()

		_, err := NewVoyageEmbedder(WithVoyageBaseURL(ts.URL)).Embed(context.Background(), "hello")

		So(errors.Is(err, errors.ErrRateLimit), ShouldBeTrue)
	})
}

func TestOpenAIReasoner(t *testing.T) {
	Convey("Given an OpenAI-compatible chat endpoint", t, func() {
		var prompt, path string

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path

			var body struct {
				Model    string `json:"model"`
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}

			json.NewDecoder(r.Body).Decode(&body)
			prompt = body.Messages[0].Content

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"c1","object":"chat.completion","created":1,"model":"gpt-5","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":" You like sci-fi. "}}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
		}))
		defer ts.Close()

		reasoner := NewOpenAIReasoner(WithOpenAIClient("sk-test", ts.URL+"/"), WithOpenAIModel("gpt-5"))
		answer, err := reasoner.Complete(context.Background(), "What do I like?", "I like sci-fi")

		Convey("Then the answer is trimmed and the passages were sent", func() {
			So(err, ShouldBeNil)
			So(answer, ShouldEqual, "You like sci-fi.")
			So(path, ShouldEndWith, "/chat/completions")
			So(prompt, ShouldContainSubstring, "What do I like?")
			So(prompt, ShouldContainSubstring, "- I like sci-fi")
		})
	})

	Convey("Given an endpoint rejecting the key", t, func() {
		calls := 0

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
		}))
		defer ts.Close()

		_, err := NewOpenAIReasoner(WithOpenAIClient("bad", ts.URL+"/")).Complete(context.Background(), "hi")

		Convey("Then it fails once with an auth error", func() {
			So(errors.Is(err, errors.ErrAuth), ShouldBeTrue)
			So(calls, ShouldEqual, 1)
		})
	})
}

func TestOpenAIEmbedder(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"object":"list","model":"text-embedding-3-small","data":[{"object":"embedding","index":0,"embedding":[0.5,0.25]}],"usage":{"prompt_tokens":1,"total_tokens":1}}`)
	}))
	defer ts.Close()

	embedder := NewOpenAIEmbedder(WithOpenAIEmbedderClient("sk-test", ts.URL+"/"))
	vector, err := embedder.Embed(context.Background(), "hello")

	assert.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.25}, vector)
}

func TestAnthropicReasoner(t *testing.T) {
	Convey("Given a Messages endpoint", t, func() {
		var body []byte

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ = io.ReadAll(r.Body)

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-20250514","content":[{"type":"text","text":"Sci-fi."}],"stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":2}}`)
		}))
		defer ts.Close()

		reasoner := NewAnthropicReasoner(WithAnthropicClient("sk-ant", ts.URL+"/"))
		answer, err := reasoner.Complete(context.Background(), "What do I like?")

		So(err, ShouldBeNil)
		So(answer, ShouldEqual, "Sci-fi.")
		So(string(body), ShouldContainSubstring, "What do I like?")
	})
}

func TestCohere(t *testing.T) {
	Convey("Given a Cohere endpoint", t, func() {
		var (
			path string
			auth string
			body map[string]any
		)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			auth = r.Header.Get("Authorization")
			json.NewDecoder(r.Body).Decode(&body)

			w.Header().Set("Content-Type", "application/json")

			switch {
			case strings.HasSuffix(path, "/embed") && body["input_type"] == "search_document":
				fmt.Fprint(w, `{"id":"e2","response_type":"embeddings_floats","embeddings":[[0.5,0.25],[0.1,0.2]],"texts":["a","b"]}`)
			case strings.HasSuffix(path, "/embed"):
				fmt.Fprint(w, `{"id":"e1","response_type":"embeddings_floats","embeddings":[[0.5,0.25]],"texts":["a"]}`)
			case strings.HasSuffix(path, "/chat"):
				fmt.Fprint(w, `{"response_id":"r1","text":" You like sci-fi. ","generation_id":"g1","finish_reason":"COMPLETE"}`)
			}
		}))
		defer ts.Close()

		Convey("When a query is embedded", func() {
			vector, err := NewCohereEmbedder(WithCohereEmbedderClient("co-test", ts.URL)).Embed(context.Background(), "a")

			Convey("Then it uses the search query input type and the v3 model", func() {
				So(err, ShouldBeNil)
				So(vector, ShouldResemble, []float32{0.5, 0.25})
				So(path, ShouldEndWith, "/embed")
				So(auth, ShouldEqual, "Bearer co-test")
				So(body["input_type"], ShouldEqual, "search_query")
				So(body["model"], ShouldEqual, "embed-english-v3.0")
			})
		})

		Convey("When documents are embedded", func() {
			vectors, err := NewCohereEmbedder(WithCohereEmbedderClient("co-test", ts.URL)).EmbedBatch(
				context.Background(), []string{"a", "b"},
			)

			So(err, ShouldBeNil)
			So(vectors, ShouldHaveLength, 2)
			So(body["input_type"], ShouldEqual, "search_document")
		})

		Convey("When a reasoner completes a prompt", func() {
			answer, err := NewCohereReasoner(WithCohereClient("co-test", ts.URL)).Complete(
				context.Background(), "What do I like?", "I like sci-fi",
			)

			So(err, ShouldBeNil)
			So(answer, ShouldEqual, "You like sci-fi.")
			So(path, ShouldEndWith, "/chat")
			So(body["message"], ShouldContainSubstring, "- I like sci-fi")
		})
	})

	Convey("Given a Cohere endpoint rejecting the key", t, func() {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"message":"invalid api token"}`)
		}))
		defer ts.Close()

		_, err := NewCohereEmbedder(WithCohereEmbedderClient("bad", ts.URL)).Embed(context.Background(), "a")

		So(errors.Is(err, errors.ErrAuth), ShouldBeTrue)
	})
}

func TestDeepseekReasoner(t *testing.T) {
	Convey("Given a DeepSeek chat endpoint", t, func() {
		var (
			path   string
			prompt string
		)

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path

			var body struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}

			json.NewDecoder(r.Body).Decode(&body)

			if len(body.Messages) > 0 {
				prompt = body.Messages[0].Content
			}

			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"id":"d1","object":"chat.completion","created":1,"model":"deepseek-chat","choices":[{"index":0,"message":{"role":"assistant","content":" You like sci-fi. "},"finish_reason":"stop"}],"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
		}))
		defer ts.Close()

		answer, err := NewDeepseekReasoner(WithDeepseekClient("sk-ds", ts.URL+"/")).Complete(
			context.Background(), "What do I like?", "I like sci-fi",
		)

		So(err, ShouldBeNil)
		So(answer, ShouldEqual, "You like sci-fi.")
		So(path, ShouldEndWith, "/chat/completions")
		So(prompt, ShouldContainSubstring, "- I like sci-fi")
	})

	Convey("Given a reasoner without a client", t, func() {
		_, err := NewDeepseekReasoner().Complete(context.Background(), "hi")

		So(errors.Is(err, errors.ErrConfig), ShouldBeTrue)
	})
}

func TestGoogleReasoner(t *testing.T) {
	Convey("Given a Gemini endpoint", t, func() {
		var (
			path string
			key  string
			body []byte
		)

		status := http.StatusOK

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			key = r.Header.Get("x-goog-api-key")
			body, _ = io.ReadAll(r.Body)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)

			if status != http.StatusOK {
				fmt.Fprint(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
				return
			}

			fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":" You like sci-fi. "}]},"finishReason":"STOP"}]}`)
		}))
		defer ts.Close()

		client, err := newGoogleClient("g-test", ts.URL+"/")
		So(err, ShouldBeNil)

		reasoner := NewGoogleReasoner(WithGoogleClient(client))

		Convey("When a prompt is completed", func() {
			answer, err := reasoner.Complete(context.Background(), "What do I like?", "I like sci-fi")

			Convey("Then the model's text is trimmed", func() {
				So(err, ShouldBeNil)
				So(answer, ShouldEqual, "You like sci-fi.")
				So(path, ShouldEndWith, "gemini-2.5-flash:generateContent")
				So(key, ShouldEqual, "g-test")
				So(string(body), ShouldContainSubstring, "What do I like?")
			})
		})

		Convey("When the key is rejected", func() {
			status = http.StatusForbidden

			_, err := reasoner.Complete(context.Background(), "hi")

			So(errors.Is(err, errors.ErrAuth), ShouldBeTrue)
		})
	})
}

func TestOllama(t *testing.T) {
	var (
		chat   api.ChatRequest
		embeds string
		status int
	)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if status != 0 {
			w.WriteHeader(status)
			fmt.Fprint(w, `{"error":"model \"nomic-embed-text\" not found, try pulling it first"}`)
			return
		}

		switch r.URL.Path {
		case "/api/chat":
			json.NewDecoder(r.Body).Decode(&chat)
			fmt.Fprint(w, `{"model":"llama3.1","message":{"role":"assistant","content":" You like sci-fi. "},"done":true}`)
		case "/api/embed":
			fmt.Fprint(w, embeds)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	t.Setenv("OLLAMA_HOST", ts.URL)

	client, err := newOllamaClient()
	assert.NoError(t, err)

	Convey("Given an Ollama server", t, func() {
		status = 0

		Convey("When a reasoner completes a prompt", func() {
			answer, err := NewOllamaReasoner(WithOllamaClient(client)).Complete(
				context.Background(), "What do I like?", "I like sci-fi",
			)

			Convey("Then one non-streaming chat carries the rendered prompt", func() {
				So(err, ShouldBeNil)
				So(answer, ShouldEqual, "You like sci-fi.")
				So(chat.Model, ShouldEqual, "llama3.1")
				So(chat.Stream, ShouldNotBeNil)
				So(*chat.Stream, ShouldBeFalse)
				So(chat.Messages, ShouldHaveLength, 1)
				So(chat.Messages[0].Content, ShouldContainSubstring, "- I like sci-fi")
			})
		})

		Convey("When the server returns one vector per input", func() {
			embeds = `{"model":"nomic-embed-text","embeddings":[[0.5,0.25],[0.1,0.2]]}`

			vectors, err := NewOllamaEmbedder(WithOllamaEmbedderClient(client)).EmbedBatch(
				context.Background(), []string{"a", "b"},
			)

			So(err, ShouldBeNil)
			So(vectors, ShouldResemble, [][]float32{{0.5, 0.25}, {0.1, 0.2}})
		})

		Convey("When the server returns fewer vectors than inputs", func() {
			embeds = `{"model":"nomic-embed-text","embeddings":[[0.5,0.25]]}`

			_, err := NewOllamaEmbedder(WithOllamaEmbedderClient(client)).EmbedBatch(
				context.Background(), []string{"a", "b"},
			)

			So(errors.Is(err, errors.ErrMalformed), ShouldBeTrue)
		})

		Convey("When the model has not been pulled", func() {
			status = http.StatusNotFound

			_, err := NewOllamaEmbedder(WithOllamaEmbedderClient(client)).Embed(context.Background(), "a")

			Convey("Then the status error is classified as not ready", func() {
				So(errors.Is(err, errors.ErrNotReady), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "not found")
			})
		})

		Convey("When the server is rate limiting", func() {
			status = http.StatusTooManyRequests

			_, err := NewOllamaEmbedder(WithOllamaEmbedderClient(client)).Embed(context.Background(), "a")

			So(errors.Is(err, errors.ErrRateLimit), ShouldBeTrue)
		})
	})

	Convey("Given providers without a client", t, func() {
		_, completeErr := NewOllamaReasoner().Complete(context.Background(), "hi")
		_, embedErr := NewOllamaEmbedder().Embed(context.Background(), "hi")

		Convey("Then both fail with a configuration error instead of panicking", func() {
			So(errors.Is(completeErr, errors.ErrConfig), ShouldBeTrue)
			So(errors.Is(embedErr, errors.ErrConfig), ShouldBeTrue)
		})
	})
}

type countingEmbedder struct {
	calls int
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return []float32{float32(len(text))}, nil
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))

	for i, text := range texts {
		out[i], _ = e.Embed(ctx, text)
	}

	return out, nil
}

func TestCachedEmbedder(t *testing.T) {
	Convey("Given a cached embedder", t, func() {
		next := &countingEmbedder{}
		embedder, err := NewCachedEmbedder(next, 100)
		So(err, ShouldBeNil)
		defer embedder.Close()

		Convey("When the same query is embedded twice", func() {
			first, _ := embedder.Embed(context.Background(), "What do I like?")
			second, _ := embedder.Embed(context.Background(), "What do I like?")

			Convey("Then the provider is only called once", func() {
				So(second, ShouldResemble, first)
				So(next.calls, ShouldEqual, 1)
			})
		})

		Convey("When documents are embedded", func() {
			embedder.EmbedBatch(context.Background(), []string{"a", "a"})

			Convey("Then every document reaches the provider", func() {
				So(next.calls, ShouldEqual, 2)
			})
		})
	})
}

func TestRenderPrompt(t *testing.T) {
	assert.Equal(t, "hi", RenderPrompt("hi"))

	rendered := RenderPrompt("hi", " one ", "two")
	assert.True(t, strings.HasSuffix(rendered, "Context:\n- one\n- two\n"))
}

func TestFactoryRequiresSelectedKeys(t *testing.T) {
	cfg := &config.Config{
		Voyage:    &config.Voyage{},
		OpenAI:    &config.OpenAI{},
		Anthropic: &config.Anthropic{},
		Cohere:    &config.Cohere{},
		DeepSeek:  &config.DeepSeek{},
		Google:    &config.Google{},
		Ollama:    &config.Ollama{},
		Agent:     &config.Agent{Reasoner: "openai", Embedder: "voyage"},
	}

	_, err := NewReasoner(cfg)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = NewEmbedder(cfg)
	assert.ErrorContains(t, err, "VOYAGE_API_KEY")

	for reasoner, key := range map[string]string{
		"anthropic": "ANTHROPIC_API_KEY",
		"cohere":    "COHERE_API_KEY",
		"deepseek":  "DEEPSEEK_API_KEY",
		"google":    "GOOGLE_API_KEY",
	} {
		cfg.Agent.Reasoner = reasoner
		_, err = NewReasoner(cfg)
		assert.ErrorContains(t, err, key, reasoner)
		assert.True(t, errors.Is(err, errors.ErrConfig), reasoner)
	}

	cfg.Agent.Embedder = "cohere"
	_, err = NewEmbedder(cfg)
	assert.ErrorContains(t, err, "COHERE_API_KEY")

	cfg.Cohere.APIKey = "co-test"
	embedder, err := NewEmbedder(cfg)
	assert.NoError(t, err)
	assert.IsType(t, &CohereEmbedder{}, embedder)

	cfg.Agent.Reasoner = "cohere"
	reasoner, err := NewReasoner(cfg)
	assert.NoError(t, err)
	assert.IsType(t, &CohereReasoner{}, reasoner)

	cfg.Agent.Reasoner = "ollama"
	reasoner, err = NewReasoner(cfg)
	assert.NoError(t, err)
	assert.IsType(t, &OllamaReasoner{}, reasoner)

	cfg.Agent.Embedder = "voyage"
	cfg.Voyage.MCPAPIKey = "pa-mcp"
	cfg.Agent.EmbedCacheSize = 10
	embedder, err = NewEmbedder(cfg)
	assert.NoError(t, err)
	assert.IsType(t, &CachedEmbedder{}, embedder)
}
