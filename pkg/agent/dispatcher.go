package agent

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/atlas-demos/pkg/errors"
	"github.com/theapemachine/atlas-demos/pkg/provider"
	"github.com/theapemachine/atlas-demos/pkg/stores"
)

const (
	ContentAlways   = "always"
	ContentKeywords = "keywords"
)

/*
Dispatcher carries out one classified command at a time. It keeps no
state between turns; everything it remembers lives in the memory store.
*/
type Dispatcher struct {
	Embedder    provider.Embedder
	Reasoner    provider.Reasoner
	Memory      stores.Store
	Content     stores.Store
	MemoryK     int
	ContentK    int
	ContentMode string
	ShowMemory  bool
	Out         io.Writer
	Err         io.Writer
}

/*
Handle executes cmd and prints its acknowledgement or answer. Exit is the
caller's concern and is a no-op here.
*/
func (dispatcher *Dispatcher) Handle(ctx context.Context, cmd Command) error {
	switch cmd.Intent {
	case IntentRemember:
		return dispatcher.remember(ctx, cmd.Payload)
	case IntentClear:
		return dispatcher.clear(ctx)
	case IntentQuestion:
		return dispatcher.answer(ctx, cmd.Payload)
	}

	return nil
}

func (dispatcher *Dispatcher) remember(ctx context.Context, text string) error {
	if text == "" {
		fmt.Fprintln(dispatcher.Out, "Usage: remember <text>")
		return nil
	}

	vectors, err := dispatcher.Embedder.EmbedBatch(ctx, []string{text})

	if err != nil {
		return fmt.Errorf("embed memory: %w", err)
	}

	if len(vectors) != 1 {
		return errors.Malformed("embed memory", fmt.Sprintf("expected 1 vector, got %d", len(vectors)))
	}

	id, err := dispatcher.Memory.Insert(ctx, stores.Record{
		Text:      text,
		Embedding: vectors[0],
		CreatedAt: time.Now().UTC(),
	})

	if err != nil {
		return fmt.Errorf("save memory: %w", err)
	}

	log.Debug("memory saved", "id", id)
	fmt.Fprintln(dispatcher.Out, "[memory] saved")

	return nil
}

func (dispatcher *Dispatcher) clear(ctx context.Context) error {
	deleted, err := dispatcher.Memory.Delete(ctx, stores.Filter{})

	if err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}

	fmt.Fprintf(dispatcher.Out, "[memory] deleted %d documents\n", deleted)

	return nil
}

func (dispatcher *Dispatcher) answer(ctx context.Context, question string) error {
	vector, err := dispatcher.Embedder.Embed(ctx, question)

	if err != nil {
		return fmt.Errorf("embed question: %w", err)
	}

	memoryRecords, err := dispatcher.search(ctx, "memory", dispatcher.Memory, vector, dispatcher.MemoryK)

	if err != nil {
		return err
	}

	memory := MemoryTexts(memoryRecords)

	if dispatcher.ShowMemory {
		fmt.Fprintf(dispatcher.Err, "[memory] %s\n", memoryPreview(memory))
	}

	var content []stores.Record

	if dispatcher.wantsContent(question) {
		if content, err = dispatcher.search(ctx, "content", dispatcher.Content, vector, dispatcher.ContentK); err != nil {
			return err
		}
	}

	reply, err := dispatcher.Reasoner.Complete(ctx, BuildPrompt(question, memory, content))

	if err != nil {
		return fmt.Errorf("reasoning: %w", err)
	}

	fmt.Fprintln(dispatcher.Out, strings.TrimSpace(reply))

	return nil
}

func (dispatcher *Dispatcher) wantsContent(question string) bool {
	if dispatcher.Content == nil {
		return false
	}

	if dispatcher.ContentMode == ContentKeywords {
		return WantsContent(question)
	}

	return true
}

/*
search runs one similarity search. An index that is not ready yet yields
no records and a warning instead of failing the turn.
*/
func (dispatcher *Dispatcher) search(
	ctx context.Context, name string, store stores.Store, vector []float32, limit int,
) ([]stores.Record, error) {
	records, err := store.Search(ctx, vector, limit)

	if errors.Is(err, errors.ErrNotReady) {
		log.Warn("search index not ready, continuing without results", "store", name, "error", err)
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%s search: %w", name, err)
	}

	return records, nil
}

func memoryPreview(memory []string) string {
	if len(memory) == 0 {
		return "(none)"
	}

	previews := make([]string, len(memory))

	for i, text := range memory {
		runes := []rune(text)

		if len(runes) > 80 {
			runes = runes[:80]
		}

		previews[i] = string(runes)
	}

	return strings.Join(previews, " | ")
}
