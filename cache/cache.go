package cache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/ragcache/ai"
	"github.com/poiesic/ragcache/index"
)

// Entry is a read-only view of one cached answer.
type Entry struct {
	Question string
	Answer   string
	Context  []string
}

// SemanticCache maps questions to answers by embedding similarity,
// qualified by the exact context the answer was generated from.
//
// The four collections are parallel: position i of each describes entry i.
// The index holds exactly the embeddings collection, or is nil when empty.
//
// SemanticCache is not safe for concurrent use.
type SemanticCache struct {
	embedder   ai.Embedder
	store      Store
	threshold  float64
	questions  []string
	answers    []string
	contexts   [][]string
	embeddings [][]float32
	index      *index.Flat
	logger     *slog.Logger
}

// New creates a cache backed by store, loading its snapshot once.
// A store with nothing saved yields an empty cache.
func New(embedder ai.Embedder, store Store, opts ...Option) (*SemanticCache, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}

	c := &SemanticCache{
		embedder:  embedder,
		store:     store,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "semantic-cache")

	snap, err := store.Load()
	if err != nil {
		return nil, err
	}
	if err := c.restore(snap); err != nil {
		return nil, err
	}

	c.logger.Debug("cache loaded", "entries", len(c.questions), "threshold", c.threshold)
	return c, nil
}

func (c *SemanticCache) restore(snap *Snapshot) error {
	if snap == nil {
		return nil
	}
	if err := snap.validate(); err != nil {
		return err
	}

	c.questions = snap.Questions
	c.answers = snap.Answers
	c.contexts = snap.Contexts
	c.embeddings = snap.Embeddings

	if len(c.embeddings) == 0 {
		return nil
	}
	idx, err := index.Build(len(c.embeddings[0]), c.embeddings)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	c.index = idx
	return nil
}

// Get returns the cached answer for question when the nearest stored
// question is within the threshold and was answered from currentContext.
// An empty cache misses without calling the embedder.
func (c *SemanticCache) Get(ctx context.Context, question string, currentContext []string) (string, bool, error) {
	if len(c.questions) == 0 || c.index == nil {
		return "", false, nil
	}

	vec, err := c.embed(ctx, question)
	if err != nil {
		return "", false, err
	}

	matches, err := c.index.Search(vec, 1)
	if err != nil {
		return "", false, err
	}
	if len(matches) == 0 {
		return "", false, nil
	}

	best := matches[0]
	if best.Score < float32(1-c.threshold) {
		c.logger.Debug("cache miss", "question", question, "similarity", best.Score)
		return "", false, nil
	}
	if !slices.Equal(c.contexts[best.Index], currentContext) {
		c.logger.Debug("cache miss on context change", "question", question, "matched", c.questions[best.Index])
		return "", false, nil
	}

	c.logger.Debug("cache hit", "question", question, "matched", c.questions[best.Index], "similarity", best.Score)
	return c.answers[best.Index], true, nil
}

// Add stores an answer for question under the context chunks and persists the cache.
// On a persistence error the entry stays in memory and the error is returned.
func (c *SemanticCache) Add(ctx context.Context, question, answer string, chunks []string) error {
	vec, err := c.embed(ctx, question)
	if err != nil {
		return err
	}

	if c.index == nil {
		idx, err := index.NewFlat(len(vec))
		if err != nil {
			return err
		}
		c.index = idx
	}
	if err := c.index.Add(vec); err != nil {
		return err
	}

	c.questions = append(c.questions, question)
	c.answers = append(c.answers, answer)
	c.contexts = append(c.contexts, cloneContext(chunks))
	c.embeddings = append(c.embeddings, vec)

	c.logger.Debug("cache add", "question", question, "entries", len(c.questions))
	return c.persist()
}

// InvalidateForContext removes every entry whose context equals chunks,
// rebuilds the index from the survivors and persists. It returns the number
// of entries removed.
func (c *SemanticCache) InvalidateForContext(ctx context.Context, chunks []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var (
		questions  []string
		answers    []string
		contexts   [][]string
		embeddings [][]float32
	)
	for i := range c.questions {
		if slices.Equal(c.contexts[i], chunks) {
			continue
		}
		questions = append(questions, c.questions[i])
		answers = append(answers, c.answers[i])
		contexts = append(contexts, c.contexts[i])
		embeddings = append(embeddings, c.embeddings[i])
	}

	removed := len(c.questions) - len(questions)
	if removed == 0 {
		return 0, nil
	}

	var idx *index.Flat
	if len(embeddings) > 0 {
		var err error
		idx, err = index.Build(c.index.Dim(), embeddings)
		if err != nil {
			return 0, err
		}
	}

	c.questions = questions
	c.answers = answers
	c.contexts = contexts
	c.embeddings = embeddings
	c.index = idx

	c.logger.Info("cache invalidated", "removed", removed, "remaining", len(c.questions))
	return removed, c.persist()
}

// Clear removes every entry and persists the empty cache. It returns the
// number of entries removed.
func (c *SemanticCache) Clear(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	removed := len(c.questions)
	if removed == 0 {
		return 0, nil
	}

	c.questions = nil
	c.answers = nil
	c.contexts = nil
	c.embeddings = nil
	c.index = nil

	c.logger.Info("cache cleared", "removed", removed)
	return removed, c.persist()
}

// Len returns the number of cached entries.
func (c *SemanticCache) Len() int {
	return len(c.questions)
}

// Threshold returns the configured distance threshold.
func (c *SemanticCache) Threshold() float64 {
	return c.threshold
}

// Entries returns a copy of the cached entries in insertion order.
func (c *SemanticCache) Entries() []Entry {
	entries := make([]Entry, len(c.questions))
	for i := range c.questions {
		entries[i] = Entry{
			Question: c.questions[i],
			Answer:   c.answers[i],
			Context:  cloneContext(c.contexts[i]),
		}
	}
	return entries
}

func (c *SemanticCache) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ai.ErrEmptyEmbedding
	}
	return index.Normalize(vec), nil
}

func (c *SemanticCache) persist() error {
	err := c.store.Save(&Snapshot{
		Questions:  c.questions,
		Answers:    c.answers,
		Contexts:   c.contexts,
		Embeddings: c.embeddings,
	})
	if err != nil {
		c.logger.Error("failed to persist cache", "err", err)
		return err
	}
	return nil
}

func cloneContext(chunks []string) []string {
	if chunks == nil {
		return []string{}
	}
	return slices.Clone(chunks)
}
