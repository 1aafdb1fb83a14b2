// Package cache implements a semantic response cache.
//
// Answers are keyed by the meaning of a question rather than its exact text.
// Each entry records the question, the answer, and the ordered list of
// context chunks the answer was produced from. A lookup embeds the new
// question, finds the single most similar stored question, and returns its
// answer only when the similarity clears the threshold and the stored context
// equals the caller's current context element by element. A changed context
// therefore never serves a stale answer.
//
// The cache is owned by a single goroutine; callers serialize access. Every
// mutation rewrites the whole snapshot through a Store.
//
//	c, err := cache.New(embedder, cache.NewFileStore("semantic_cache.json"))
//	answer, hit, err := c.Get(ctx, "What is GPT-4?", chunks)
//	if !hit {
//	    answer = generate(...)
//	    err = c.Add(ctx, "What is GPT-4?", answer, chunks)
//	}
package cache
