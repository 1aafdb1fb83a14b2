// Package reembed regenerates the vectors of stored chunks.
//
// Use it after switching embedding models: every chunk in the selected
// collections is re-embedded in batches, normalized to unit length and
// written back in place. Embedding calls are retried with exponential
// backoff, and progress is reported to a writer.
package reembed
