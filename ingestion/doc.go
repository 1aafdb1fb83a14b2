// Package ingestion loads documents into chunk collections.
//
// The Pipeline type manages the ingestion workflow:
//   - Splitting text into paragraph-packed chunks of bounded size
//   - Generating embeddings concurrently in batches
//   - Normalizing vectors and storing chunks under content-derived IDs
//
// Embedding batches run on a worker pool. Ingest waits for every batch and
// stores nothing if any batch fails.
package ingestion
