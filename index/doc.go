// Package index provides the in-memory vector index used by the semantic cache.
//
// Vectors are stored L2-normalized so that cosine similarity reduces to an
// inner product. The Flat index performs exact brute-force search; it is
// rebuilt wholesale rather than mutated in place when entries are removed.
package index
