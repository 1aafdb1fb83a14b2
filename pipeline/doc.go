// Package pipeline answers user queries by splitting them into
// sub-questions, routing each one, and dispatching it to a handler.
//
// Routing produces one of a closed set of actions. Document actions run
// retrieval-augmented generation over their collection; the internet action
// asks a web client; anything else yields an "Unsupported action" result
// without calling a collaborator. Every handler consults the semantic cache
// first, keyed by the exact context it would answer from, and marks cached
// answers with CacheHitMarker.
//
// Sub-questions are processed sequentially and each handler runs exactly
// once per sub-question. A failing sub-question is logged and skipped; Run
// returns the answers it has together with the joined errors.
package pipeline
