package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ChunkID derives the ID of a chunk from its collection and content.
// The same text stored in two collections yields two distinct chunks.
func ChunkID(collection, content string) ID {
	return IDFromContent(collection + "\x00" + content)
}

// Action identifies the downstream handling strategy chosen for a sub-question.
type Action string

const (
	// ActionOpenAI routes to the collection of OpenAI product and research documents.
	ActionOpenAI Action = "OPENAI_QUERY"
	// ActionTenK routes to the collection of 10-K financial filings.
	ActionTenK Action = "10K_DOCUMENT_QUERY"
	// ActionInternet is the catch-all route answered by web search.
	ActionInternet Action = "INTERNET_QUERY"
)

// Actions lists every known action in routing-prompt order.
var Actions = []Action{ActionOpenAI, ActionTenK, ActionInternet}

// DefaultAction is the catch-all route used when classification fails.
const DefaultAction = ActionInternet

func (a Action) String() string {
	return string(a)
}

// RouteDecision is the router's classification of a single sub-question.
// It is ephemeral and consumed immediately by the dispatcher.
type RouteDecision struct {
	Action Action
	Reason string
	Answer string // Optional short direct answer supplied by the router
}

// Chunk is a unit of retrievable text stored in a named collection.
type Chunk struct {
	Id         ID
	Collection string
	Content    string
	Vector     []float32 // Unit-norm embedding of Content
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// ScoredChunk is a chunk returned from a similarity search with its score.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}
