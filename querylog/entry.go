// Package querylog records one structured entry per answered sub-question
// and reads them back for reporting.
package querylog

import (
	"context"
	"time"

	"github.com/poiesic/ragcache/core"
)

// PreviewLength is the number of runes of an answer kept in a log entry.
const PreviewLength = 200

// Entry describes how one sub-question was routed and answered.
type Entry struct {
	UserQuery      string      `json:"user_query"`
	SubQuery       string      `json:"subquery"`
	Action         core.Action `json:"route_action"`
	Reason         string      `json:"route_reason"`
	CacheHit       bool        `json:"cache_hit"`
	LatencySeconds float64     `json:"latency_seconds"`
	AnswerPreview  string      `json:"answer_preview"`
	Error          string      `json:"error,omitempty"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Sink receives log entries. Appends are ordered per sink.
type Sink interface {
	Append(ctx context.Context, entry Entry) error
	Close() error
}

// Reader reports on previously appended entries.
type Reader interface {
	// Recent returns up to n entries, newest first.
	Recent(ctx context.Context, n int) ([]Entry, error)

	// Stats aggregates every entry.
	Stats(ctx context.Context) (Stats, error)
}

// Preview truncates answer to PreviewLength runes.
func Preview(answer string) string {
	runes := []rune(answer)
	if len(runes) <= PreviewLength {
		return answer
	}
	return string(runes[:PreviewLength])
}

// Discard is a Sink that drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(context.Context, Entry) error { return nil }
func (discard) Close() error                        { return nil }

func stamp(entry *Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
}
