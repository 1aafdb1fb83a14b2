package querylog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// DefaultJSONLPath is where the CLI writes the query log unless configured.
const DefaultJSONLPath = "logs/rag_log.jsonl"

// JSONLSink appends entries as JSON lines to a file.
type JSONLSink struct {
	path   string
	mu     sync.Mutex
	file   *os.File
	logger *slog.Logger
}

var (
	_ Sink   = (*JSONLSink)(nil)
	_ Reader = (*JSONLSink)(nil)
)

// NewJSONLSink opens path for appending, creating parent directories.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{
		path:   path,
		file:   f,
		logger: slog.Default().With("component", "querylog-jsonl"),
	}, nil
}

// Append writes entry as one line. A zero Timestamp is set to now.
func (s *JSONLSink) Append(ctx context.Context, entry Entry) error {
	stamp(&entry)
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return os.ErrClosed
	}
	_, err = s.file.Write(line)
	return err
}

// Close closes the underlying file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// Recent returns up to n entries, newest first.
func (s *JSONLSink) Recent(ctx context.Context, n int) ([]Entry, error) {
	return NewJSONLReader(s.path).Recent(ctx, n)
}

// Stats aggregates the whole file.
func (s *JSONLSink) Stats(ctx context.Context) (Stats, error) {
	return NewJSONLReader(s.path).Stats(ctx)
}

// JSONLReader reads a JSONL query log without opening it for writing.
type JSONLReader struct {
	path string
}

var _ Reader = (*JSONLReader)(nil)

// NewJSONLReader returns a reader for the log at path.
func NewJSONLReader(path string) *JSONLReader {
	return &JSONLReader{path: path}
}

// Recent returns up to n entries, newest first.
func (r *JSONLReader) Recent(ctx context.Context, n int) ([]Entry, error) {
	entries, err := ReadJSONL(r.path)
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Stats aggregates the whole file.
func (r *JSONLReader) Stats(ctx context.Context) (Stats, error) {
	entries, err := ReadJSONL(r.path)
	if err != nil {
		return Stats{}, err
	}
	return Compute(entries), nil
}

// Close is a no-op.
func (r *JSONLReader) Close() error {
	return nil
}

// ReadJSONL reads every entry in the file at path, oldest first.
// Malformed lines are skipped. A missing file yields no entries.
func ReadJSONL(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, readErr := reader.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return entries, readErr
		}
		if len(line) > 0 {
			lineNo++
			line = bytes.TrimSpace(line)
		}
		if len(line) > 0 {
			var e Entry
			if err := json.Unmarshal(line, &e); err != nil {
				slog.Warn("skipping malformed log line", "path", path, "line", lineNo, "err", err)
			} else {
				entries = append(entries, e)
			}
		}
		if readErr != nil {
			return entries, nil
		}
	}
}
