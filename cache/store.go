package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Snapshot is the persisted form of a cache: four parallel arrays.
type Snapshot struct {
	Questions  []string    `json:"questions"`
	Answers    []string    `json:"answers"`
	Contexts   [][]string  `json:"contexts"`
	Embeddings [][]float32 `json:"embeddings"`
}

func (s *Snapshot) validate() error {
	n := len(s.Questions)
	if len(s.Answers) != n || len(s.Contexts) != n || len(s.Embeddings) != n {
		return fmt.Errorf("%w: questions=%d answers=%d contexts=%d embeddings=%d",
			ErrCorruptSnapshot, n, len(s.Answers), len(s.Contexts), len(s.Embeddings))
	}
	return nil
}

// clone deep-copies the snapshot so callers cannot alias cache state.
// Empty collections come out as empty, non-nil slices.
func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		Questions:  append([]string{}, s.Questions...),
		Answers:    append([]string{}, s.Answers...),
		Contexts:   make([][]string, len(s.Contexts)),
		Embeddings: make([][]float32, len(s.Embeddings)),
	}
	for i, c := range s.Contexts {
		out.Contexts[i] = append([]string{}, c...)
	}
	for i, e := range s.Embeddings {
		out.Embeddings[i] = slices.Clone(e)
	}
	return out
}

// Store loads and saves cache snapshots.
type Store interface {
	// Load returns the saved snapshot, or an empty one if nothing was saved.
	Load() (*Snapshot, error)

	// Save replaces the saved snapshot.
	Save(snap *Snapshot) error
}

// FileStore persists snapshots as a single JSON file.
// Each save writes a temporary file in the same directory and renames it
// over the target, so readers see either the old or the new snapshot.
type FileStore struct {
	path string
}

// NewFileStore creates a store for the JSON file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the snapshot file. A missing file is an empty snapshot.
func (s *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptSnapshot, err)
	}
	return &snap, nil
}

// Save atomically replaces the snapshot file.
func (s *FileStore) Save(snap *Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := json.NewEncoder(tmp).Encode(snap.clone()); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// MemoryStore keeps the snapshot in memory. Useful for tests and
// short-lived processes.
type MemoryStore struct {
	mu    sync.Mutex
	snap  *Snapshot
	saves int
	err   error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the last saved snapshot.
func (s *MemoryStore) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return &Snapshot{}, nil
	}
	return s.snap.clone(), nil
}

// Save stores a copy of snap, or returns the error set by FailSaves.
func (s *MemoryStore) Save(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.snap = snap.clone()
	s.saves++
	return nil
}

// Saves returns the number of successful saves.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailSaves makes subsequent saves return err. Pass nil to clear.
func (s *MemoryStore) FailSaves(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}
