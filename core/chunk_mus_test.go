package core

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

func testChunk(vector []float32) Chunk {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	return Chunk{
		Id:         ChunkID("docs", "GPT-4 is a model."),
		Collection: "docs",
		Content:    "GPT-4 is a model.",
		Vector:     vector,
		InsertedAt: now,
		UpdatedAt:  now.Add(time.Hour),
	}
}

func TestChunkMUSRoundTrip(t *testing.T) {
	c := testChunk([]float32{0.6, -0.8, 0, float32(math.SmallestNonzeroFloat32)})

	bs := make([]byte, ChunkMUS.Size(c))
	n := ChunkMUS.Marshal(c, bs)
	if n != len(bs) {
		t.Fatalf("Marshal wrote %d bytes, Size reported %d", n, len(bs))
	}

	got, read, err := ChunkMUS.Unmarshal(bs)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if read != n {
		t.Errorf("Unmarshal read %d bytes, want %d", read, n)
	}
	if got.Id != c.Id || got.Collection != c.Collection || got.Content != c.Content {
		t.Errorf("got %+v, want %+v", got, c)
	}
	if len(got.Vector) != len(c.Vector) {
		t.Fatalf("vector length %d, want %d", len(got.Vector), len(c.Vector))
	}
	for i := range c.Vector {
		if got.Vector[i] != c.Vector[i] {
			t.Errorf("vector[%d] = %v, want %v", i, got.Vector[i], c.Vector[i])
		}
	}
	if !got.InsertedAt.Equal(c.InsertedAt.Truncate(time.Microsecond)) {
		t.Errorf("InsertedAt = %v, want %v", got.InsertedAt, c.InsertedAt)
	}
	if !got.UpdatedAt.Equal(c.UpdatedAt.Truncate(time.Microsecond)) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, c.UpdatedAt)
	}
}

// Stored chunks depend on vector elements being fixed four-byte floats.
func TestChunkMUSFixedWidthVector(t *testing.T) {
	base := ChunkMUS.Size(testChunk(nil))

	vectors := [][]float32{
		{0, 0, 0},
		{1, 2, 3},
		{-1e30, 1e-30, 0.5},
	}
	for _, v := range vectors {
		if got := ChunkMUS.Size(testChunk(v)) - base; got != 4*len(v) {
			t.Errorf("vector %v adds %d bytes, want %d", v, got, 4*len(v))
		}
	}
}

func TestChunkMUSCorruptLength(t *testing.T) {
	c := testChunk([]float32{1, 0, 0, 0})
	bs := make([]byte, ChunkMUS.Size(c))
	ChunkMUS.Marshal(c, bs)

	vectorStart := IDMUS.Size(c.Id) + ord.String.Size(c.Collection) + ord.String.Size(c.Content) + varint.Uint64.Size(4)
	// Leave room for fewer than four floats after the length prefix.
	truncated := bs[:vectorStart+10]

	_, _, err := ChunkMUS.Unmarshal(truncated)
	if !errors.Is(err, ErrCorruptChunk) {
		t.Errorf("Unmarshal error = %v, want ErrCorruptChunk", err)
	}
}
