package badger

import (
	"encoding/binary"
	"strings"

	"github.com/poiesic/ragcache/core"
)

// Key prefixes for different data types
const (
	chunkPrefix      = "chunk:"
	collectionPrefix = "coll:"
)

// collectionSep ends the collection name inside chunk keys so that one
// collection name can never be a key prefix of another's chunks.
const collectionSep = 0x00

// makeChunkKey generates a key for a chunk.
// Format: chunk:<collection>\x00<id big-endian>
func makeChunkKey(collection string, id core.ID) []byte {
	prefix := makeChunkCollectionPrefix(collection)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeChunkCollectionPrefix generates the prefix shared by all chunks of a collection.
func makeChunkCollectionPrefix(collection string) []byte {
	buf := make([]byte, 0, len(chunkPrefix)+len(collection)+1)
	buf = append(buf, chunkPrefix...)
	buf = append(buf, collection...)
	return append(buf, collectionSep)
}

// makeCollectionKey generates the registry key for a collection name.
func makeCollectionKey(collection string) []byte {
	return []byte(collectionPrefix + collection)
}

// collectionFromKey extracts the collection name from a registry key.
func collectionFromKey(key []byte) string {
	return strings.TrimPrefix(string(key), collectionPrefix)
}
