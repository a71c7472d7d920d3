package cache

import (
	"bytes"
	"encoding/gob"
)

// Version is incremented when the cache format changes.
const Version = 1

// KeySeparator separates root from relative path in cache keys.
const KeySeparator = '\x00'

// Entry is the cached state of one file. A digest is only valid while the
// file's size and modification time are unchanged.
type Entry struct {
	Version int
	Size    int64
	Mtime   int64             // UnixNano
	Digests map[string]string // algorithm name -> lowercase hex digest
}

// Matches reports whether the entry still describes a file of the given
// size and modification time.
func (e *Entry) Matches(size, mtime int64) bool {
	return e.Version == Version && e.Size == size && e.Mtime == mtime
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes data into the entry.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates a cache key: <root>\x00<relative path>.
func MakeKey(root, relPath string) []byte {
	return []byte(root + string(KeySeparator) + relPath)
}

// ParseKey splits a cache key into root and relative path.
func ParseKey(key []byte) (root, relPath string) {
	idx := bytes.IndexByte(key, KeySeparator)
	if idx == -1 {
		return string(key), ""
	}
	return string(key[:idx]), string(key[idx+1:])
}

// MakeKeyPrefix returns the prefix shared by all keys under root.
func MakeKeyPrefix(root string) []byte {
	if root == "" {
		return nil
	}
	return []byte(root + string(KeySeparator))
}
