// Package manifest holds the table of file digests for a directory tree and
// reads and writes it in the two supported checksum file formats.
package manifest

// Entry is one tracked file.
type Entry struct {
	// Path is relative to the manifest root, using the host separator.
	Path string

	// Size is the file size in bytes, or nil when the format does not carry it.
	Size *uint64

	// Digest is the lowercase hex digest.
	Digest string

	// Binary is the binary-mode marker of the sum format.
	Binary bool
}

// SizeOf returns a pointer to n, for building entries.
func SizeOf(n uint64) *uint64 {
	return &n
}

// HasSize reports whether the entry carries a size.
func (e Entry) HasSize() bool {
	return e.Size != nil
}

// Manifest is an insertion-ordered set of entries keyed by path.
// It is not safe for concurrent use.
type Manifest struct {
	index   map[string]int
	slots   []*Entry
	removed int
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{index: make(map[string]int)}
}

// Add inserts e. An existing entry with the same path is replaced in place.
func (m *Manifest) Add(e Entry) {
	if i, ok := m.index[e.Path]; ok {
		m.slots[i] = &e
		return
	}
	m.index[e.Path] = len(m.slots)
	m.slots = append(m.slots, &e)
}

// Remove deletes the entry for path, if any.
func (m *Manifest) Remove(path string) {
	i, ok := m.index[path]
	if !ok {
		return
	}
	delete(m.index, path)
	m.slots[i] = nil
	m.removed++

	if m.removed > 32 && m.removed > len(m.slots)/2 {
		m.compact()
	}
}

// Get returns the entry for path.
func (m *Manifest) Get(path string) (Entry, bool) {
	i, ok := m.index[path]
	if !ok {
		return Entry{}, false
	}
	return *m.slots[i], true
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.index)
}

// IsEmpty reports whether the manifest has no entries.
func (m *Manifest) IsEmpty() bool {
	return len(m.index) == 0
}

// Paths returns the entry paths in insertion order.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.index))
	for _, e := range m.slots {
		if e != nil {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Entries returns a copy of the entries in insertion order.
func (m *Manifest) Entries() []Entry {
	entries := make([]Entry, 0, len(m.index))
	for _, e := range m.slots {
		if e != nil {
			entries = append(entries, *e)
		}
	}
	return entries
}

func (m *Manifest) compact() {
	slots := make([]*Entry, 0, len(m.index))
	for _, e := range m.slots {
		if e != nil {
			m.index[e.Path] = len(slots)
			slots = append(slots, e)
		}
	}
	m.slots = slots
	m.removed = 0
}
