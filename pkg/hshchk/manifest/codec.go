package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Limits on manifest fields. Longer values indicate a corrupt or hostile file.
const (
	MaxPathLength   = 4096 - 1
	MaxDigestLength = 1024
)

// Errors returned while reading and writing manifests.
var (
	ErrPathTooLong   = errors.New("file path length must be less than 4096 characters")
	ErrDigestTooLong = errors.New("hash length must be less than 1025 characters")
	ErrInvalidSize   = errors.New("failed to parse file size")
	ErrMissingSize   = errors.New("entry has no size")
	ErrUnknownFormat = errors.New("unknown manifest format")
)

const (
	fieldSeparator = "|"
	binaryMarker   = '*'
	textMarker     = ' '
)

// DetectFormat reports the format of a manifest from its first line: a pipe
// means HashCheck, anything else HashSum.
func DetectFormat(firstLine string) Format {
	if strings.Contains(firstLine, fieldSeparator) {
		return HashCheck
	}
	return HashSum
}

// Load reads a manifest, detecting its format from the first line.
// Malformed lines are skipped. Fields exceeding the length limits and
// unparsable sizes are errors.
func Load(r io.Reader) (*Manifest, Format, error) {
	br := bufio.NewReader(r)
	m := New()

	format := HashSum
	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, format, fmt.Errorf("reading manifest: %w", readErr)
		}
		if line == "" && readErr != nil {
			break
		}

		line = strings.TrimRight(line, "\r\n")
		lineNo++
		if lineNo == 1 {
			format = DetectFormat(line)
		}

		if line != "" {
			entry, ok, err := parseLine(line, format)
			if err != nil {
				return nil, format, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if ok {
				m.Add(entry)
			}
		}

		if readErr != nil {
			break
		}
	}

	return m, format, nil
}

// LoadFile reads the manifest at path.
func LoadFile(path string) (*Manifest, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, HashSum, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	m, format, err := Load(f)
	if err != nil {
		return nil, format, fmt.Errorf("loading %s: %w", path, err)
	}
	return m, format, nil
}

func parseLine(line string, format Format) (Entry, bool, error) {
	if format == HashCheck {
		return parseHashCheck(line)
	}
	return parseHashSum(line)
}

func parseHashCheck(line string) (Entry, bool, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != 3 {
		return Entry{}, false, nil
	}

	path := fromManifestPath(parts[0])
	if len(path) > MaxPathLength {
		return Entry{}, false, ErrPathTooLong
	}
	if len(parts[2]) > MaxDigestLength {
		return Entry{}, false, ErrDigestTooLong
	}

	size, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Entry{}, false, fmt.Errorf("%w: %q", ErrInvalidSize, parts[1])
	}

	return Entry{
		Path:   path,
		Size:   SizeOf(size),
		Digest: strings.ToLower(parts[2]),
		Binary: true,
	}, true, nil
}

func parseHashSum(line string) (Entry, bool, error) {
	space := strings.IndexByte(line, ' ')
	// Need the digest, one space, a marker and at least one path byte.
	if space <= 0 || space+2 >= len(line) {
		return Entry{}, false, nil
	}

	digest := line[:space]
	path := fromManifestPath(line[space+2:])
	if len(path) > MaxPathLength {
		return Entry{}, false, ErrPathTooLong
	}
	if len(digest) > MaxDigestLength {
		return Entry{}, false, ErrDigestTooLong
	}

	return Entry{
		Path:   path,
		Digest: strings.ToLower(digest),
		Binary: line[space+1] == binaryMarker,
	}, true, nil
}

// Save writes every entry in insertion order.
func (m *Manifest) Save(w io.Writer, format Format) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.Entries() {
		if err := writeEntry(bw, e, format); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveFile writes the manifest to path atomically.
func (m *Manifest) SaveFile(path string, format Format) error {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}

	if err := m.Save(f, format); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing manifest: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming manifest: %w", err)
	}
	return nil
}

func writeEntry(w *bufio.Writer, e Entry, format Format) error {
	path := filepath.ToSlash(e.Path)

	var err error
	switch format {
	case HashCheck:
		if e.Size == nil {
			return fmt.Errorf("%w: %s", ErrMissingSize, e.Path)
		}
		_, err = fmt.Fprintf(w, "%s|%d|%s\n", path, *e.Size, e.Digest)
	case HashSum:
		marker := textMarker
		if e.Binary {
			marker = binaryMarker
		}
		_, err = fmt.Fprintf(w, "%s %c%s\n", e.Digest, marker, path)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
	return err
}

// fromManifestPath converts a stored path to the host convention. Both
// separators are accepted on read.
func fromManifestPath(p string) string {
	return filepath.FromSlash(strings.ReplaceAll(p, `\`, "/"))
}
