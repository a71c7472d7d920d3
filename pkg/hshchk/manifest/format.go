package manifest

import (
	"fmt"
	"strings"

	"github.com/jamesainslie/hshchk/pkg/hshchk/digest"
)

// Format is a manifest wire format.
type Format int

const (
	// HashCheck is the size-carrying format: "path|size|digest".
	HashCheck Format = iota
	// HashSum is the sha1sum-compatible format: "digest *path".
	HashSum
)

// Formats returns every format in probing order.
func Formats() []Format {
	return []Format{HashCheck, HashSum}
}

// String returns the format name.
func (f Format) String() string {
	switch f {
	case HashCheck:
		return "HashCheck"
	case HashSum:
		return "HashSum"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat parses a format name. Besides the names returned by String it
// accepts "hc"/"hshchk" and "sum"/"sums".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "hashcheck", "hc", "hshchk":
		return HashCheck, nil
	case "hashsum", "sum", "sums":
		return HashSum, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FileName returns the conventional manifest file name for an algorithm in
// the given format, e.g. "hshchk.sha1" or "SHA1SUMS".
func FileName(alg digest.Algorithm, f Format) string {
	if f == HashSum {
		return strings.ToUpper(alg.String()) + "SUMS"
	}
	return "hshchk." + strings.ToLower(alg.String())
}
