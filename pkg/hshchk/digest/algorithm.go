// Package digest computes file digests for the supported hash algorithms.
//
// The algorithm set is closed: Algorithm enumerates every supported hash and
// New constructs a fresh streaming hash.Hash for it. FileHash drives a hash
// over a file in fixed-size blocks with optional byte-progress notifications.
package digest

import (
	"crypto/md5"  //nolint:gosec // MD5 is a supported manifest algorithm
	"crypto/sha1" //nolint:gosec // SHA-1 is the default manifest algorithm
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm int

// Supported algorithms. The declaration order is the probing order used when
// looking for an existing manifest.
const (
	MD5 Algorithm = iota
	SHA1
	SHA256
	SHA512
	BLAKE2B
	BLAKE2S
	BLAKE3
)

// Default is the algorithm used when none is requested.
const Default = SHA1

// ErrUnknownAlgorithm is returned when an algorithm name is not recognized.
var ErrUnknownAlgorithm = errors.New("unknown hash algorithm")

var algorithmNames = [...]string{
	MD5:     "MD5",
	SHA1:    "SHA1",
	SHA256:  "SHA256",
	SHA512:  "SHA512",
	BLAKE2B: "BLAKE2B",
	BLAKE2S: "BLAKE2S",
	BLAKE3:  "BLAKE3",
}

// String returns the upper-case algorithm name, e.g. "SHA1".
func (a Algorithm) String() string {
	if a < 0 || int(a) >= len(algorithmNames) {
		return fmt.Sprintf("Algorithm(%d)", int(a))
	}
	return algorithmNames[a]
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	return a >= 0 && int(a) < len(algorithmNames)
}

// Algorithms returns every supported algorithm in probing order.
func Algorithms() []Algorithm {
	algs := make([]Algorithm, len(algorithmNames))
	for i := range algs {
		algs[i] = Algorithm(i)
	}
	return algs
}

// Names returns the names of every supported algorithm in probing order.
func Names() []string {
	names := make([]string, len(algorithmNames))
	copy(names, algorithmNames[:])
	return names
}

// ParseAlgorithm parses an algorithm name, ignoring case.
func ParseAlgorithm(s string) (Algorithm, error) {
	for i, name := range algorithmNames {
		if strings.EqualFold(s, name) {
			return Algorithm(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
}

// New returns a new streaming hash for the algorithm.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case MD5:
		return md5.New(), nil //nolint:gosec // see import
	case SHA1:
		return sha1.New(), nil //nolint:gosec // see import
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case BLAKE2B:
		return blake2b.New512(nil)
	case BLAKE2S:
		return blake2s.New256(nil)
	case BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, a)
	}
}
