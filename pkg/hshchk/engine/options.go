package engine

import (
	"github.com/jamesainslie/hshchk/pkg/hshchk/cache"
	"github.com/jamesainslie/hshchk/pkg/hshchk/digest"
	"github.com/jamesainslie/hshchk/pkg/hshchk/logging"
	"github.com/jamesainslie/hshchk/pkg/hshchk/manifest"
)

// Options configures a Processor. Build it with DefaultOptions and override
// fields; the zero value selects MD5.
type Options struct {
	// Root is the directory to process.
	Root string

	// Algorithm is the requested algorithm. An existing manifest for
	// another algorithm takes precedence unless ForceCreate is set.
	Algorithm digest.Algorithm

	// Format is the manifest format written in create mode.
	Format manifest.Format

	// ForceCreate ignores any existing manifest and overwrites it.
	ForceCreate bool

	// ReportExtra reports files missing from the manifest as warnings.
	ReportExtra bool

	// SizeOnly verifies file sizes without hashing.
	SizeOnly bool

	// Match and Ignore are regular expressions applied to full paths.
	Match  string
	Ignore string

	// IgnoreGlobs are glob patterns excluded like Ignore.
	IgnoreGlobs []string

	// BufferSize is the read block size. Zero uses digest.DefaultBufferSize.
	BufferSize int

	// ProgressBlockSize is the hash progress granularity in bytes. Zero
	// uses digest.DefaultProgressBlockSize.
	ProgressBlockSize uint64

	// Census counts files before walking so sinks can show totals.
	Census bool

	// Cache, when set, supplies and records digests in create mode.
	Cache *cache.Cache

	// Logger overrides the "engine" component logger.
	Logger *logging.Logger

	// Executable is the running program's path for self-exclusion.
	// Empty uses os.Executable.
	Executable string
}

// DefaultOptions returns options for root with the default algorithm and
// the size-carrying format.
func DefaultOptions(root string) Options {
	return Options{
		Root:      root,
		Algorithm: digest.Default,
		Format:    manifest.HashCheck,
	}
}
