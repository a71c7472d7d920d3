package digest

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
)

// Default block sizes.
const (
	DefaultBufferSize        = 1 << 20 // 1 MiB read block
	DefaultProgressBlockSize = 2 << 20 // 2 MiB between progress notifications
)

// ProgressFunc receives the cumulative number of bytes hashed so far.
type ProgressFunc func(bytesProcessed uint64)

// Option configures a FileHash.
type Option func(*FileHash)

// WithBufferSize sets the read block size. Values <= 0 are ignored.
func WithBufferSize(n int) Option {
	return func(h *FileHash) {
		if n > 0 {
			h.bufferSize = n
		}
	}
}

// WithProgress attaches a progress observer notified every
// DefaultProgressBlockSize bytes.
func WithProgress(fn ProgressFunc) Option {
	return WithProgressBlockSize(fn, DefaultProgressBlockSize)
}

// WithProgressBlockSize attaches a progress observer notified each time
// another blockSize bytes have been hashed. A zero block size disables
// notifications.
func WithProgressBlockSize(fn ProgressFunc, blockSize uint64) Option {
	return func(h *FileHash) {
		h.onProgress = fn
		h.notifyBlock = blockSize
	}
}

// FileHash computes the digest of a single file.
type FileHash struct {
	path        string
	alg         Algorithm
	file        *os.File
	h           hash.Hash
	bufferSize  int
	onProgress  ProgressFunc
	notifyBlock uint64
	processed   uint64
}

// Open opens path for hashing with alg.
func Open(path string, alg Algorithm, opts ...Option) (*FileHash, error) {
	h, err := alg.New()
	if err != nil {
		return nil, err
	}

	fh := &FileHash{
		path:       path,
		alg:        alg,
		h:          h,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(fh)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	fh.file = f

	return fh, nil
}

// Algorithm returns the algorithm in use.
func (fh *FileHash) Algorithm() Algorithm {
	return fh.alg
}

// HasProgress reports whether a progress observer is attached.
func (fh *FileHash) HasProgress() bool {
	return fh.onProgress != nil && fh.notifyBlock > 0
}

// BytesProcessed returns the number of bytes hashed so far.
func (fh *FileHash) BytesProcessed() uint64 {
	return fh.processed
}

// Compute reads the file to the end, feeding every block to the hash.
// The context is checked before each block; on cancellation the partial
// state is left as is and ctx.Err() is returned.
func (fh *FileHash) Compute(ctx context.Context) error {
	if fh.file == nil {
		return fmt.Errorf("hashing %s: %w", fh.path, os.ErrClosed)
	}

	buf := make([]byte, fh.bufferSize)
	notify := fh.HasProgress()
	var pending uint64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := fh.file.Read(buf)
		if n > 0 {
			// hash.Hash.Write never returns an error.
			_, _ = fh.h.Write(buf[:n])
			fh.processed += uint64(n)

			if notify {
				pending += uint64(n)
				if pending >= fh.notifyBlock {
					pending -= fh.notifyBlock
					fh.onProgress(fh.processed)
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", fh.path, err)
		}
	}
}

// Digest returns the lowercase hex digest of everything hashed so far and
// resets the hash state.
func (fh *FileHash) Digest() string {
	sum := hex.EncodeToString(fh.h.Sum(nil))
	fh.h.Reset()
	return sum
}

// Reset clears the hash state and rewinds the file so Compute can run again.
func (fh *FileHash) Reset() error {
	fh.h.Reset()
	fh.processed = 0
	if fh.file == nil {
		return nil
	}
	if _, err := fh.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding %s: %w", fh.path, err)
	}
	return nil
}

// Close releases the underlying file.
func (fh *FileHash) Close() error {
	if fh.file == nil {
		return nil
	}
	err := fh.file.Close()
	fh.file = nil
	return err
}
