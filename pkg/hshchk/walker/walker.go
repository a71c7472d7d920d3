// Package walker enumerates regular files under a directory tree.
//
// Walk visits files depth-first in lexical order so that repeated runs over
// an unchanged tree produce the same sequence. Census counts files and bytes
// in parallel when only totals are needed.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileFunc is called once for every regular file. path is root joined with
// the file's path below root.
type FileFunc func(path string, d fs.DirEntry)

// ErrorFunc receives errors for individual entries. The walk continues.
type ErrorFunc func(path string, err error)

// Option configures a walk.
type Option func(*walker)

// WithErrorHandler sets the handler for per-entry errors.
func WithErrorHandler(fn ErrorFunc) Option {
	return func(w *walker) {
		w.onError = fn
	}
}

type walker struct {
	ctx     context.Context
	onFile  FileFunc
	onError ErrorFunc
}

// Walk visits every regular file under root, depth-first. Entries within a
// directory are visited in lexical order. Symbolic links to regular files are
// reported; symbolic links to directories are not followed.
//
// The context is checked before every directory entry. When it is canceled
// Walk stops and returns nil; the caller is expected to check ctx.Err().
// Only a failure to read root itself is returned as an error.
func Walk(ctx context.Context, root string, fn FileFunc, opts ...Option) error {
	w := &walker{
		ctx:    ctx,
		onFile: fn,
	}
	for _, opt := range opts {
		opt(w)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("reading %s: %w", root, err)
	}
	w.visit(root, entries)
	return nil
}

// visit walks the entries of dir. It returns false once the context is done.
func (w *walker) visit(dir string, entries []fs.DirEntry) bool {
	for _, entry := range entries {
		if w.ctx.Err() != nil {
			return false
		}

		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()

		switch {
		case mode.IsDir():
			children, err := os.ReadDir(path)
			if err != nil {
				w.reportError(path, err)
				// ReadDir may return a partial listing along with the error.
				if len(children) == 0 {
					continue
				}
			}
			if !w.visit(path, children) {
				return false
			}

		case mode&fs.ModeSymlink != 0:
			info, err := os.Stat(path)
			if err != nil {
				w.reportError(path, err)
				continue
			}
			if info.Mode().IsRegular() {
				w.onFile(path, entry)
			}

		case mode.IsRegular():
			w.onFile(path, entry)
		}
	}
	return true
}

func (w *walker) reportError(path string, err error) {
	if w.onError != nil {
		w.onError(path, err)
	}
}
