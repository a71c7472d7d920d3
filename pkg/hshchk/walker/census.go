package walker

import (
	"context"
	"errors"
	"io/fs"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

// Totals summarizes the regular files under a root.
type Totals struct {
	Files int64
	Bytes int64
}

// Census counts regular files and their total size under root. It walks in
// parallel and does not follow symbolic links. Unreadable entries are
// skipped. Cancellation returns the context error.
func Census(ctx context.Context, root string) (Totals, error) {
	if err := ctx.Err(); err != nil {
		return Totals{}, err
	}

	var files, bytes atomic.Int64

	conf := fastwalk.Config{
		Follow: false,
	}

	err := fastwalk.Walk(&conf, root, func(_ string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			return nil //nolint:nilerr // keep counting past unreadable entries
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // entry vanished or cannot be stat'ed
		}

		files.Add(1)
		bytes.Add(info.Size())
		return nil
	})

	totals := Totals{Files: files.Load(), Bytes: bytes.Load()}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return totals, ctx.Err()
		}
		return totals, err
	}
	return totals, nil
}
