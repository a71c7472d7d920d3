// Package progress carries engine events from the worker goroutine to a
// presentation loop.
//
// Pipeline is an engine.Sink whose every method returns without waiting for
// the consumer. When progress is enabled a proxy goroutine merges file start
// events and raw hash byte counts into one FileProgress stream, publishing a
// file's start event before any byte count for it. Warnings and errors also
// leave an Anomaly marker in that stream so consumers can tell which file
// they interrupted.
package progress

import (
	"sync"
	"sync/atomic"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

// Pipeline fans engine events out to channels.
type Pipeline struct {
	enabled bool

	walkIn     chan<- engine.FileProgress
	hashIn     chan<- engine.HashProgress
	warningIn  chan<- engine.FileProcessEntry
	errorIn    chan<- engine.FileProcessEntry
	completeIn chan<- engine.Result

	progress <-chan engine.FileProgress
	warnings <-chan engine.FileProcessEntry
	errors   <-chan engine.FileProcessEntry
	complete <-chan engine.Result

	totalFiles atomic.Int64
	totalBytes atomic.Int64

	closeOnce sync.Once
}

var (
	_ engine.Sink             = (*Pipeline)(nil)
	_ engine.HashProgressSink = (*Pipeline)(nil)
	_ engine.CensusSink       = (*Pipeline)(nil)
)

// New creates a pipeline. With withProgress false, progress events are
// dropped, no proxy goroutine runs and Progress returns a closed channel.
func New(withProgress bool) *Pipeline {
	p := &Pipeline{enabled: withProgress}

	p.warningIn, p.warnings = unbounded[engine.FileProcessEntry]()
	p.errorIn, p.errors = unbounded[engine.FileProcessEntry]()
	p.completeIn, p.complete = unbounded[engine.Result]()

	if withProgress {
		walkIn, walkOut := unbounded[engine.FileProgress]()
		hashIn, hashOut := unbounded[engine.HashProgress]()
		mergedIn, mergedOut := unbounded[engine.FileProgress]()

		p.walkIn = walkIn
		p.hashIn = hashIn
		p.progress = mergedOut

		go proxy(walkOut, hashOut, mergedIn)
	} else {
		closed := make(chan engine.FileProgress)
		close(closed)
		p.progress = closed
	}

	return p
}

// OnProgress queues a file start (or full progress) event.
func (p *Pipeline) OnProgress(fp engine.FileProgress) {
	if p.enabled {
		p.walkIn <- fp
	}
}

// OnHashProgress queues a raw byte count.
func (p *Pipeline) OnHashProgress(hp engine.HashProgress) {
	if p.enabled {
		p.hashIn <- hp
	}
}

// OnWarning queues a warning.
func (p *Pipeline) OnWarning(e engine.FileProcessEntry) {
	p.mark(e)
	p.warningIn <- e
}

// OnError queues an error.
func (p *Pipeline) OnError(e engine.FileProcessEntry) {
	p.mark(e)
	p.errorIn <- e
}

func (p *Pipeline) mark(e engine.FileProcessEntry) {
	if p.enabled {
		p.walkIn <- engine.FileProgress{Path: e.Path, Anomaly: true}
	}
}

// OnComplete queues the run result.
func (p *Pipeline) OnComplete(r engine.Result) {
	p.completeIn <- r
}

// OnCensus records the census totals.
func (p *Pipeline) OnCensus(files, bytes int64) {
	p.totalFiles.Store(files)
	p.totalBytes.Store(bytes)
}

// Census returns the totals recorded by OnCensus, or zeros.
func (p *Pipeline) Census() (files, bytes int64) {
	return p.totalFiles.Load(), p.totalBytes.Load()
}

// Close ends the event streams. The worker calls it after Process returns;
// no Sink method may be called afterwards. Each output channel closes once
// its buffered events are drained.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		if p.enabled {
			close(p.walkIn)
			close(p.hashIn)
		}
		close(p.warningIn)
		close(p.errorIn)
		close(p.completeIn)
	})
}

// Progress returns the merged progress stream.
func (p *Pipeline) Progress() <-chan engine.FileProgress { return p.progress }

// Warnings returns the warning stream.
func (p *Pipeline) Warnings() <-chan engine.FileProcessEntry { return p.warnings }

// Errors returns the error stream.
func (p *Pipeline) Errors() <-chan engine.FileProcessEntry { return p.errors }

// Complete returns the stream carrying the run result.
func (p *Pipeline) Complete() <-chan engine.Result { return p.complete }

// proxy merges file starts and hash byte counts. A byte count for a file
// whose start has not arrived yet waits for it; counts for earlier files
// are dropped. Anomaly markers pass through in order.
func proxy(walk <-chan engine.FileProgress, hash <-chan engine.HashProgress, out chan<- engine.FileProgress) {
	defer close(out)

	var current engine.FileProgress
	publishStart := func(fp engine.FileProgress) {
		if !fp.Anomaly {
			current = fp
		}
		out <- fp
	}

	for walk != nil || hash != nil {
		select {
		case fp, ok := <-walk:
			if !ok {
				walk = nil
				continue
			}
			publishStart(fp)

		case hp, ok := <-hash:
			if !ok {
				hash = nil
				continue
			}
			for hp.Seq > current.Seq && walk != nil {
				fp, ok := <-walk
				if !ok {
					walk = nil
					break
				}
				publishStart(fp)
			}
			if hp.Seq != current.Seq {
				continue
			}
			out <- engine.FileProgress{
				Path:           current.Path,
				Size:           current.Size,
				BytesProcessed: hp.BytesProcessed,
				Seq:            current.Seq,
			}
		}
	}
}
