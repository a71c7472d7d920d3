// Package output renders run progress as a single rewritten terminal line.
//
// Progress goes to stdout as " <path> (<size>; <pct> %; <speed> <unit>)\r",
// padded to the terminal width so a shorter line overwrites a longer one.
// Warnings and errors go to stderr as " <path> => <state>" and are never
// throttled.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rivo/uniseg"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

// DefaultRefreshInterval is the minimum time between throttled writes.
const DefaultRefreshInterval = 233 * time.Millisecond

const ellipsis = ".."

// LineWriter renders progress lines. It is not safe for concurrent use; the
// presentation loop owns it.
type LineWriter struct {
	out    io.Writer
	errOut io.Writer

	width    int
	interval time.Duration
	now      func() time.Time
	color    bool

	lastWrite time.Time
	last      engine.FileProgress
}

// Option configures a LineWriter.
type Option func(*LineWriter)

// WithWidth sets the terminal width in columns. One column is kept free so
// the cursor never wraps.
func WithWidth(columns int) Option {
	return func(w *LineWriter) {
		w.width = columns - 1
	}
}

// WithRefreshInterval sets the throttle interval.
func WithRefreshInterval(d time.Duration) Option {
	return func(w *LineWriter) {
		w.interval = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *LineWriter) {
		w.now = now
	}
}

// WithColor enables coloured warning and error lines.
func WithColor(enabled bool) Option {
	return func(w *LineWriter) {
		w.color = enabled
	}
}

// New creates a LineWriter. The width defaults to the terminal width of out,
// or DefaultWidth when out is not a terminal.
func New(out, errOut io.Writer, opts ...Option) *LineWriter {
	w := &LineWriter{
		out:      out,
		errOut:   errOut,
		width:    Width(out) - 1,
		interval: DefaultRefreshInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.width < 0 {
		w.width = 0
	}
	return w
}

// WriteInit prints the placeholder shown until the first file starts.
func (w *LineWriter) WriteInit() {
	fmt.Fprint(w.out, " Opening files...\r")
	w.lastWrite = w.now()
}

// WriteProgress renders fp if the refresh interval has passed. A size,
// percentage and speed suffix is added when fp advances the file shown by
// the previous write.
func (w *LineWriter) WriteProgress(fp engine.FileProgress) {
	now := w.now()
	elapsed := w.elapsed(now)
	if !w.due(elapsed) {
		return
	}

	info := ""
	if w.last.Path == fp.Path && fp.BytesProcessed > w.last.BytesProcessed {
		percent := uint64(100)
		if fp.Size > 0 {
			percent = fp.BytesProcessed * 100 / fp.Size
		}
		speed, unit := Speed(fp.BytesProcessed, w.last.BytesProcessed, elapsed)
		info = fmt.Sprintf(" (%s; %s %%; %s %s)",
			humanize.Comma(int64(fp.Size)),
			humanize.Comma(int64(percent)),
			humanize.Comma(int64(speed)),
			unit)
	}

	fmt.Fprintf(w.out, " %s\r", w.pad(w.fit(fp.Path, info)+info))
	w.lastWrite = now
	w.last = fp
}

// WriteProcessed shows path without a suffix, subject to the throttle.
func (w *LineWriter) WriteProcessed(path string) {
	now := w.now()
	if !w.due(w.elapsed(now)) {
		return
	}
	fmt.Fprintf(w.out, " %s\r", w.pad(w.fit(path, "")))
	w.lastWrite = now
	w.last = engine.FileProgress{Path: path}
}

// WriteEntry prints a warning or error on its own line.
func (w *LineWriter) WriteEntry(e engine.FileProcessEntry) {
	info := " => " + e.Describe()
	line := w.pad(w.fit(e.Path, info) + info)
	if w.color {
		style := ErrorStyle
		if e.State.IsWarning() {
			style = WarningStyle
		}
		line = style.Render(line)
	}
	fmt.Fprintf(w.errOut, " %s\r\n", line)
	w.lastWrite = w.now()
	w.last = engine.FileProgress{Path: e.Path}
}

// WriteResult prints the final summary line.
func (w *LineWriter) WriteResult(result string) {
	fmt.Fprintf(w.out, "%s\r\n", w.pad(result))
}

// ClearLine blanks the current line.
func (w *LineWriter) ClearLine() {
	fmt.Fprintf(w.out, "%s\r", w.pad(""))
}

func (w *LineWriter) elapsed(now time.Time) time.Duration {
	if w.lastWrite.IsZero() {
		return 0
	}
	return now.Sub(w.lastWrite)
}

func (w *LineWriter) due(elapsed time.Duration) bool {
	return w.lastWrite.IsZero() || elapsed > w.interval
}

// fit shortens path from the left so that path and info fit the width.
func (w *LineWriter) fit(path, info string) string {
	return TruncateLeft(path, w.width-len(info))
}

func (w *LineWriter) pad(line string) string {
	n := uniseg.GraphemeClusterCount(line)
	if n >= w.width {
		return line
	}
	return line + strings.Repeat(" ", w.width-n)
}

// TruncateLeft keeps the tail of s so that the result, prefixed with "..",
// is at most limit grapheme clusters long. Strings that already fit are
// returned unchanged.
func TruncateLeft(s string, limit int) string {
	n := uniseg.GraphemeClusterCount(s)
	if n <= limit {
		return s
	}
	skip := n - limit + len(ellipsis)
	if skip >= n {
		return ellipsis
	}

	g := uniseg.NewGraphemes(s)
	for i := 0; g.Next(); i++ {
		if i == skip {
			start, _ := g.Positions()
			return ellipsis + s[start:]
		}
	}
	return ellipsis
}
