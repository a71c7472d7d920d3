package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestWriter(columns int) (*LineWriter, *bytes.Buffer, *bytes.Buffer, *fakeClock) {
	var out, errOut bytes.Buffer
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	w := New(&out, &errOut, WithWidth(columns), WithClock(clock.now))
	return w, &out, &errOut, clock
}

func TestTruncateLeft(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"fits", "abcdef", 10, "abcdef"},
		{"exact", "abcdef", 6, "abcdef"},
		{"shortened", "abcdefgh", 6, "..efgh"},
		{"too narrow", "ab", 1, ".."},
		{"negative limit", "abc", -3, ".."},
		{"combining marks", "a\u0301b\u0301c\u0301d\u0301", 3, "..d\u0301"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateLeft(tt.in, tt.limit))
		})
	}
}

func TestSpeed(t *testing.T) {
	tests := []struct {
		name     string
		current  uint64
		previous uint64
		elapsed  time.Duration
		want     uint64
		unit     string
	}{
		{"no time", 100, 0, 0, 0, UnitBytes},
		{"no progress", 100, 100, time.Second, 0, UnitBytes},
		{"bytes", 500, 0, time.Second, 500, UnitBytes},
		{"kilobytes", 4096, 2048, time.Second, 2, UnitKilobytes},
		{"megabytes", 3 << 20, 0, time.Second, 3, UnitMegabytes},
		{"gigabytes", 3 << 30, 0, time.Second, 3, UnitGigabytes},
		{"terabytes", 2 << 40, 0, time.Second, 2, UnitTerabytes},
		{"half second", 1000, 0, 500 * time.Millisecond, 1, UnitKilobytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unit := Speed(tt.current, tt.previous, tt.elapsed)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.unit, unit)
		})
	}
}

func TestLineWriterInit(t *testing.T) {
	w, out, _, _ := newTestWriter(41)
	w.WriteInit()
	assert.Equal(t, " Opening files...\r", out.String())
}

func TestLineWriterProgressThrottle(t *testing.T) {
	w, out, _, clock := newTestWriter(41)

	w.WriteProgress(engine.FileProgress{Path: "dir/file", Size: 1000, Seq: 1})
	assert.Equal(t, " dir/file"+strings.Repeat(" ", 32)+"\r", out.String())
	out.Reset()

	clock.advance(100 * time.Millisecond)
	w.WriteProgress(engine.FileProgress{Path: "dir/file", Size: 1000, BytesProcessed: 500, Seq: 1})
	assert.Empty(t, out.String(), "writes inside the refresh interval are dropped")

	clock.advance(200 * time.Millisecond)
	w.WriteProgress(engine.FileProgress{Path: "dir/file", Size: 1000, BytesProcessed: 500, Seq: 1})
	line := out.String()
	assert.True(t, strings.HasPrefix(line, " dir/file (1,000; 50 %; 1 KB/s)"), line)
	assert.True(t, strings.HasSuffix(line, "\r"))
	assert.Len(t, line, 1+40+1)
}

func TestLineWriterNewFileHasNoSuffix(t *testing.T) {
	w, out, _, clock := newTestWriter(41)

	w.WriteProgress(engine.FileProgress{Path: "a", Size: 10, Seq: 1})
	clock.advance(time.Second)
	w.WriteProgress(engine.FileProgress{Path: "b", Size: 10, BytesProcessed: 5, Seq: 2})

	lines := strings.Split(strings.TrimSuffix(out.String(), "\r"), "\r")
	assert.Len(t, lines, 2)
	assert.Equal(t, " b", strings.TrimRight(lines[1], " "))
}

func TestLineWriterProcessedTruncates(t *testing.T) {
	w, out, _, _ := newTestWriter(21)

	w.WriteProcessed("some/very/long/directory/name/file.txt")
	assert.Equal(t, " ..tory/name/file.txt\r", out.String())
}

func TestLineWriterEntry(t *testing.T) {
	w, out, errOut, _ := newTestWriter(41)

	w.WriteEntry(engine.FileProcessEntry{Path: "x", State: engine.IncorrectHash})
	assert.Empty(t, out.String())
	assert.Equal(t, " x => IncorrectHash"+strings.Repeat(" ", 22)+"\r\n", errOut.String())
}

func TestLineWriterEntryBypassesThrottle(t *testing.T) {
	w, _, errOut, _ := newTestWriter(41)

	w.WriteEntry(engine.FileProcessEntry{Path: "a", State: engine.Missing})
	w.WriteEntry(engine.FileProcessEntry{Path: "b", State: engine.Extra})
	assert.Equal(t, 2, strings.Count(errOut.String(), "\n"))
	assert.Contains(t, errOut.String(), " b => Extra")
}

func TestLineWriterResultAndClear(t *testing.T) {
	w, out, _, _ := newTestWriter(31)

	w.WriteResult("Verify result: Success")
	assert.Equal(t, "Verify result: Success"+strings.Repeat(" ", 8)+"\r\n", out.String())
	out.Reset()

	w.ClearLine()
	assert.Equal(t, strings.Repeat(" ", 30)+"\r", out.String())
}

func TestWidthNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, DefaultWidth, Width(&buf))
	assert.False(t, IsTerminal(&buf))
}
