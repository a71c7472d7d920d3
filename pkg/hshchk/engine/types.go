package engine

import (
	"fmt"
	"time"
)

// ProcessType is the mode of a run.
type ProcessType int

const (
	// Create builds a new manifest from the directory contents.
	Create ProcessType = iota
	// Verify checks the directory against an existing manifest.
	Verify
)

func (t ProcessType) String() string {
	switch t {
	case Create:
		return "Create"
	case Verify:
		return "Verify"
	default:
		return fmt.Sprintf("ProcessType(%d)", int(t))
	}
}

// Result is the outcome of a run.
type Result int

const (
	Success Result = iota
	Error
	Canceled
	NoFilesProcessed
)

func (r Result) String() string {
	switch r {
	case Success:
		return "Success"
	case Error:
		return "Error"
	case Canceled:
		return "Canceled"
	case NoFilesProcessed:
		return "NoFilesProcessed"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// FileState classifies a per-file anomaly.
type FileState int

const (
	Extra FileState = iota
	InvalidEncoding
	Missing
	IncorrectSize
	IncorrectHash
	IOError
)

// FileStates returns every state in declaration order.
func FileStates() []FileState {
	return []FileState{Extra, InvalidEncoding, Missing, IncorrectSize, IncorrectHash, IOError}
}

func (s FileState) String() string {
	switch s {
	case Extra:
		return "Extra"
	case InvalidEncoding:
		return "InvalidEncoding"
	case Missing:
		return "Missing"
	case IncorrectSize:
		return "IncorrectSize"
	case IncorrectHash:
		return "IncorrectHash"
	case IOError:
		return "IOError"
	default:
		return fmt.Sprintf("FileState(%d)", int(s))
	}
}

// IsWarning reports whether the state is reported as a warning rather than
// an error. Warnings do not affect the run result.
func (s FileState) IsWarning() bool {
	return s == Extra || s == InvalidEncoding
}

// FileProgress reports progress on the current file. BytesProcessed is zero
// for the event that starts a file.
type FileProgress struct {
	Path           string
	Size           uint64
	BytesProcessed uint64

	// Seq numbers files in visiting order, starting at 1.
	Seq uint64

	// Anomaly marks an event that only records, in stream order, that a
	// warning or error for Path was reported. It carries no progress.
	Anomaly bool
}

// HashProgress is a raw byte count for the file numbered Seq.
type HashProgress struct {
	Seq            uint64
	BytesProcessed uint64
}

// FileProcessEntry is one reported anomaly.
type FileProcessEntry struct {
	Path  string
	State FileState

	// Err holds the cause of an IOError.
	Err error
}

// Describe returns the state with the IOError cause, e.g. "IOError(permission denied)".
func (e FileProcessEntry) Describe() string {
	if e.State == IOError && e.Err != nil {
		return fmt.Sprintf("%s(%v)", e.State, e.Err)
	}
	return e.State.String()
}

// Sink receives run events. Methods are called from the goroutine running
// Process and must not block for long.
type Sink interface {
	OnProgress(FileProgress)
	OnWarning(FileProcessEntry)
	OnError(FileProcessEntry)
	OnComplete(Result)
}

// HashProgressSink is implemented by sinks that take raw hash progress
// separately from file start events. Without it, hash progress is delivered
// to OnProgress with the current path and size filled in.
type HashProgressSink interface {
	OnHashProgress(HashProgress)
}

// CensusSink is implemented by sinks that want the census totals.
type CensusSink interface {
	OnCensus(files, bytes int64)
}

// Stats summarizes a run.
type Stats struct {
	Started  time.Time
	Finished time.Time

	// Census totals, zero unless Options.Census is set.
	TotalFiles int64
	TotalBytes int64

	FilesVisited   int64
	FilesProcessed int64
	FilesHashed    int64
	CacheHits      int64
	BytesHashed    uint64

	Anomalies map[FileState]int
}

// Duration returns the run's wall time.
func (s Stats) Duration() time.Duration {
	if s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

// Errors returns the number of error-level anomalies.
func (s Stats) Errors() int {
	n := 0
	for state, count := range s.Anomalies {
		if !state.IsWarning() {
			n += count
		}
	}
	return n
}

// Warnings returns the number of warning-level anomalies.
func (s Stats) Warnings() int {
	n := 0
	for state, count := range s.Anomalies {
		if state.IsWarning() {
			n += count
		}
	}
	return n
}
