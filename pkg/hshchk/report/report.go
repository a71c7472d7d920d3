// Package report writes a machine- or human-readable summary of a run.
//
// Formatters are looked up by name from a registry:
//
//	formatter, err := report.Get("json")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, r); err != nil {
//	    return err
//	}
package report

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

// Anomaly is one reported file.
type Anomaly struct {
	Path    string `json:"path" yaml:"path"`
	State   string `json:"state" yaml:"state"`
	Warning bool   `json:"warning" yaml:"warning"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Totals holds the run counters.
type Totals struct {
	FilesVisited   int64  `json:"files_visited" yaml:"files_visited"`
	FilesProcessed int64  `json:"files_processed" yaml:"files_processed"`
	FilesHashed    int64  `json:"files_hashed" yaml:"files_hashed"`
	CacheHits      int64  `json:"cache_hits" yaml:"cache_hits"`
	BytesHashed    uint64 `json:"bytes_hashed" yaml:"bytes_hashed"`
	Errors         int    `json:"errors" yaml:"errors"`
	Warnings       int    `json:"warnings" yaml:"warnings"`

	// Census totals; zero when no census ran.
	TotalFiles int64 `json:"total_files,omitempty" yaml:"total_files,omitempty"`
	TotalBytes int64 `json:"total_bytes,omitempty" yaml:"total_bytes,omitempty"`
}

// Report describes one finished run.
type Report struct {
	RunID     string        `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Root      string        `json:"root" yaml:"root"`
	Mode      string        `json:"mode" yaml:"mode"`
	Algorithm string        `json:"algorithm" yaml:"algorithm"`
	Format    string        `json:"format" yaml:"format"`
	Manifest  string        `json:"manifest" yaml:"manifest"`
	Result    string        `json:"result" yaml:"result"`
	Started   time.Time     `json:"started" yaml:"started"`
	Duration  time.Duration `json:"-" yaml:"-"`
	Totals    Totals        `json:"totals" yaml:"totals"`
	Anomalies []Anomaly     `json:"anomalies" yaml:"anomalies"`
}

// Run is the view of a finished processor that a report needs.
type Run interface {
	ProcessType() engine.ProcessType
	Root() string
	ManifestPath() string
	Stats() engine.Stats
}

// New builds a report from a finished run and the anomalies it emitted, in
// emission order.
func New(runID string, run Run, algorithm, format string, result engine.Result, entries []engine.FileProcessEntry) *Report {
	stats := run.Stats()
	r := &Report{
		RunID:     runID,
		Root:      run.Root(),
		Mode:      run.ProcessType().String(),
		Algorithm: algorithm,
		Format:    format,
		Manifest:  run.ManifestPath(),
		Result:    result.String(),
		Started:   stats.Started,
		Duration:  stats.Duration(),
		Totals: Totals{
			FilesVisited:   stats.FilesVisited,
			FilesProcessed: stats.FilesProcessed,
			FilesHashed:    stats.FilesHashed,
			CacheHits:      stats.CacheHits,
			BytesHashed:    stats.BytesHashed,
			Errors:         stats.Errors(),
			Warnings:       stats.Warnings(),
			TotalFiles:     stats.TotalFiles,
			TotalBytes:     stats.TotalBytes,
		},
		Anomalies: make([]Anomaly, 0, len(entries)),
	}
	for _, e := range entries {
		a := Anomaly{
			Path:    e.Path,
			State:   e.State.String(),
			Warning: e.State.IsWarning(),
		}
		if e.Err != nil {
			a.Error = e.Err.Error()
		}
		r.Anomalies = append(r.Anomalies, a)
	}
	return r
}

// Formatter renders a report.
type Formatter interface {
	Format(w *bytes.Buffer, r *Report) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds or replaces a formatter.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown report format: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the default registry's names.
func Available() []string {
	return DefaultRegistry.Available()
}

// WriteFile renders r with the named formatter and writes it to path.
func WriteFile(path, format string, r *Report) error {
	formatter, err := Get(format)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, r); err != nil {
		return fmt.Errorf("formatting report: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
