// Package metrics exports run statistics in the Prometheus text format, for
// the node exporter textfile collector.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

// Recorder holds the gauges for one run on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	filesVisited   *prometheus.GaugeVec
	filesProcessed *prometheus.GaugeVec
	filesHashed    *prometheus.GaugeVec
	bytesHashed    *prometheus.GaugeVec
	cacheHits      *prometheus.GaugeVec
	anomalies      *prometheus.GaugeVec
	duration       *prometheus.GaugeVec
	result         *prometheus.GaugeVec
	lastRun        *prometheus.GaugeVec
}

var runLabels = []string{"root", "mode", "algorithm"}

// New creates a Recorder.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	gauge := func(name, help string, extra ...string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hshchk",
			Name:      name,
			Help:      help,
		}, append(append([]string{}, runLabels...), extra...))
	}

	return &Recorder{
		reg:            reg,
		filesVisited:   gauge("files_visited", "Files seen by the directory walk."),
		filesProcessed: gauge("files_processed", "Files added to or checked against the manifest."),
		filesHashed:    gauge("files_hashed", "Files whose content was hashed."),
		bytesHashed:    gauge("bytes_hashed", "Bytes read while hashing."),
		cacheHits:      gauge("cache_hits", "Digests taken from the cache instead of hashing."),
		anomalies:      gauge("anomalies", "Reported files by state.", "state"),
		duration:       gauge("run_duration_seconds", "Wall time of the run."),
		result:         gauge("run_result", "1 for the result of the run, 0 for the others.", "result"),
		lastRun:        gauge("last_run_timestamp_seconds", "Unix time the run finished."),
	}
}

// Registry returns the registry the gauges are registered on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Observe sets the gauges from a finished run.
func (r *Recorder) Observe(root string, mode engine.ProcessType, algorithm string, result engine.Result, stats engine.Stats) {
	labels := prometheus.Labels{"root": root, "mode": mode.String(), "algorithm": algorithm}

	r.filesVisited.With(labels).Set(float64(stats.FilesVisited))
	r.filesProcessed.With(labels).Set(float64(stats.FilesProcessed))
	r.filesHashed.With(labels).Set(float64(stats.FilesHashed))
	r.bytesHashed.With(labels).Set(float64(stats.BytesHashed))
	r.cacheHits.With(labels).Set(float64(stats.CacheHits))
	r.duration.With(labels).Set(stats.Duration().Seconds())
	if !stats.Finished.IsZero() {
		r.lastRun.With(labels).Set(float64(stats.Finished.Unix()))
	}

	for _, state := range engine.FileStates() {
		r.anomalies.MustCurryWith(labels).WithLabelValues(state.String()).Set(float64(stats.Anomalies[state]))
	}
	for _, res := range []engine.Result{engine.Success, engine.Error, engine.Canceled, engine.NoFilesProcessed} {
		v := 0.0
		if res == result {
			v = 1
		}
		r.result.MustCurryWith(labels).WithLabelValues(res.String()).Set(v)
	}
}

// WriteTextfile writes the registry to path in the text exposition format.
// The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}
