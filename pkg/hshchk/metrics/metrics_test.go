package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

func observed(t *testing.T) *Recorder {
	t.Helper()
	started := time.Unix(1700000000, 0)
	r := New()
	r.Observe("/data", engine.Verify, "SHA1", engine.Error, engine.Stats{
		Started:        started,
		Finished:       started.Add(2 * time.Second),
		FilesVisited:   5,
		FilesProcessed: 4,
		FilesHashed:    4,
		BytesHashed:    1024,
		Anomalies:      map[engine.FileState]int{engine.Missing: 2},
	})
	return r
}

func TestObserve(t *testing.T) {
	r := observed(t)
	labels := prometheus.Labels{"root": "/data", "mode": "Verify", "algorithm": "SHA1"}

	assert.Equal(t, 4.0, testutil.ToFloat64(r.filesProcessed.With(labels)))
	assert.Equal(t, 1024.0, testutil.ToFloat64(r.bytesHashed.With(labels)))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.duration.With(labels)))
	assert.Equal(t, 1700000002.0, testutil.ToFloat64(r.lastRun.With(labels)))

	anomalies := r.anomalies.MustCurryWith(labels)
	assert.Equal(t, 2.0, testutil.ToFloat64(anomalies.WithLabelValues("Missing")))
	assert.Equal(t, 0.0, testutil.ToFloat64(anomalies.WithLabelValues("IncorrectHash")))

	result := r.result.MustCurryWith(labels)
	assert.Equal(t, 1.0, testutil.ToFloat64(result.WithLabelValues("Error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(result.WithLabelValues("Success")))
}

func TestWriteTextfile(t *testing.T) {
	r := observed(t)
	path := filepath.Join(t.TempDir(), "hshchk.prom")

	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "# TYPE hshchk_files_processed gauge")
	assert.Contains(t, text, `hshchk_run_result{algorithm="SHA1",mode="Verify",result="Error",root="/data"} 1`)
}

func TestWriteTextfileBadPath(t *testing.T) {
	r := observed(t)
	err := r.WriteTextfile(filepath.Join(t.TempDir(), "missing", "hshchk.prom"))
	assert.Error(t, err)
}
