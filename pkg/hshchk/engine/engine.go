// Package engine creates and verifies directory manifests.
//
// A Processor selects its mode when it is built: if the root already holds a
// manifest for any supported algorithm it verifies against it, otherwise it
// creates one. Process walks the tree once on the calling goroutine and
// reports anomalies, progress and the final result through a Sink.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jamesainslie/hshchk/pkg/hshchk/digest"
	"github.com/jamesainslie/hshchk/pkg/hshchk/filter"
	"github.com/jamesainslie/hshchk/pkg/hshchk/logging"
	"github.com/jamesainslie/hshchk/pkg/hshchk/manifest"
	"github.com/jamesainslie/hshchk/pkg/hshchk/walker"
)

// Errors returned for fatal conditions.
var (
	ErrNotDirectory = errors.New("not a directory")
	ErrAlreadyRun   = errors.New("processor already ran")
)

// Processor runs one create or verify pass over a directory.
// It is not safe for concurrent use and runs at most once.
type Processor struct {
	opts Options
	log  *logging.Logger

	root         string
	alg          digest.Algorithm
	format       manifest.Format
	processType  ProcessType
	manifestPath string
	selfName     string
	filter       *filter.Filter

	sink     Sink
	hashSink HashProgressSink

	manifest  *manifest.Manifest
	seq       uint64
	processed bool
	errors    int
	ran       bool
	stats     Stats
}

// New validates opts, resolves the root and selects the mode.
func New(opts Options) (*Processor, error) {
	if !opts.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: %s", digest.ErrUnknownAlgorithm, opts.Algorithm)
	}

	root, err := CanonicalRoot(opts.Root)
	if err != nil {
		return nil, err
	}

	flt, err := filter.New(
		filter.WithRoot(root),
		filter.WithMatch(opts.Match),
		filter.WithIgnore(opts.Ignore),
		filter.WithIgnoreGlobs(opts.IgnoreGlobs...),
	)
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logging.Get("engine")
	}

	p := &Processor{
		opts:        opts,
		log:         log,
		root:        root,
		alg:         opts.Algorithm,
		format:      opts.Format,
		processType: Create,
		filter:      flt,
		stats:       Stats{Anomalies: make(map[FileState]int)},
	}

	if !opts.ForceCreate {
		if alg, format, ok := probeManifest(root, opts.Algorithm, opts.Format); ok {
			p.alg = alg
			p.format = format
			p.processType = Verify
		}
	}
	p.manifestPath = filepath.Join(root, manifest.FileName(p.alg, p.format))
	p.selfName = selfExclusion(root, opts.Executable)

	log.Debug("mode selected",
		"root", root,
		"mode", p.processType,
		"algorithm", p.alg,
		"format", p.format,
		"manifest", p.manifestPath)

	return p, nil
}

// CanonicalRoot returns the absolute, symlink-free form of root, which must
// be a directory.
func CanonicalRoot(root string) (string, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, resolved)
	}
	return resolved, nil
}

// probeManifest looks for an existing manifest: the requested algorithm in
// the requested format, then in the other format, then every algorithm in
// enumeration order in both formats.
func probeManifest(root string, alg digest.Algorithm, format manifest.Format) (digest.Algorithm, manifest.Format, bool) {
	type candidate struct {
		alg    digest.Algorithm
		format manifest.Format
	}

	candidates := []candidate{{alg, format}}
	for _, f := range manifest.Formats() {
		if f != format {
			candidates = append(candidates, candidate{alg, f})
		}
	}
	for _, a := range digest.Algorithms() {
		if a == alg {
			continue
		}
		for _, f := range manifest.Formats() {
			candidates = append(candidates, candidate{a, f})
		}
	}

	for _, c := range candidates {
		info, err := os.Stat(filepath.Join(root, manifest.FileName(c.alg, c.format)))
		if err == nil && info.Mode().IsRegular() {
			return c.alg, c.format, true
		}
	}
	return alg, format, false
}

// selfExclusion returns the base name of the running program when it lives
// directly in root, or "".
func selfExclusion(root, executable string) string {
	if executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return ""
		}
		executable = exe
	}
	if resolved, err := filepath.EvalSymlinks(executable); err == nil {
		executable = resolved
	}
	if filepath.Dir(executable) != root {
		return ""
	}
	return filepath.Base(executable)
}

// ProcessType returns the selected mode.
func (p *Processor) ProcessType() ProcessType {
	return p.processType
}

// Algorithm returns the algorithm in effect, which may differ from the
// requested one in verify mode.
func (p *Processor) Algorithm() digest.Algorithm {
	return p.alg
}

// Format returns the manifest format in effect.
func (p *Processor) Format() manifest.Format {
	return p.format
}

// Root returns the canonical root directory.
func (p *Processor) Root() string {
	return p.root
}

// ManifestPath returns the path of the manifest read or written.
func (p *Processor) ManifestPath() string {
	return p.manifestPath
}

// Stats returns run statistics. It is complete once Process returns.
func (p *Processor) Stats() Stats {
	s := p.stats
	s.Anomalies = make(map[FileState]int, len(p.stats.Anomalies))
	for k, v := range p.stats.Anomalies {
		s.Anomalies[k] = v
	}
	return s
}

// SetSink registers the event sink. It must be called before Process.
func (p *Processor) SetSink(s Sink) {
	p.sink = s
	p.hashSink, _ = s.(HashProgressSink)
}

// Process runs the pass. The returned error is non-nil only for fatal
// conditions, in which case the result is Error. Cancel ctx to stop the run;
// the result is then Canceled and nothing is written.
func (p *Processor) Process(ctx context.Context) (Result, error) {
	if p.ran {
		return Error, ErrAlreadyRun
	}
	p.ran = true
	p.stats.Started = time.Now()

	result, err := p.run(ctx)

	p.stats.Finished = time.Now()
	if err != nil {
		p.log.Error("run failed", "root", p.root, "error", err)
	} else {
		p.log.Info("run finished",
			"root", p.root,
			"mode", p.processType,
			"result", result,
			"files", p.stats.FilesProcessed,
			"errors", p.errors,
			"duration", p.stats.Duration())
	}

	if p.sink != nil {
		p.sink.OnComplete(result)
	}
	return result, err
}

func (p *Processor) run(ctx context.Context) (Result, error) {
	if p.processType == Verify {
		m, format, err := manifest.LoadFile(p.manifestPath)
		if err != nil {
			return Error, err
		}
		p.manifest = m
		p.format = format
	} else {
		p.manifest = manifest.New()
	}

	if p.opts.Census {
		p.census(ctx)
	}

	p.log.Info("run started", "root", p.root, "mode", p.processType, "algorithm", p.alg)

	err := walker.Walk(ctx, p.root, func(path string, _ fs.DirEntry) {
		p.processFile(ctx, path)
	}, walker.WithErrorHandler(p.walkError))
	if err != nil {
		return Error, err
	}

	if ctx.Err() != nil {
		p.discardCache()
		return Canceled, nil
	}

	if p.processType == Create {
		return p.finishCreate()
	}
	return p.finishVerify(), nil
}

func (p *Processor) census(ctx context.Context) {
	totals, err := walker.Census(ctx, p.root)
	if err != nil {
		p.log.Warn("census failed", "root", p.root, "error", err)
		return
	}
	p.stats.TotalFiles = totals.Files
	p.stats.TotalBytes = totals.Bytes
	if cs, ok := p.sink.(CensusSink); ok {
		cs.OnCensus(totals.Files, totals.Bytes)
	}
}

func (p *Processor) finishCreate() (Result, error) {
	if p.errors > 0 {
		p.discardCache()
		return Error, nil
	}
	if p.manifest.IsEmpty() {
		p.discardCache()
		return NoFilesProcessed, nil
	}
	if err := p.manifest.SaveFile(p.manifestPath, p.format); err != nil {
		p.discardCache()
		return Error, err
	}
	if p.opts.Cache != nil {
		if err := p.opts.Cache.Flush(p.root); err != nil {
			p.log.Warn("cache update failed", "error", err)
		}
	}
	return Success, nil
}

func (p *Processor) finishVerify() Result {
	for _, rel := range p.manifest.Paths() {
		if p.filter.Allow(filepath.Join(p.root, rel)) {
			p.fail(FileProcessEntry{Path: rel, State: Missing})
		}
	}

	switch {
	case p.errors > 0:
		return Error
	case !p.processed:
		return NoFilesProcessed
	default:
		return Success
	}
}

func (p *Processor) discardCache() {
	if p.opts.Cache != nil {
		p.opts.Cache.Discard(p.root)
	}
}

// processFile applies the per-file decision to one walked file.
func (p *Processor) processFile(ctx context.Context, path string) {
	p.stats.FilesVisited++

	if path == p.manifestPath {
		return
	}

	rel, err := filepath.Rel(p.root, path)
	if err != nil {
		rel = path
	}

	if !utf8.ValidString(path) {
		p.warn(FileProcessEntry{Path: strings.ToValidUTF8(rel, "\uFFFD"), State: InvalidEncoding})
		return
	}

	if !p.filter.Allow(path) {
		return
	}

	entry, tracked := p.manifest.Get(rel)

	info, err := os.Stat(path)
	if err != nil {
		p.untrack(rel, tracked)
		p.fail(FileProcessEntry{Path: rel, State: IOError, Err: unwrapPathError(err)})
		return
	}
	size := uint64(info.Size())

	if tracked && entry.HasSize() && *entry.Size != size {
		p.untrack(rel, tracked)
		p.fail(FileProcessEntry{Path: rel, State: IncorrectSize})
		return
	}

	if !tracked {
		if p.selfName != "" && rel == p.selfName {
			return
		}
		if p.processType == Verify {
			if p.opts.ReportExtra {
				p.warn(FileProcessEntry{Path: rel, State: Extra})
			}
			return
		}
	}

	p.seq++
	if p.sink != nil {
		p.sink.OnProgress(FileProgress{Path: rel, Size: size, Seq: p.seq})
	}

	var sum string
	if p.processType == Create || !p.opts.SizeOnly {
		sum, err = p.digest(ctx, path, rel, size, info.ModTime())
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.untrack(rel, tracked)
			p.fail(FileProcessEntry{Path: rel, State: IOError, Err: unwrapPathError(err)})
			return
		}
	}

	if p.processType == Create {
		p.manifest.Add(manifest.Entry{
			Path:   rel,
			Size:   manifest.SizeOf(size),
			Digest: sum,
			Binary: true,
		})
	} else {
		if !p.opts.SizeOnly && entry.Digest != sum {
			p.fail(FileProcessEntry{Path: rel, State: IncorrectHash})
		}
		p.manifest.Remove(rel)
	}

	p.processed = true
	p.stats.FilesProcessed++
}

// digest hashes path, consulting the cache in create mode. A forced create
// rehashes every file and only refreshes the cache.
func (p *Processor) digest(ctx context.Context, path, rel string, size uint64, mtime time.Time) (string, error) {
	useCache := p.processType == Create && p.opts.Cache != nil
	cacheKey := filepath.ToSlash(rel)
	if useCache && !p.opts.ForceCreate {
		if sum, ok := p.opts.Cache.Lookup(p.root, cacheKey, p.alg.String(), int64(size), mtime); ok {
			p.stats.CacheHits++
			return sum, nil
		}
	}

	opts := []digest.Option{digest.WithBufferSize(p.opts.BufferSize)}
	if p.sink != nil {
		block := p.opts.ProgressBlockSize
		if block == 0 {
			block = digest.DefaultProgressBlockSize
		}
		opts = append(opts, digest.WithProgressBlockSize(p.progressFunc(rel, size), block))
	}

	fh, err := digest.Open(path, p.alg, opts...)
	if err != nil {
		return "", err
	}
	defer fh.Close()

	err = fh.Compute(ctx)
	p.stats.BytesHashed += fh.BytesProcessed()
	if err != nil {
		return "", err
	}
	sum := fh.Digest()
	p.stats.FilesHashed++

	if useCache {
		p.opts.Cache.Record(p.root, cacheKey, p.alg.String(), int64(size), mtime, sum)
	}
	return sum, nil
}

func (p *Processor) progressFunc(rel string, size uint64) digest.ProgressFunc {
	seq := p.seq
	if p.hashSink != nil {
		return func(n uint64) {
			p.hashSink.OnHashProgress(HashProgress{Seq: seq, BytesProcessed: n})
		}
	}
	return func(n uint64) {
		p.sink.OnProgress(FileProgress{Path: rel, Size: size, BytesProcessed: n, Seq: seq})
	}
}

// untrack drops a visited verify entry so it is not later reported missing.
func (p *Processor) untrack(rel string, tracked bool) {
	if tracked && p.processType == Verify {
		p.manifest.Remove(rel)
	}
}

func (p *Processor) walkError(path string, err error) {
	rel, relErr := filepath.Rel(p.root, path)
	if relErr != nil {
		rel = path
	}
	if !p.filter.Allow(path) {
		return
	}
	p.fail(FileProcessEntry{Path: rel, State: IOError, Err: unwrapPathError(err)})
}

func (p *Processor) warn(e FileProcessEntry) {
	p.stats.Anomalies[e.State]++
	p.log.Debug("warning", "path", e.Path, "state", e.State)
	if p.sink != nil {
		p.sink.OnWarning(e)
	}
}

func (p *Processor) fail(e FileProcessEntry) {
	p.errors++
	p.stats.Anomalies[e.State]++
	p.log.Debug("error", "path", e.Path, "state", e.Describe())
	if p.sink != nil {
		p.sink.OnError(e)
	}
}

// unwrapPathError strips the path from fs errors since events carry it.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
