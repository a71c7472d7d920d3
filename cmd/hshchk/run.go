package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hshchk/cmd/hshchk/tui"
	"github.com/jamesainslie/hshchk/pkg/hshchk/cache"
	"github.com/jamesainslie/hshchk/pkg/hshchk/config"
	"github.com/jamesainslie/hshchk/pkg/hshchk/digest"
	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
	"github.com/jamesainslie/hshchk/pkg/hshchk/logging"
	"github.com/jamesainslie/hshchk/pkg/hshchk/manifest"
	"github.com/jamesainslie/hshchk/pkg/hshchk/metrics"
	"github.com/jamesainslie/hshchk/pkg/hshchk/output"
	"github.com/jamesainslie/hshchk/pkg/hshchk/progress"
	"github.com/jamesainslie/hshchk/pkg/hshchk/report"
)

// outcome is what the worker goroutine hands back.
type outcome struct {
	result engine.Result
	err    error
}

// runCheck creates or verifies the manifest of one directory.
func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return usageError(err)
	}

	runID := uuid.New().String()
	if err := initLogging(cfg, runID); err != nil {
		return usageError(err)
	}
	defer logging.Close()
	log := logging.Get("cli")

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return &exitErr{code: exitUsage, msg: "The specified directory doesn't exist."}
	}

	opts, err := buildOptions(cfg, dir)
	if err != nil {
		return usageError(err)
	}

	if cfg.Cache.Enabled {
		c, err := cache.Open(cfg.CachePath())
		if err != nil {
			// The run works without a cache, only slower.
			log.Warn("cache unavailable", "path", cfg.CachePath(), "error", err)
			printVerbose("cache unavailable: %v", err)
		} else {
			defer c.Close()
			opts.Cache = c
		}
	}

	proc, err := engine.New(opts)
	if err != nil {
		return usageError(err)
	}
	log.Info("starting", "root", proc.Root(), "mode", proc.ProcessType(), "algorithm", proc.Algorithm(), "manifest", proc.ManifestPath())
	printVerbose("%s %s using %s", proc.ProcessType(), proc.Root(), proc.ManifestPath())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var o outcome
	var entries []engine.FileProcessEntry
	if cfg.Interactive && !cfg.Silent && output.IsTerminal(os.Stdout) {
		o, entries = runInteractive(ctx, proc)
	} else {
		o, entries = runPlain(ctx, proc, cfg)
	}

	writeArtifacts(cfg, runID, proc, o.result, entries)
	return resultError(o.result, o.err)
}

// initLogging starts file logging with the run id attached to every record.
func initLogging(cfg *config.Config, runID string) error {
	lc, err := cfg.LoggingConfig()
	if err != nil {
		return err
	}
	if getVerbose() {
		lc.ConsoleLevel = "debug"
	}
	lc.Fields = []interface{}{"run_id", runID}
	if err := logging.Init(lc); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

// buildOptions converts the merged configuration into engine options.
func buildOptions(cfg *config.Config, dir string) (engine.Options, error) {
	opts := engine.DefaultOptions(dir)

	alg, err := digest.ParseAlgorithm(cfg.Algorithm)
	if err != nil {
		return opts, err
	}
	opts.Algorithm = alg

	if viper.GetBool("hc") {
		opts.Format = manifest.HashCheck
	} else {
		f, err := manifest.ParseFormat(cfg.Format)
		if err != nil {
			return opts, err
		}
		opts.Format = f
	}

	if opts.BufferSize, err = cfg.BufferBytes(); err != nil {
		return opts, err
	}
	if opts.ProgressBlockSize, err = cfg.ProgressBlockBytes(); err != nil {
		return opts, err
	}

	opts.ForceCreate = forceCreate
	opts.ReportExtra = cfg.ReportExtra
	opts.SizeOnly = cfg.SizeOnly
	opts.Match = cfg.Match
	opts.Ignore = cfg.Ignore
	opts.IgnoreGlobs = cfg.IgnoreGlobs
	opts.Census = cfg.Count || cfg.Interactive
	return opts, nil
}

// startWorker runs the processor on its own goroutine and closes the
// pipeline when it returns.
func startWorker(ctx context.Context, proc *engine.Processor, p *progress.Pipeline) <-chan outcome {
	done := make(chan outcome, 1)
	go func() {
		result, err := proc.Process(ctx)
		p.Close()
		done <- outcome{result: result, err: err}
	}()
	return done
}

func runPlain(ctx context.Context, proc *engine.Processor, cfg *config.Config) (outcome, []engine.FileProcessEntry) {
	p := progress.New(!cfg.Silent)
	proc.SetSink(p)

	pr := &presenter{
		lines: output.New(os.Stdout, os.Stderr,
			output.WithRefreshInterval(cfg.RefreshInterval),
			output.WithColor(output.IsTerminal(os.Stderr))),
		silent: cfg.Silent,
	}

	done := startWorker(ctx, proc, p)
	pr.run(p, proc.ProcessType())
	return <-done, pr.entries
}

func runInteractive(ctx context.Context, proc *engine.Processor) (outcome, []engine.FileProcessEntry) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := progress.New(true)
	proc.SetSink(p)
	done := startWorker(ctx, proc, p)

	entries, err := tui.Run(tui.Options{
		Root:        proc.Root(),
		ProcessType: proc.ProcessType(),
		Algorithm:   proc.Algorithm().String(),
		Pipeline:    p,
		Cancel:      cancel,
	})
	if err != nil {
		logging.Get("cli").Error("interactive view failed", "error", err)
		cancel()
	}
	return <-done, entries
}

// writeArtifacts writes the report and metrics files. Failures are printed
// but do not change the run result.
func writeArtifacts(cfg *config.Config, runID string, proc *engine.Processor, result engine.Result, entries []engine.FileProcessEntry) {
	log := logging.Get("cli")

	if cfg.Report.Path != "" {
		r := report.New(runID, proc, proc.Algorithm().String(), proc.Format().String(), result, entries)
		if err := report.WriteFile(cfg.Report.Path, cfg.Report.Format, r); err != nil {
			log.Error("report failed", "path", cfg.Report.Path, "error", err)
			printError("%v", err)
		}
	}

	if cfg.MetricsFile != "" {
		m := metrics.New()
		m.Observe(proc.Root(), proc.ProcessType(), proc.Algorithm().String(), result, proc.Stats())
		if err := m.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Error("metrics failed", "path", cfg.MetricsFile, "error", err)
			printError("%v", err)
		}
	}
}
