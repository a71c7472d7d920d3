package main

import (
	"fmt"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
	"github.com/jamesainslie/hshchk/pkg/hshchk/output"
	"github.com/jamesainslie/hshchk/pkg/hshchk/progress"
)

// presenter renders pipeline events with a LineWriter.
type presenter struct {
	lines  *output.LineWriter
	silent bool

	// entries collects every warning and error in arrival order.
	entries []engine.FileProcessEntry
}

// run consumes events until the worker closes the pipeline, then prints the
// result line unless silent. A canceled run only clears the line.
func (pr *presenter) run(p *progress.Pipeline, processType engine.ProcessType) {
	progressCh := p.Progress()
	warnings := p.Warnings()
	errs := p.Errors()

	if !pr.silent {
		pr.lines.WriteInit()
	}

	var current engine.FileProgress
	skipProcessed := false

	for progressCh != nil || warnings != nil || errs != nil {
		select {
		case fp, ok := <-progressCh:
			if !ok {
				progressCh = nil
				continue
			}
			if fp.Anomaly {
				skipProcessed = true
				continue
			}
			if fp.BytesProcessed == 0 {
				if current.Path != "" && !skipProcessed {
					pr.lines.WriteProcessed(current.Path)
				}
				skipProcessed = false
				current = fp
			} else {
				current.BytesProcessed = fp.BytesProcessed
			}
			pr.lines.WriteProgress(current)

		case e, ok := <-warnings:
			if !ok {
				warnings = nil
				continue
			}
			pr.entries = append(pr.entries, e)
			pr.lines.WriteEntry(e)

		case e, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			pr.entries = append(pr.entries, e)
			pr.lines.WriteEntry(e)
		}
	}

	if pr.silent {
		return
	}
	if current.Path != "" && !skipProcessed {
		pr.lines.WriteProcessed(current.Path)
	}

	result, ok := <-p.Complete()
	if !ok {
		return
	}
	if result == engine.Canceled {
		pr.lines.ClearLine()
		return
	}
	pr.lines.WriteResult(fmt.Sprintf("%s result: %s", processType, result))
}
