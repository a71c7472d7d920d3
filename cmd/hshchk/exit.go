package main

import (
	"errors"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

// Process exit codes.
const (
	exitSuccess  = 0
	exitError    = 1
	exitCanceled = 2
	exitNoFiles  = 3
	exitUsage    = 4
)

// exitErr carries the process exit code for a failed run.
type exitErr struct {
	code int
	msg  string
	err  error
}

func (e *exitErr) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + " " + e.err.Error()
	}
}

func (e *exitErr) Unwrap() error { return e.err }

// resultError maps a run result to the error reported to the user. Success
// maps to nil.
func resultError(result engine.Result, err error) error {
	switch result {
	case engine.Success:
		return nil
	case engine.Canceled:
		return &exitErr{code: exitCanceled, msg: "The hash check process was canceled."}
	case engine.NoFilesProcessed:
		return &exitErr{code: exitNoFiles, msg: "No files were processed."}
	default:
		return &exitErr{code: exitError, msg: "The hash check process failed.", err: err}
	}
}

// usageError marks err as a setup failure.
func usageError(err error) error {
	return &exitErr{code: exitUsage, err: err}
}

// exitCode returns the process exit code for an Execute error. Errors not
// produced by a run, such as flag parsing errors, are usage errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var e *exitErr
	if errors.As(err, &e) {
		return e.code
	}
	return exitUsage
}
