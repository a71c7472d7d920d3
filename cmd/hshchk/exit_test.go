package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

func TestResultError(t *testing.T) {
	tests := []struct {
		result engine.Result
		err    error
		code   int
		msg    string
	}{
		{engine.Success, nil, exitSuccess, ""},
		{engine.Error, nil, exitError, "The hash check process failed."},
		{engine.Canceled, nil, exitCanceled, "The hash check process was canceled."},
		{engine.NoFilesProcessed, nil, exitNoFiles, "No files were processed."},
	}

	for _, tt := range tests {
		t.Run(tt.result.String(), func(t *testing.T) {
			err := resultError(tt.result, tt.err)
			assert.Equal(t, tt.code, exitCode(err))
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.msg)
		})
	}
}

func TestResultErrorWrapsFatal(t *testing.T) {
	cause := errors.New("manifest unreadable")
	err := resultError(engine.Error, cause)

	assert.Equal(t, exitError, exitCode(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "The hash check process failed. manifest unreadable", err.Error())
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUsage, exitCode(errors.New("unknown flag: --nope")))

	cause := errors.New("bad pattern")
	err := usageError(cause)
	assert.Equal(t, exitUsage, exitCode(err))
	assert.Equal(t, "bad pattern", err.Error())
	assert.Equal(t, exitUsage, exitCode(fmt.Errorf("wrapped: %w", err)))
}
