// Package media wraps the external media tools (ffmpeg, ffprobe) behind a
// structured interface: loudness, silence, and duration measurement plus
// the handful of encode operations the pipeline needs.
package media

import (
	"bytes"
	"context"
	"os/exec"
)

// ExecRunner runs external tools with exec.CommandContext, capturing both
// output streams. It is the only place the pipeline spawns processes.
type ExecRunner struct{}

// Run executes the named tool and returns captured stdout and stderr. The
// error is the raw process error; callers wrap it with context.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	// #nosec G204 -- tool names are package constants, arguments are built internally
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), err
}
