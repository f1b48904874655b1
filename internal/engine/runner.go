// Package engine invokes the external workflow engine and decides, via the
// run record, whether an invocation is necessary at all.
package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/emlab/techdata/internal/logger"
)

// Default engine invocation, matching what the external workflow documents.
const (
	DefaultCommand = "snakemake"
)

// DefaultArgs returns the default engine arguments for the given config file.
func DefaultArgs(configFile string) []string {
	return []string{"-j1", "--configfile", configFile}
}

// RunError indicates that the engine exited non-zero (or could not be
// started). Output holds the combined stdout/stderr captured from the run.
type RunError struct {
	Cmd      string
	ExitCode int
	Output   string
}

func (e *RunError) Error() string {
	return fmt.Sprintf("workflow engine %q exited with code %d", e.Cmd, e.ExitCode)
}

// Runner executes the engine as a subprocess in the checkout directory.
type Runner struct {
	dir  string
	cmd  string
	args []string
}

// NewRunner creates a runner for the given checkout directory and command.
func NewRunner(dir, cmd string, args ...string) *Runner {
	return &Runner{dir: dir, cmd: cmd, args: args}
}

// Run blocks until the engine finishes. Combined output is captured in full
// and kept for diagnostics, not streamed. A non-zero exit is fatal; the
// runner never retries, cleanup of partial output is the guard's job.
func (r *Runner) Run(ctx context.Context) (string, error) {
	cmdline := strings.Join(append([]string{r.cmd}, r.args...), " ")
	logger.Info(ctx, "Starting workflow engine", "cmd", cmdline, "dir", r.dir)

	cmd := exec.CommandContext(ctx, r.cmd, r.args...) //nolint:gosec
	cmd.Dir = r.dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// The process never started (e.g. binary not installed).
			return buf.String(), &RunError{
				Cmd:      cmdline,
				ExitCode: exitCode,
				Output:   err.Error(),
			}
		}
		return buf.String(), &RunError{
			Cmd:      cmdline,
			ExitCode: exitCode,
			Output:   buf.String(),
		}
	}

	logger.Info(ctx, "Workflow engine finished", "dir", r.dir)
	return buf.String(), nil
}
