package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunner_Success(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir, "/bin/sh", "-c", "echo building targets; mkdir -p outputs")

	output, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, output, "building targets")
	assert.DirExists(t, filepath.Join(dir, "outputs"))
}

func TestRunner_NonZeroExit(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir, "/bin/sh", "-c", "echo missing input file >&2; exit 3")

	output, err := r.Run(context.Background())
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, 3, runErr.ExitCode)
	assert.Contains(t, runErr.Output, "missing input file")
	assert.Contains(t, output, "missing input file")
}

func TestRunner_CombinedOutputOrder(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir, "/bin/sh", "-c", "echo to stdout; echo to stderr >&2")

	output, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, output, "to stdout")
	assert.Contains(t, output, "to stderr")
}

func TestRunner_MissingBinary(t *testing.T) {
	r := NewRunner(t.TempDir(), "definitely-not-a-real-engine")

	_, err := r.Run(context.Background())
	require.Error(t, err)

	var runErr *RunError
	require.True(t, errors.As(err, &runErr))
	assert.Equal(t, -1, runErr.ExitCode)
}

func TestRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	r := NewRunner(dir, "/bin/sh", "-c", "pwd > where.txt")

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "where.txt"))
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.Base(resolved))
}
