package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeOutput(t *testing.T, g *Guard) {
	t.Helper()
	require.NoError(t, os.MkdirAll(g.OutputsDir(), 0750))
	err := os.WriteFile(filepath.Join(g.OutputsDir(), "costs_2030.csv"), []byte("data"), 0600)
	require.NoError(t, err)
}

func TestGuard_NeedsRunWithoutRecord(t *testing.T) {
	g := NewGuard(t.TempDir())
	assert.True(t, g.NeedsRun(context.Background(), []byte("rate_inflation: 0.02\n")))
}

func TestGuard_SkipWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(t.TempDir())
	cfg := []byte("rate_inflation: 0.02\n")

	writeOutput(t, g)
	require.NoError(t, g.Commit(cfg, "abc123"))

	assert.False(t, g.NeedsRun(ctx, cfg))

	record, err := g.ReadRecord()
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, string(cfg), record.Config)
	assert.Equal(t, "abc123", record.Revision)
	assert.NotEmpty(t, record.CreatedAt)
}

func TestGuard_RerunOnConfigChange(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(t.TempDir())

	writeOutput(t, g)
	require.NoError(t, g.Commit([]byte("rate_inflation: 0.02\n"), "abc123"))

	assert.True(t, g.NeedsRun(ctx, []byte("rate_inflation: 0.03\n")))
}

func TestGuard_RerunWhenOutputMissing(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(t.TempDir())
	cfg := []byte("rate_inflation: 0.02\n")

	// Record exists but no output files: stale.
	require.NoError(t, g.Commit(cfg, "abc123"))
	assert.True(t, g.NeedsRun(ctx, cfg))
}

func TestGuard_RerunOnCorruptRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	g := NewGuard(dir)
	cfg := []byte("rate_inflation: 0.02\n")

	writeOutput(t, g)
	err := os.WriteFile(filepath.Join(dir, RecordFileName), []byte(":\n\t- junk"), 0600)
	require.NoError(t, err)

	assert.True(t, g.NeedsRun(ctx, cfg))
}

func TestGuard_Invalidate(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(t.TempDir())
	cfg := []byte("rate_inflation: 0.02\n")

	writeOutput(t, g)
	require.NoError(t, g.Commit(cfg, "abc123"))
	require.NoError(t, g.Invalidate(ctx))

	assert.NoDirExists(t, g.OutputsDir())
	record, err := g.ReadRecord()
	require.NoError(t, err)
	assert.Nil(t, record)

	// Invalidating an already-clean directory is fine.
	require.NoError(t, g.Invalidate(ctx))
}
