package techdata

import (
	"errors"

	"github.com/emlab/techdata/internal/engine"
	"github.com/emlab/techdata/internal/gitsync"
	"github.com/emlab/techdata/internal/results"
)

// ErrNotFound is returned (wrapped with key context) when a queried key
// tuple or configuration key is absent.
var ErrNotFound = errors.New("not found")

// SyncError indicates that preparing the workflow checkout failed: a
// version-control operation failed, or the requested version conflicts with
// the checkout already present on disk.
type SyncError = gitsync.SyncError

// RunError indicates that the external workflow engine exited non-zero.
// Output holds the combined stdout/stderr captured from the run.
type RunError = engine.RunError

// ParseError indicates that output files were missing or malformed after a
// successful run.
type ParseError = results.ParseError
