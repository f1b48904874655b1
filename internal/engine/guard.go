package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-yaml"

	"github.com/emlab/techdata/internal/fileutil"
	"github.com/emlab/techdata/internal/logger"
)

const (
	// RecordFileName is the marker recording which configuration produced
	// the current output.
	RecordFileName = "__run_record.yaml"

	// OutputsDirName is where the external workflow writes its tables.
	OutputsDirName = "outputs"
)

// Record is the persisted snapshot of the last successful run.
type Record struct {
	// Config is the canonical serialization of the effective configuration
	// the run was performed with.
	Config string `mapstructure:"config"`

	// Revision is the checkout revision at run time.
	Revision string `mapstructure:"revision"`

	// CreatedAt is the RFC3339 timestamp of the run.
	CreatedAt string `mapstructure:"createdAt"`
}

// Guard decides whether cached output in a checkout directory is still valid
// for a given effective configuration.
type Guard struct {
	dir string
}

// NewGuard creates a guard for the given checkout directory.
func NewGuard(dir string) *Guard {
	return &Guard{dir: dir}
}

// OutputsDir returns the outputs directory of the checkout.
func (g *Guard) OutputsDir() string {
	return filepath.Join(g.dir, OutputsDirName)
}

func (g *Guard) recordPath() string {
	return filepath.Join(g.dir, RecordFileName)
}

// NeedsRun reports whether the engine must be invoked for the given
// configuration. Output is reused only when the recorded configuration
// matches byte-for-byte and output files are present; any inconsistency
// counts as stale.
func (g *Guard) NeedsRun(ctx context.Context, configBytes []byte) bool {
	record, err := g.ReadRecord()
	if err != nil {
		logger.Debug(ctx, "Run record unreadable, treating output as stale", "err", err)
		return true
	}
	if record == nil {
		return true
	}
	if record.Config != string(configBytes) {
		logger.Info(ctx, "Configuration changed since last run", "dir", g.dir)
		return true
	}
	if !g.hasOutput() {
		logger.Info(ctx, "Run record present but output missing", "dir", g.dir)
		return true
	}
	return false
}

// hasOutput returns true if the outputs directory contains at least one file.
func (g *Guard) hasOutput() bool {
	entries, err := os.ReadDir(g.OutputsDir())
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			return true
		}
	}
	return false
}

// ReadRecord loads the run record, or nil if none exists.
func (g *Guard) ReadRecord() (*Record, error) {
	path := g.recordPath()
	if !fileutil.FileExists(path) {
		return nil, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read run record %q: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode run record %q: %w", path, err)
	}
	record := new(Record)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: record,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode run record %q: %w", path, err)
	}
	return record, nil
}

// Invalidate removes stale output and the run record, so a failed or
// interrupted run can never be mistaken for valid cached output.
func (g *Guard) Invalidate(ctx context.Context) error {
	logger.Debug(ctx, "Clearing stale output", "dir", g.OutputsDir())
	if err := os.RemoveAll(g.OutputsDir()); err != nil {
		return fmt.Errorf("failed to remove outputs %q: %w", g.OutputsDir(), err)
	}
	if err := os.Remove(g.recordPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove run record %q: %w", g.recordPath(), err)
	}
	return nil
}

// Commit writes a new run record for a successful run with the given
// configuration and checkout revision.
func (g *Guard) Commit(configBytes []byte, revision string) error {
	record := map[string]any{
		"config":    string(configBytes),
		"revision":  revision,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
	}
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}
	if err := os.WriteFile(g.recordPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write run record %q: %w", g.recordPath(), err)
	}
	return nil
}
