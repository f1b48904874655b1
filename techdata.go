// Package techdata is a thin access wrapper around the PyPSA
// "technology-data" workflow. It fetches a pinned version of the workflow
// repository, overlays caller-supplied parameters on the workflow
// configuration, runs the external engine when needed, and answers point
// queries against the resulting cost tables.
//
// The actual computation is performed entirely by the external workflow;
// this package only orchestrates it. A Client owns one target directory;
// pointing concurrent Clients at the same directory is not supported.
package techdata

import (
	"context"
	"fmt"
	"os"

	"dario.cat/mergo"

	"github.com/emlab/techdata/internal/config"
	"github.com/emlab/techdata/internal/engine"
	"github.com/emlab/techdata/internal/gitsync"
	"github.com/emlab/techdata/internal/logger"
	"github.com/emlab/techdata/internal/results"
)

// DefaultRepository is the upstream workflow repository.
const DefaultRepository = "https://github.com/PyPSA/technology-data.git"

// VersionLatest selects the head of the default branch instead of a tag.
// Pinning to a specific tag is strongly recommended for reproducibility.
const VersionLatest = gitsync.VersionLatest

// Record is the data stored for one (year, technology, parameter) tuple.
type Record struct {
	Value              float64
	Unit               string
	Source             string
	FurtherDescription string
}

type options struct {
	Version    string
	Repository string
	Params     map[string]any
	EngineCmd  string
	EngineArgs []string
	Logger     logger.Logger
}

func defaultOptions() options {
	return options{
		Version:    VersionLatest,
		Repository: DefaultRepository,
		EngineCmd:  engine.DefaultCommand,
	}
}

// Option configures a Client.
type Option func(*options)

// WithVersion pins the workflow repository to a tag (e.g. "v0.6.2").
func WithVersion(version string) Option {
	return func(o *options) {
		o.Version = version
	}
}

// WithParams sets workflow parameters that override the workflow's defaults.
// Keys are not validated; unknown keys pass through to the engine.
func WithParams(params map[string]any) Option {
	return func(o *options) {
		o.Params = params
	}
}

// WithRepository overrides the workflow repository URL.
func WithRepository(repo string) Option {
	return func(o *options) {
		o.Repository = repo
	}
}

// WithEngine overrides the engine command. If args are given they replace
// the default arguments entirely.
func WithEngine(cmd string, args ...string) Option {
	return func(o *options) {
		o.EngineCmd = cmd
		o.EngineArgs = args
	}
}

// WithLogger sets the logger used by the client.
func WithLogger(lg logger.Logger) Option {
	return func(o *options) {
		o.Logger = lg
	}
}

// Client manages one target directory holding the workflow checkout and its
// output. Construction syncs the repository, materializes the configuration,
// and runs the engine unless cached output is still valid. Queries never
// trigger a re-sync or re-run.
type Client struct {
	dir       string
	opts      options
	sync      *gitsync.Client
	guard     *engine.Guard
	effective map[string]any
	table     *results.Table
}

// New creates a Client for the given target directory. An empty targetDir
// uses a fresh temporary directory, which is kept on disk so later runs in
// the same process can reuse it.
func New(ctx context.Context, targetDir string, opts ...Option) (*Client, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if err := mergo.Merge(&o, defaultOptions()); err != nil {
		return nil, fmt.Errorf("failed to apply default options: %w", err)
	}
	if o.Logger != nil {
		ctx = logger.WithLogger(ctx, o.Logger)
	}

	if o.Version == VersionLatest {
		logger.Warn(ctx, "Version \"latest\" may yield different data on each sync; pin a tag for reproducibility")
	}

	if targetDir == "" {
		dir, err := os.MkdirTemp("", "techdata-")
		if err != nil {
			return nil, fmt.Errorf("failed to create target directory: %w", err)
		}
		logger.Warn(ctx, "No target directory given; using a temporary directory that will not be deleted",
			"dir", dir)
		targetDir = dir
	}

	c := &Client{
		dir:  targetDir,
		opts: o,
		sync: gitsync.NewClient(gitsync.Config{
			Repository: gitsync.NormalizeRepoURL(o.Repository),
			Version:    o.Version,
			Dir:        targetDir,
		}),
		guard: engine.NewGuard(targetDir),
	}

	if err := c.prepare(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// prepare runs the sync → merge → guard → run pipeline.
func (c *Client) prepare(ctx context.Context) error {
	if err := c.sync.EnsureCheckout(ctx); err != nil {
		return err
	}

	merger := config.NewMerger(c.dir)
	effective, err := merger.Effective(c.opts.Params)
	if err != nil {
		return err
	}
	configBytes, err := config.Marshal(effective)
	if err != nil {
		return err
	}
	if err := merger.Write(effective); err != nil {
		return err
	}
	c.effective = effective

	if !c.guard.NeedsRun(ctx, configBytes) {
		logger.Info(ctx, "Configuration unchanged, reusing existing output", "dir", c.dir)
		return nil
	}

	if err := c.guard.Invalidate(ctx); err != nil {
		return err
	}

	args := c.opts.EngineArgs
	if len(args) == 0 {
		args = engine.DefaultArgs(config.MergedFileName)
	}
	runner := engine.NewRunner(c.dir, c.opts.EngineCmd, args...)
	if _, err := runner.Run(ctx); err != nil {
		return err
	}

	revision, err := c.sync.Head()
	if err != nil {
		return err
	}
	return c.guard.Commit(configBytes, revision)
}

// load parses the output tables on first use. The table is immutable once
// loaded; a parse error is fatal and not retried.
func (c *Client) load() error {
	if c.table != nil {
		return nil
	}
	table, err := results.Load(c.guard.OutputsDir())
	if err != nil {
		return err
	}
	c.table = table
	return nil
}

// Technologies returns the technology names available for a year, sorted.
// An unknown year yields an empty slice, not an error; the error return only
// reports a failure to load the output tables.
func (c *Client) Technologies(year int) ([]string, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.table.Technologies(year), nil
}

// Parameters returns the parameter names available for a (year, technology),
// sorted. Unknown keys yield an empty slice, not an error.
func (c *Client) Parameters(year int, tech string) ([]string, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.table.Parameters(year, tech), nil
}

// Years returns the years covered by the loaded output, sorted.
func (c *Client) Years() ([]int, error) {
	if err := c.load(); err != nil {
		return nil, err
	}
	return c.table.Years(), nil
}

// Get returns the record for the full key tuple, or an error wrapping
// ErrNotFound if no such row exists.
func (c *Client) Get(year int, tech, param string) (Record, error) {
	if err := c.load(); err != nil {
		return Record{}, err
	}
	row, ok := c.table.Get(year, tech, param)
	if !ok {
		return Record{}, fmt.Errorf("no result for year=%d technology=%q parameter=%q: %w",
			year, tech, param, ErrNotFound)
	}
	return Record{
		Value:              row.Value,
		Unit:               row.Unit,
		Source:             row.Source,
		FurtherDescription: row.FurtherDescription,
	}, nil
}

// Config returns the value of key from the effective configuration the
// current output was produced with, or an error wrapping ErrNotFound. It
// never triggers loading the output tables.
func (c *Client) Config(key string) (any, error) {
	value, ok := c.effective[key]
	if !ok {
		return nil, fmt.Errorf("config key %q: %w", key, ErrNotFound)
	}
	return value, nil
}

// Dir returns the target directory managed by the client.
func (c *Client) Dir() string { return c.dir }

// Revision returns the current revision of the workflow checkout.
func (c *Client) Revision() (string, error) {
	return c.sync.Head()
}
