// Package gitsync pins a local checkout of the external workflow repository
// to a requested version.
package gitsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/emlab/techdata/internal/fileutil"
	"github.com/emlab/techdata/internal/logger"
)

// VersionLatest tracks the head of the default branch instead of a tag.
const VersionLatest = "latest"

// Config holds the settings for a repository checkout.
type Config struct {
	// Repository is the remote URL of the external workflow repository.
	Repository string

	// Version is a tag name (e.g. "v0.6.2") or VersionLatest.
	Version string

	// Dir is the directory holding the checkout.
	Dir string
}

// SyncError indicates a failed version-control operation, or a requested
// version that conflicts with the checkout already on disk.
type SyncError struct {
	Dir string
	Op  string
	Err error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s in %q: %v", e.Op, e.Dir, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Client performs git operations against a single checkout directory.
type Client struct {
	cfg Config
}

// NewClient creates a git client for the given configuration.
func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg}
}

// Dir returns the checkout directory.
func (c *Client) Dir() string { return c.cfg.Dir }

// IsCloned returns true if the checkout directory already holds a repository.
func (c *Client) IsCloned() bool {
	return fileutil.IsDir(c.cfg.Dir) && !fileutil.IsEmptyDir(c.cfg.Dir)
}

// EnsureCheckout guarantees that Dir contains a checkout of the repository at
// the requested version. A fresh directory is cloned; an existing checkout is
// verified against a pinned tag (mismatches fail fast, the revision is never
// switched silently) or pulled when tracking VersionLatest.
func (c *Client) EnsureCheckout(ctx context.Context) error {
	if !c.IsCloned() {
		return c.clone(ctx)
	}
	if c.cfg.Version == VersionLatest {
		return c.pull(ctx)
	}
	return c.verifyTag()
}

// clone clones the repository into Dir. A pinned version clones the tag
// reference directly; VersionLatest stays on the default branch.
func (c *Client) clone(ctx context.Context) error {
	logger.Info(ctx, "Cloning workflow repository",
		"repo", c.cfg.Repository, "dir", c.cfg.Dir, "version", c.cfg.Version)

	opts := &git.CloneOptions{
		URL: c.cfg.Repository,
	}
	if c.cfg.Version != VersionLatest {
		opts.ReferenceName = plumbing.NewTagReferenceName(c.cfg.Version)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, c.cfg.Dir, false, opts); err != nil {
		return &SyncError{Dir: c.cfg.Dir, Op: fmt.Sprintf("clone %s", c.cfg.Repository), Err: err}
	}
	return nil
}

// pull fetches and merges the latest changes on the tracked branch.
func (c *Client) pull(ctx context.Context) error {
	logger.Info(ctx, "Updating workflow repository", "dir", c.cfg.Dir)

	repo, err := git.PlainOpen(c.cfg.Dir)
	if err != nil {
		return &SyncError{Dir: c.cfg.Dir, Op: "open", Err: err}
	}
	wt, err := repo.Worktree()
	if err != nil {
		return &SyncError{Dir: c.cfg.Dir, Op: "worktree", Err: err}
	}
	err = wt.PullContext(ctx, &git.PullOptions{RemoteName: git.DefaultRemoteName})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return &SyncError{Dir: c.cfg.Dir, Op: "pull", Err: err}
	}
	return nil
}

// verifyTag checks that the existing checkout is at the pinned tag. Mixing
// versions in one directory is a caller error, not something to auto-correct.
func (c *Client) verifyTag() error {
	repo, err := git.PlainOpen(c.cfg.Dir)
	if err != nil {
		return &SyncError{Dir: c.cfg.Dir, Op: "open", Err: err}
	}

	head, err := repo.Head()
	if err != nil {
		return &SyncError{Dir: c.cfg.Dir, Op: "head", Err: err}
	}

	tagHash, err := c.resolveTag(repo, c.cfg.Version)
	if err != nil {
		return &SyncError{
			Dir: c.cfg.Dir,
			Op:  fmt.Sprintf("resolve tag %s", c.cfg.Version),
			Err: err,
		}
	}

	if head.Hash() != tagHash {
		return &SyncError{
			Dir: c.cfg.Dir,
			Op:  fmt.Sprintf("verify tag %s", c.cfg.Version),
			Err: fmt.Errorf("checkout is at %s, not at requested version %s",
				head.Hash().String()[:8], c.cfg.Version),
		}
	}
	return nil
}

// resolveTag resolves a tag name to the commit it points at, following
// annotated tags to their target.
func (c *Client) resolveTag(repo *git.Repository, tag string) (plumbing.Hash, error) {
	ref, err := repo.Reference(plumbing.NewTagReferenceName(tag), true)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if obj, err := repo.TagObject(ref.Hash()); err == nil {
		commit, err := obj.Commit()
		if err != nil {
			return plumbing.ZeroHash, err
		}
		return commit.Hash, nil
	}
	return ref.Hash(), nil
}

// Head returns the current revision of the checkout.
func (c *Client) Head() (string, error) {
	repo, err := git.PlainOpen(c.cfg.Dir)
	if err != nil {
		return "", &SyncError{Dir: c.cfg.Dir, Op: "open", Err: err}
	}
	head, err := repo.Head()
	if err != nil {
		return "", &SyncError{Dir: c.cfg.Dir, Op: "head", Err: err}
	}
	return head.Hash().String(), nil
}

// NormalizeRepoURL expands the short "github.com/org/repo" form to a full
// HTTPS clone URL; full URLs pass through unchanged.
func NormalizeRepoURL(repo string) string {
	if repo == "" {
		return ""
	}
	if strings.HasPrefix(repo, "http://") || strings.HasPrefix(repo, "https://") ||
		strings.HasPrefix(repo, "git@") || strings.HasPrefix(repo, "file://") ||
		strings.HasPrefix(repo, "/") || strings.HasPrefix(repo, ".") {
		return repo
	}
	if strings.HasSuffix(repo, ".git") {
		return "https://" + repo
	}
	return "https://" + repo + ".git"
}
