package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/buildseq/internal/fsops"
	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/workspace"
)

// PublishOptions describes a directory to publish as the full content of a branch.
type PublishOptions struct {
	RepoURL     string
	Branch      string
	Dir         string
	Message     string
	AuthorName  string
	AuthorEmail string
	// WorkspaceDir is the parent of the scratch checkout; the system temp dir when empty.
	WorkspaceDir string
}

// PublishResult reports what PublishDir did.
type PublishResult struct {
	Pushed  bool
	Created bool // the branch did not exist before
	Commit  string
}

// PublishDir replaces the content of opts.Branch with opts.Dir, commits and pushes. Nothing is
// committed when the content is unchanged.
func (c *Client) PublishDir(ctx context.Context, opts PublishOptions) (PublishResult, error) {
	var res PublishResult
	if opts.RepoURL == "" {
		return res, errors.New("publish: repository url is required")
	}
	if opts.Branch == "" {
		return res, errors.New("publish: branch is required")
	}
	if info, err := os.Stat(opts.Dir); err != nil || !info.IsDir() {
		return res, fmt.Errorf("publish: content directory %s is not a directory", opts.Dir)
	}

	auth, err := authMethod(c.auth)
	if err != nil {
		return res, &AuthError{Op: "publish", URL: opts.RepoURL, Err: err}
	}

	ws := workspace.NewManager(opts.WorkspaceDir, "publish")
	if err := ws.Create(); err != nil {
		return res, err
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			c.logger.Warn("Failed to clean publish workspace", logfields.Error(cerr))
		}
	}()
	checkout := filepath.Join(ws.GetPath(), "checkout")

	repo, created, err := c.openBranch(ctx, opts.RepoURL, opts.Branch, checkout)
	if err != nil {
		return res, err
	}
	res.Created = created

	if err := clearWorktree(checkout); err != nil {
		return res, err
	}
	if err := fsops.CopyDir(opts.Dir, checkout); err != nil {
		return res, fmt.Errorf("publish: copy content: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return res, fmt.Errorf("publish: worktree: %w", err)
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return res, fmt.Errorf("publish: stage changes: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return res, fmt.Errorf("publish: status: %w", err)
	}
	if status.IsClean() {
		c.logger.Info("Published content unchanged", logfields.URL(opts.RepoURL), logfields.Branch(opts.Branch))
		return res, nil
	}

	hash, err := wt.Commit(opts.Message, &git.CommitOptions{
		All: true,
		Author: &object.Signature{
			Name:  opts.AuthorName,
			Email: opts.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return res, fmt.Errorf("publish: commit: %w", err)
	}
	res.Commit = hash.String()

	ref := plumbing.NewBranchReferenceName(opts.Branch)
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref.String() + ":" + ref.String())},
		Auth:       auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return res, classifyError("push", opts.RepoURL, err)
	}
	res.Pushed = true
	c.logger.Info("Published content",
		logfields.URL(opts.RepoURL),
		logfields.Branch(opts.Branch),
		logfields.Name(res.Commit))
	return res, nil
}

// openBranch clones branch into dir, or initializes an empty repository whose HEAD points at
// branch when the remote does not have it yet.
func (c *Client) openBranch(ctx context.Context, url, branch, dir string) (*git.Repository, bool, error) {
	err := c.CloneBranch(ctx, url, branch, dir)
	if err == nil {
		repo, openErr := git.PlainOpen(dir)
		if openErr != nil {
			return nil, false, fmt.Errorf("publish: open checkout: %w", openErr)
		}
		return repo, false, nil
	}
	if !IsMissingBranch(err) {
		return nil, false, err
	}

	c.logger.Info("Creating new branch", logfields.URL(url), logfields.Branch(branch))
	if rmErr := os.RemoveAll(dir); rmErr != nil {
		return nil, false, rmErr
	}
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		return nil, false, fmt.Errorf("publish: init: %w", err)
	}
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(branch))
	if err := repo.Storer.SetReference(head); err != nil {
		return nil, false, fmt.Errorf("publish: set HEAD: %w", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{Name: "origin", URLs: []string{url}}); err != nil {
		return nil, false, fmt.Errorf("publish: add remote: %w", err)
	}
	return repo, true, nil
}

// clearWorktree removes everything in dir except the .git directory.
func clearWorktree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("publish: read checkout: %w", err)
	}
	for _, e := range entries {
		if e.Name() == git.GitDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("publish: clear checkout: %w", err)
		}
	}
	return nil
}
