package git

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/buildseq/internal/config"
	"git.home.luguber.info/inful/buildseq/internal/logfields"
	"git.home.luguber.info/inful/buildseq/internal/retry"
)

// Client performs clone and publish operations with a fixed auth configuration.
type Client struct {
	auth   *config.AuthConfig
	policy retry.Policy
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAuth sets the credentials used for every remote operation.
func WithAuth(a *config.AuthConfig) Option { return func(c *Client) { c.auth = a } }

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p retry.Policy) Option { return func(c *Client) { c.policy = p } }

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) *Client {
	c := &Client{policy: retry.DefaultPolicy(), logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CloneBranch clones only branch of url into dir. Transient failures are retried; auth,
// not-found and protocol errors fail immediately.
func (c *Client) CloneBranch(ctx context.Context, url, branch, dir string) error {
	auth, err := authMethod(c.auth)
	if err != nil {
		return &AuthError{Op: "clone", URL: url, Err: err}
	}

	return c.policy.Do(ctx, func(err error) bool { return !isPermanent(err) }, func(attempt int) error {
		if attempt > 0 {
			c.logger.Warn("Retrying git clone", logfields.URL(url), logfields.Branch(branch), slog.Int("attempt", attempt))
			// A failed attempt may leave a partial checkout behind.
			if rmErr := os.RemoveAll(dir); rmErr != nil {
				return rmErr
			}
		}
		c.logger.Debug("Cloning branch", logfields.URL(url), logfields.Branch(branch), logfields.Path(dir))
		_, cloneErr := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:           url,
			Auth:          auth,
			ReferenceName: plumbing.NewBranchReferenceName(branch),
			SingleBranch:  true,
		})
		return classifyError("clone", url, cloneErr)
	})
}
