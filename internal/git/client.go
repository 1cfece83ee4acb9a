package git

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"git.home.luguber.info/inful/campus/internal/errors"
	"git.home.luguber.info/inful/campus/internal/logfields"
	"git.home.luguber.info/inful/campus/internal/retry"
)

// Client performs git operations on local working trees.
type Client struct {
	dryRun bool
	out    io.Writer
	auth   transport.AuthMethod
	author *object.Signature
	retry  retry.Policy
}

// NewClient creates a client. Dry-run command lines are written to out.
func NewClient(out io.Writer) *Client {
	if out == nil {
		out = io.Discard
	}
	return &Client{out: out, auth: AuthFromEnv(), retry: retry.None()}
}

// WithRetry sets the backoff policy applied to transient push failures (fluent helper).
func (c *Client) WithRetry(p retry.Policy) *Client { c.retry = p; return c }

// WithDryRun toggles dry-run mode (fluent helper).
func (c *Client) WithDryRun(dryRun bool) *Client { c.dryRun = dryRun; return c }

// WithAuth sets the push authentication (fluent helper).
func (c *Client) WithAuth(auth transport.AuthMethod) *Client { c.auth = auth; return c }

// WithAuthor sets the commit author, overriding the git configuration (fluent helper).
func (c *Client) WithAuthor(name, email string) *Client {
	c.author = &object.Signature{Name: name, Email: email}
	return c
}

func (c *Client) announce(dir, command string) {
	_, _ = fmt.Fprintf(c.out, "Execute `git %s` in %s\n", command, dir)
}

// IsRepo reports whether dir holds a git repository.
func IsRepo(dir string) bool {
	st, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && st.IsDir()
}

// Init initializes dir as a repository unless it already is one.
func (c *Client) Init(dir string) (bool, error) {
	if IsRepo(dir) {
		return false, nil
	}
	if c.dryRun {
		c.announce(dir, "init")
		return true, nil
	}
	if _, err := git.PlainInit(dir, false); err != nil {
		return false, errors.WrapError(err, errors.CategoryGit, "initialize repository").WithContext("dir", dir).Build()
	}
	slog.Info("Initialized git repository", logfields.Dir(dir))
	return true, nil
}

// CommitAll commits the changes of dir's worktree. Tracked files are always
// staged (git commit -a); untracked files are added too when includeUntracked
// is set. It reports false when there was nothing to commit.
func (c *Client) CommitAll(dir, message string, includeUntracked bool) (bool, error) {
	if c.dryRun {
		if includeUntracked {
			c.announce(dir, "add --all")
		}
		c.announce(dir, fmt.Sprintf("commit -a -m %q", message))
		return true, nil
	}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryGit, "open repository").WithContext("dir", dir).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryGit, "open worktree").WithContext("dir", dir).Build()
	}
	if includeUntracked {
		if patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil); err == nil {
			wt.Excludes = append(wt.Excludes, patterns...)
		}
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return false, errors.WrapError(err, errors.CategoryGit, "stage changes").WithContext("dir", dir).Build()
		}
	}
	changed, err := hasChanges(wt)
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryGit, "read status").WithContext("dir", dir).Build()
	}
	if !changed {
		slog.Info("Nothing to commit", logfields.Dir(dir))
		return false, nil
	}
	opts := &git.CommitOptions{All: true}
	if sig := c.signature(repo); sig != nil {
		opts.Author = sig
	}
	hash, err := wt.Commit(message, opts)
	if stderrors.Is(err, git.ErrEmptyCommit) {
		slog.Info("Nothing to commit", logfields.Dir(dir))
		return false, nil
	}
	if err != nil {
		return false, errors.WrapError(err, errors.CategoryGit, "commit").WithContext("dir", dir).Build()
	}
	slog.Info("Committed changes", logfields.Dir(dir), slog.String("commit", hash.String()[:8]))
	return true, nil
}

// hasChanges reports whether commit -a would record anything: a staged
// change or a modification of a tracked file.
func hasChanges(wt *git.Worktree) (bool, error) {
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	for _, st := range status {
		if st.Staging == git.Untracked {
			continue
		}
		if st.Staging != git.Unmodified || st.Worktree != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

// signature returns the configured author, the repository's user settings,
// or a campus fallback when neither is set.
func (c *Client) signature(repo *git.Repository) *object.Signature {
	if c.author != nil {
		return &object.Signature{Name: c.author.Name, Email: c.author.Email, When: time.Now()}
	}
	for _, scope := range []gitconfig.Scope{gitconfig.LocalScope, gitconfig.GlobalScope} {
		cfg, err := repo.ConfigScoped(scope)
		if err == nil && cfg.User.Name != "" && cfg.User.Email != "" {
			return nil
		}
	}
	return &object.Signature{Name: "campus", Email: "campus@localhost", When: time.Now()}
}

// Push pushes dir's current branch to remote.
func (c *Client) Push(ctx context.Context, dir, remote string) error {
	if c.dryRun {
		c.announce(dir, "push "+remote)
		return nil
	}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return errors.WrapError(err, errors.CategoryGit, "open repository").WithContext("dir", dir).Build()
	}
	err = c.retry.Do(ctx, func() error {
		pushErr := repo.PushContext(ctx, &git.PushOptions{RemoteName: remote, Auth: c.auth})
		if pushErr != nil && !stderrors.Is(pushErr, git.NoErrAlreadyUpToDate) {
			slog.Debug("Push attempt failed", logfields.Dir(dir), logfields.Remote(remote), logfields.Error(pushErr))
			return pushErr
		}
		return nil
	}, retryablePush)
	if err == nil {
		slog.Info("Pushed", logfields.Dir(dir), logfields.Remote(remote))
		return nil
	}
	if stderrors.Is(err, git.ErrRemoteNotFound) {
		return errors.GitError("no such remote; add one with `git remote add`").
			UserAction().
			WithContext("dir", dir).
			WithContext("remote", remote).
			Build()
	}
	return errors.WrapError(classifyPushError(remote, err), errors.CategoryGit, "push").
		Retryable().
		WithContext("dir", dir).
		WithContext("remote", remote).
		Build()
}

// retryablePush reports whether a push failure may succeed on another attempt.
func retryablePush(err error) bool {
	if stderrors.Is(err, git.ErrRemoteNotFound) || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var auth *AuthError
	var rejected *RemoteRejectedError
	classified := classifyPushError("", err)
	return !stderrors.As(classified, &auth) && !stderrors.As(classified, &rejected)
}
